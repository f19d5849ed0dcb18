package main

import (
	"fmt"
	"io"

	"github.com/rubiojr/gascrowd/internal/app"
	"github.com/rubiojr/gascrowd/internal/station"
)

func printStation(w io.Writer, i int, st *station.Station) {
	marker := ""
	if st.IsBestValue {
		marker = " ★ best value"
	}
	fmt.Fprintf(w, "%d. %s [%s]%s\n", i, st.Name, st.ID, marker)
	printStationBody(w, st)
}

func printNearbyStation(w io.Writer, i int, n app.NearbyStation) {
	fmt.Fprintf(w, "%d. %s [%s] %.2f km\n", i, n.Station.Name, n.Station.ID, n.Distance)
	printStationBody(w, n.Station)
}

func printStationBody(w io.Writer, st *station.Station) {
	if st.Coords != nil {
		fmt.Fprintf(w, "   Coordinates: %.6f, %.6f\n", st.Coords.Lat, st.Coords.Lng)
	}
	fmt.Fprintf(w, "   Trust: %s  Verified: %t\n", station.FormatTrust(st.TrustScore), st.IsVerified)
	for _, fuel := range station.FuelTypes {
		if p, ok := st.Prices[fuel]; ok {
			fmt.Fprintf(w, "   %s: %s\n", fuel, station.FormatPrice(p))
		}
	}
	if n := len(st.PendingChanges); n > 0 {
		fmt.Fprintf(w, "   Pending changes: %d\n", n)
	}
	fmt.Fprintln(w)
}

func printPendingChanges(w io.Writer, st *station.Station) {
	if len(st.PendingChanges) == 0 {
		fmt.Fprintln(w, "No pending changes.")
		return
	}
	fmt.Fprintln(w, "Pending changes:")
	for i, change := range st.PendingChanges {
		fmt.Fprintf(w, "   [%d] %s %s (%d/%d votes)\n",
			i, change.FuelType, station.FormatPrice(change.Price), change.Votes, station.ConsensusThreshold)
	}
}
