package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/rubiojr/gascrowd/internal/route"
	"github.com/urfave/cli/v2"
)

func routeCommand() *cli.Command {
	return &cli.Command{
		Name:  "route",
		Usage: "List the stations close to a route",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "points",
				Usage: `Route as JSON, e.g. '[[38.72,-9.14],{"lat":41.16,"lng":-8.63}]'`,
			},
			&cli.StringFlag{
				Name:  "gpx",
				Usage: "Read the route from a GPX file",
			},
			&cli.StringSliceFlag{
				Name:  "via",
				Usage: "Place name to route through, repeat in order",
			},
			&cli.StringFlag{
				Name:    "nominatim",
				Usage:   "Nominatim server used to resolve --via",
				EnvVars: []string{"GASCROWD_NOMINATIM"},
				Value:   geo.DefaultNominatimServer,
			},
			&cli.Float64Flag{
				Name:    "max-distance",
				Aliases: []string{"d"},
				Usage:   "Maximum distance from the route in kilometers",
				Value:   route.DefaultMaxDistance,
			},
		},
		Action: routeAction,
	}
}

type placeResolver interface {
	ResolveAll(names []string) ([]geo.Point, error)
}

// resolveRoute builds the route from exactly one of the JSON points, a GPX
// file or a list of place names.
func resolveRoute(points, gpxPath string, via []string, places placeResolver) ([]geo.Point, error) {
	sources := 0
	for _, set := range []bool{points != "", gpxPath != "", len(via) > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, errors.New("exactly one of points, gpx or via is required")
	}

	switch {
	case points != "":
		return geo.ParseRoute([]byte(points))
	case gpxPath != "":
		return geo.LoadGPXRoute(gpxPath)
	}
	return places.ResolveAll(via)
}

func routeAction(c *cli.Context) error {
	points, err := resolveRoute(c.String("points"), c.String("gpx"), c.StringSlice("via"), geo.NewGeocoder(c.String("nominatim")))
	if err != nil {
		return err
	}

	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	maxDistance := c.Float64("max-distance")
	fmt.Printf("Filtering stations within %g km of a %d point route...\n\n", maxDistance, len(points))

	stations, err := a.RouteStations(c.Context, points, maxDistance)
	if err != nil {
		return err
	}

	for i, st := range stations {
		printStation(os.Stdout, i+1, st)
	}
	fmt.Printf("Found %d stations along the route\n", len(stations))
	return nil
}

func searchesCommand() *cli.Command {
	return &cli.Command{
		Name:  "searches",
		Usage: "Show the most common route starting points",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum rows to show (0 for all)",
				Value: 10,
			},
		},
		Action: searchesAction,
	}
}

func searchesAction(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	logs, err := a.Storage().GetSearchLogs(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Println("No searches logged.")
		return nil
	}
	for _, l := range logs {
		fmt.Printf("%.2f, %.2f  searches: %d  last: %s  distance: %g km\n",
			l.Latitude, l.Longitude, l.SearchCount, l.LastSearch.Format("2006-01-02 15:04"), l.Distance)
	}
	return nil
}
