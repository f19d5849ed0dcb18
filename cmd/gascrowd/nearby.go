package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rubiojr/gascrowd/internal/app"
	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/urfave/cli/v2"
)

func nearbyCommand() *cli.Command {
	return &cli.Command{
		Name:  "nearby",
		Usage: "List the stations around a location, closest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "location",
				Usage: "Place name to search around",
			},
			&cli.Float64Flag{
				Name:  "lat",
				Usage: "Latitude of the location",
			},
			&cli.Float64Flag{
				Name:  "long",
				Usage: "Longitude of the location",
			},
			&cli.StringFlag{
				Name:    "nominatim",
				Usage:   "Nominatim server used to resolve --location",
				EnvVars: []string{"GASCROWD_NOMINATIM"},
				Value:   geo.DefaultNominatimServer,
			},
			&cli.Float64Flag{
				Name:    "radius",
				Aliases: []string{"r"},
				Usage:   "Search radius in kilometers",
				Value:   app.DefaultNearbyRadius,
			},
		},
		Action: nearbyAction,
	}
}

type placeLookup interface {
	Resolve(name string) (geo.Point, string, error)
}

// resolveCenter picks the search center from either a place name or an
// explicit point. The second result is the resolved place name, if any.
func resolveCenter(location string, coords *geo.Point, places placeLookup) (geo.Point, string, error) {
	if location != "" {
		return places.Resolve(location)
	}
	if coords == nil {
		return geo.Point{}, "", errors.New("location or latitude and longitude are required")
	}
	return *coords, "", nil
}

func nearbyAction(c *cli.Context) error {
	var coords *geo.Point
	if c.IsSet("lat") && c.IsSet("long") {
		coords = &geo.Point{Lat: c.Float64("lat"), Lng: c.Float64("long")}
	}

	center, name, err := resolveCenter(c.String("location"), coords, geo.NewGeocoder(c.String("nominatim")))
	if err != nil {
		return err
	}
	if name != "" {
		fmt.Println("Location found:", name)
	}

	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	radius := c.Float64("radius")
	fmt.Printf("Filtering stations within %g km radius...\n\n", radius)

	nearby, err := a.NearbyStations(c.Context, center, radius)
	if err != nil {
		return fmt.Errorf("error fetching nearby stations: %w", err)
	}

	for i, n := range nearby {
		printNearbyStation(os.Stdout, i+1, n)
	}
	fmt.Printf("Found %d stations within %g km radius\n", len(nearby), radius)
	return nil
}
