package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rubiojr/gascrowd/internal/app"
	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/rubiojr/gascrowd/internal/station"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func addStationCommand() *cli.Command {
	return &cli.Command{
		Name:  "add-station",
		Usage: "Register an operator station (starts verified and fully trusted)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Station name",
				Required: true,
			},
			&cli.Float64Flag{
				Name:  "lat",
				Usage: "Latitude of the station",
			},
			&cli.Float64Flag{
				Name:  "long",
				Usage: "Longitude of the station",
			},
			&cli.StringFlag{
				Name:  "gas",
				Usage: "Gas price",
			},
			&cli.StringFlag{
				Name:  "ethanol",
				Usage: "Ethanol price",
			},
			&cli.StringFlag{
				Name:  "diesel",
				Usage: "Diesel price",
			},
		},
		Action: addStationAction,
	}
}

func addStationAction(c *cli.Context) error {
	var coords *geo.Point
	if c.IsSet("lat") || c.IsSet("long") {
		if !c.IsSet("lat") || !c.IsSet("long") {
			return errors.New("both lat and long are required")
		}
		coords = &geo.Point{Lat: c.Float64("lat"), Lng: c.Float64("long")}
	}

	prices := map[station.FuelType]decimal.Decimal{}
	for _, fuel := range station.FuelTypes {
		raw := c.String(string(fuel))
		if raw == "" {
			continue
		}
		p, err := station.ParsePrice(raw)
		if err != nil {
			return fmt.Errorf("invalid %s price: %w", fuel, err)
		}
		prices[fuel] = p
	}

	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.CreateStation(c.Context, c.String("name"), coords, prices)
	if err != nil {
		return err
	}
	fmt.Println("Station created:", st.ID)
	return nil
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stations, flagging the best value one",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Filter by name or id prefix",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort by price or trust",
			},
			&cli.BoolFlag{
				Name:  "recompute",
				Usage: "Score trust from fundamentals before listing (not saved)",
			},
		},
		Action: listAction,
	}
}

func listAction(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	stations, err := a.FindStations(c.Context, app.FindOptions{
		Query:          c.String("query"),
		SortBy:         app.SortBy(c.String("sort")),
		RecomputeTrust: c.Bool("recompute"),
	})
	if err != nil {
		return err
	}

	for i, st := range stations {
		printStation(os.Stdout, i+1, st)
	}
	fmt.Printf("Found %d stations\n", len(stations))
	return nil
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show a station with its pending changes, price history and comments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "station",
				Usage:    "Station id",
				Required: true,
			},
		},
		Action: showAction,
	}
}

func showAction(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.Station(c.Context, c.String("station"))
	if err != nil {
		return err
	}

	printStation(os.Stdout, 1, st)
	printPendingChanges(os.Stdout, st)
	if len(st.History) > 0 {
		fmt.Println("Price history:")
		for _, h := range st.History {
			fmt.Printf("   %s %s %s\n", h.RecordedAt.Format("2006-01-02 15:04"), h.FuelType, station.FormatPrice(h.Price))
		}
	}

	comments, rating, err := a.StationComments(c.Context, st.ID)
	if err != nil {
		return err
	}
	printComments(os.Stdout, comments, rating)
	return nil
}
