package main

import (
	"fmt"
	"os"

	"github.com/rubiojr/gascrowd/internal/station"
	"github.com/urfave/cli/v2"
)

func reportPriceCommand() *cli.Command {
	return &cli.Command{
		Name:  "report-price",
		Usage: "Propose a new price for a station",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "station",
				Usage:    "Station id",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "fuel",
				Usage: "Fuel type (gas, ethanol, diesel)",
				Value: string(station.FuelGas),
			},
			&cli.StringFlag{
				Name:     "price",
				Usage:    "Proposed price",
				Required: true,
			},
		},
		Action: reportPriceAction,
	}
}

func reportPriceAction(c *cli.Context) error {
	fuel, err := station.ParseFuelType(c.String("fuel"))
	if err != nil {
		return err
	}

	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.SubmitPrice(c.Context, c.String("station"), fuel, c.String("price"))
	if err != nil {
		return err
	}
	printPendingChanges(os.Stdout, st)
	return nil
}

func confirmCommand() *cli.Command {
	return &cli.Command{
		Name:  "confirm",
		Usage: "Vote for a pending price change",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "station",
				Usage:    "Station id",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "index",
				Usage: "Pending change index, as listed by show",
				Value: 0,
			},
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Voter id",
				EnvVars:  []string{"GASCROWD_USER"},
				Required: true,
			},
		},
		Action: confirmAction,
	}
}

func confirmAction(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	applied, st, err := a.ConfirmPrice(c.Context, c.String("station"), c.Int("index"), c.String("user"))
	if err != nil {
		return err
	}

	if applied {
		fmt.Println("Consensus reached, price applied.")
	} else {
		fmt.Println("Vote recorded (or ignored if already cast).")
	}
	printStation(os.Stdout, 1, st)
	printPendingChanges(os.Stdout, st)
	return nil
}
