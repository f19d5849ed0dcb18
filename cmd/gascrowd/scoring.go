package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func trustCommand() *cli.Command {
	return &cli.Command{
		Name:   "trust",
		Usage:  "Recompute every station's trust score from its fundamentals",
		Action: trustAction,
	}
}

func trustAction(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	stations, err := a.RecomputeTrust(c.Context)
	if err != nil {
		return err
	}
	for i, st := range stations {
		printStation(os.Stdout, i+1, st)
	}
	fmt.Printf("Rescored %d stations\n", len(stations))
	return nil
}

func bestValueCommand() *cli.Command {
	return &cli.Command{
		Name:   "best-value",
		Usage:  "Designate and save the best value station",
		Action: bestValueAction,
	}
}

func bestValueAction(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	best, err := a.BestValue(c.Context)
	if err != nil {
		return err
	}
	if best == nil {
		fmt.Println("No station qualifies: a gas price and a trust score of at least 6.0 are required.")
		return nil
	}
	printStation(os.Stdout, 1, best)
	return nil
}
