package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func pruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete old price history and search logs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Delete records older than this many days",
				Value: 365,
			},
		},
		Action: pruneAction,
	}
}

func pruneAction(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	deleted, err := a.Storage().DeleteOldRecords(c.Context, c.Int("days"))
	if err != nil {
		return err
	}
	if err := a.Storage().VacuumDatabase(c.Context); err != nil {
		return err
	}
	fmt.Printf("Deleted %d records older than %d days\n", deleted, c.Int("days"))
	return nil
}
