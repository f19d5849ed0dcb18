package main

import (
	"github.com/rubiojr/gascrowd/internal/storage"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Create the database tables and backfill the price history",
		Action: migrateAction,
	}
}

func migrateAction(c *cli.Context) error {
	s, err := storage.NewStorageMigrate(c.Context, c.String("db"), newLogger(c))
	if err != nil {
		return err
	}
	return s.Close()
}
