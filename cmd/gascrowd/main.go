package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rubiojr/gascrowd/internal/app"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "gascrowd",
		Usage: "Crowdsourced fuel prices: report, confirm and find gas stations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Database file",
				EnvVars: []string{"GASCROWD_DB"},
				Value:   "gascrowd.db",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Log debug output to stderr",
				EnvVars: []string{"GASCROWD_DEBUG"},
			},
			&cli.DurationFlag{
				Name:  "cache-ttl",
				Usage: "How long the station list stays cached",
				Value: 10 * time.Minute,
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			addStationCommand(),
			listCommand(),
			showCommand(),
			reportPriceCommand(),
			confirmCommand(),
			commentCommand(),
			trustCommand(),
			bestValueCommand(),
			nearbyCommand(),
			routeCommand(),
			searchesCommand(),
			importCommand(),
			pruneCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	if c.Bool("debug") {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openApp(c *cli.Context, opts ...app.Option) (*app.App, error) {
	opts = append([]app.Option{
		app.WithDBPath(c.String("db")),
		app.WithCacheTTL(c.Duration("cache-ttl")),
		app.WithLogger(newLogger(c)),
	}, opts...)
	return app.New(c.Context, opts...)
}
