package main

import (
	"fmt"

	"github.com/rubiojr/gascrowd/pkg/feed"
	"github.com/urfave/cli/v2"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import operator stations from the Spanish fuel price feed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Feed URL",
				EnvVars: []string{"GASCROWD_FEED_URL"},
				Value:   feed.DefaultURL,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum stations to import (0 for all)",
			},
		},
		Action: importAction,
	}
}

func importAction(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Import(c.Context, feed.NewClient(c.String("url")), c.Int("limit"))
	if err != nil {
		return err
	}
	fmt.Printf("Imported stations: %d created, %d updated, %d skipped\n", result.Created, result.Updated, result.Skipped)
	return nil
}
