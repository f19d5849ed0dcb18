package main

import (
	"fmt"
	"io"

	"github.com/rubiojr/gascrowd/internal/station"
	"github.com/urfave/cli/v2"
)

func commentCommand() *cli.Command {
	return &cli.Command{
		Name:  "comment",
		Usage: "Review a station with a 1-5 star rating and/or a comment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "station",
				Usage:    "Station id",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Reviewer id",
				EnvVars:  []string{"GASCROWD_USER"},
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name shown with the comment",
			},
			&cli.IntFlag{
				Name:  "rating",
				Usage: "Stars from 1 to 5 (0 for none)",
			},
			&cli.StringFlag{
				Name:  "text",
				Usage: "Comment text",
			},
		},
		Action: commentAction,
	}
}

func commentAction(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.AddComment(c.Context, c.String("station"), c.String("user"), c.String("name"), c.Int("rating"), c.String("text"))
	if err != nil {
		return err
	}

	_, rating, err := a.StationComments(c.Context, c.String("station"))
	if err != nil {
		return err
	}
	fmt.Println("Comment added. Rating:", rating)
	return nil
}

func printComments(w io.Writer, comments []station.Comment, rating station.RatingSummary) {
	fmt.Fprintln(w, "Rating:", rating)
	for _, cm := range comments {
		stars := "no rating"
		if cm.Rating != station.NoRating {
			stars = fmt.Sprintf("%d/5", cm.Rating)
		}
		fmt.Fprintf(w, "   %s %s (%s)\n", cm.CreatedAt.Format("2006-01-02 15:04"), cm.UserName, stars)
		if cm.Text != "" {
			fmt.Fprintf(w, "      %s\n", cm.Text)
		}
	}
}
