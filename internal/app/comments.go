package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rubiojr/gascrowd/internal/station"
)

// AddComment stores a review of an existing station.
func (a *App) AddComment(ctx context.Context, stationID, userID, userName string, rating int, text string) (*station.Comment, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}

	comment, err := station.NewComment(stationID, userID, userName, rating, text)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.Get(ctx, stationID); err != nil {
		return nil, err
	}
	if err := a.store.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	a.log.Debug("Comment added", "station", stationID, "user", userID, "rating", rating)
	return comment, nil
}

// StationComments returns a station's comments, newest first, with their
// average rating.
func (a *App) StationComments(ctx context.Context, stationID string) ([]station.Comment, station.RatingSummary, error) {
	comments, err := a.store.Comments(ctx, stationID)
	if err != nil {
		return nil, station.RatingSummary{}, err
	}
	return comments, station.AverageRating(comments), nil
}
