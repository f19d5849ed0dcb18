package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rubiojr/gascrowd/internal/station"
)

// AddComment stores c and sets its ID.
func (s *Storage) AddComment(ctx context.Context, c *station.Comment) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (station_id, user_id, user_name, rating, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.StationID, c.UserID, c.UserName, c.Rating, c.Text, c.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("error saving comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading comment id: %w", err)
	}
	c.ID = id
	return nil
}

// Comments returns the comments of a station, newest first.
func (s *Storage) Comments(ctx context.Context, stationID string) ([]station.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, user_id, user_name, rating, text, created_at
		FROM comments
		WHERE station_id = ?
		ORDER BY id DESC
	`, stationID)
	if err != nil {
		return nil, fmt.Errorf("error querying comments: %w", err)
	}
	defer rows.Close()

	var comments []station.Comment
	for rows.Next() {
		var c station.Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.StationID, &c.UserID, &c.UserName, &c.Rating, &c.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning comment: %w", err)
		}
		if c.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("error parsing date %s: %w", createdAt, err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}
