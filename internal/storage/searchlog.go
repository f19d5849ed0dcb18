package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	decimalBase                        = 10
	defaultReducePrecisionDecimalPlace = 2
)

// SearchLog is a row of the search_logs table: how often a route search
// started around a location.
type SearchLog struct {
	ID          int64
	Latitude    float64
	Longitude   float64
	Distance    float64
	SearchCount int64
	SearchTime  time.Time
	LastSearch  time.Time
}

// LogSearchLocation counts a route search starting at the given location.
// Coordinates are rounded to two decimal places (about 1km) so nearby
// searches share a row.
func (s *Storage) LogSearchLocation(ctx context.Context, latitude, longitude, distance float64) error {
	var id int64
	now := time.Now().UTC().Format(timeLayout)

	lat, lng := reduceLocationPrecision(latitude, longitude, defaultReducePrecisionDecimalPlace)
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM search_logs
		WHERE latitude = ? AND longitude = ?
		LIMIT 1
	`, lat, lng).Scan(&id)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("error checking for existing location: %w", err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO search_logs (latitude, longitude, distance, search_time, last_search)
			VALUES (?, ?, ?, ?, ?)
		`, lat, lng, distance, now, now)
		if err != nil {
			return fmt.Errorf("error logging search location: %w", err)
		}
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE search_logs
		SET search_count = search_count + 1, last_search = ?, distance = ?
		WHERE id = ?
	`, now, distance, id)
	if err != nil {
		return fmt.Errorf("error updating search location: %w", err)
	}
	return nil
}

// GetSearchLogs returns the most searched locations first. A limit of 0
// returns every row.
func (s *Storage) GetSearchLogs(ctx context.Context, limit int) ([]SearchLog, error) {
	query := `SELECT id, latitude, longitude, distance, search_count, search_time, last_search
			  FROM search_logs
			  ORDER BY search_count DESC, id ASC `

	if limit > 0 {
		query += fmt.Sprintf("LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving search logs: %w", err)
	}
	defer rows.Close()

	var logs []SearchLog
	for rows.Next() {
		var entry SearchLog
		var searchTime, lastSearch string
		if err := rows.Scan(
			&entry.ID,
			&entry.Latitude,
			&entry.Longitude,
			&entry.Distance,
			&entry.SearchCount,
			&searchTime,
			&lastSearch,
		); err != nil {
			return nil, fmt.Errorf("error scanning search log: %w", err)
		}
		if entry.SearchTime, err = time.Parse(timeLayout, searchTime); err != nil {
			return nil, fmt.Errorf("error parsing date %s: %w", searchTime, err)
		}
		if entry.LastSearch, err = time.Parse(timeLayout, lastSearch); err != nil {
			return nil, fmt.Errorf("error parsing date %s: %w", lastSearch, err)
		}
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return logs, nil
}

// DeleteOldRecords removes price history and search logs older than
// daysOld days, in small batches to keep memory use flat. It returns the
// number of deleted rows.
func (s *Storage) DeleteOldRecords(ctx context.Context, daysOld int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysOld).Format(timeLayout)
	s.log.Info("Starting cleanup of old records", "cutoff_date", cutoff)

	historyDeleted, err := s.deleteInBatches(ctx, "price_history", "recorded_at", cutoff)
	if err != nil {
		return 0, err
	}
	s.log.Info("Completed price_history cleanup", "deleted_count", historyDeleted)

	logsDeleted, err := s.deleteInBatches(ctx, "search_logs", "last_search", cutoff)
	if err != nil {
		return historyDeleted, err
	}
	s.log.Info("Completed search_logs cleanup", "deleted_count", logsDeleted)

	return historyDeleted + logsDeleted, nil
}

func (s *Storage) deleteInBatches(ctx context.Context, table, column, cutoff string) (int64, error) {
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE ROWID IN (SELECT ROWID FROM %s WHERE %s < ? ORDER BY ROWID LIMIT %d)",
		table, table, column, deleteBatchSize)

	var total int64
	for {
		res, err := s.db.ExecContext(ctx, query, cutoff)
		if err != nil {
			return total, fmt.Errorf("error deleting %s records: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("error counting deleted %s records: %w", table, err)
		}
		total += n
		if n < deleteBatchSize {
			return total, nil
		}

		s.log.Debug("Deleted records", "table", table, "count", total)
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(deleteRecordsPause):
		}
	}
}

func (s *Storage) VacuumDatabase(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "PRAGMA incremental_vacuum(1000)")
	if err != nil {
		return fmt.Errorf("error performing incremental vacuum: %w", err)
	}
	return nil
}

func reduceLocationPrecision(lat, lng float64, decimalPlaces int) (roundedLat, roundedLng float64) {
	factor := math.Pow(decimalBase, float64(decimalPlaces))
	roundedLat = math.Round(lat*factor) / factor
	roundedLng = math.Round(lng*factor) / factor
	return
}
