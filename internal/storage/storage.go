// Package storage persists stations, their price history and route search
// logs in a SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/patrickmn/go-cache"
	"github.com/rubiojr/gascrowd/internal/station"
	"github.com/shopspring/decimal"
)

const (
	defaultCacheExpirationMinutes = 10
	defaultCacheCleanupMinutes    = 30
	defaultCacheSize              = -1024 * 1024 // negative value for pages
	defaultPageSize               = 4096
	migrationCacheSize            = 1000000000
	deleteBatchSize               = 1000
	deleteRecordsPause            = 50 * time.Millisecond

	// same layout as SQLite's CURRENT_TIMESTAMP, so stored times sort as text
	timeLayout = "2006-01-02 15:04:05"

	allStationsKey = "all_stations"
)

var ErrStationNotFound = errors.New("station not found")

type Storage struct {
	db    *sql.DB
	cache *cache.Cache
	log   *slog.Logger
}

type stationRow struct {
	id   string
	data []byte
}

func NewStorage(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	return newStorage(ctx, dbPath, logger, defaultCacheExpirationMinutes*time.Minute)
}

// NewStorageWithCache is NewStorage with a custom expiry for the station
// cache.
func NewStorageWithCache(ctx context.Context, dbPath string, logger *slog.Logger, expiry time.Duration) (*Storage, error) {
	return newStorage(ctx, dbPath, logger, expiry)
}

func newStorage(ctx context.Context, dbPath string, logger *slog.Logger, expiry time.Duration) (*Storage, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := configureSQLitePragmas(ctx, db, false, defaultCacheSize); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &Storage{
		db:    db,
		cache: cache.New(expiry, defaultCacheCleanupMinutes*time.Minute),
		log:   logger,
	}, nil
}

// NewStorageMigrate opens the database with bulk-load pragmas and backfills
// the price history of stations that have prices but no history yet.
func NewStorageMigrate(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := configureSQLitePragmas(ctx, db, true, migrationCacheSize); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.ExecContext(ctx, "PRAGMA temp_store = memory"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error setting temp store: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	s := &Storage{
		db:    db,
		cache: cache.New(defaultCacheExpirationMinutes*time.Minute, defaultCacheCleanupMinutes*time.Minute),
		log:   logger,
	}

	if err := s.backfillPriceHistory(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error backfilling price history: %w", err)
	}

	return s, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		data BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_stations_latitude_longitude ON stations(latitude, longitude);

	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id TEXT NOT NULL,
		fuel_type TEXT NOT NULL,
		price TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_price_history_station ON price_history(station_id, fuel_type);
	CREATE INDEX IF NOT EXISTS idx_price_history_recorded_at ON price_history(recorded_at);

	CREATE TABLE IF NOT EXISTS search_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		distance REAL NOT NULL,
		search_count INTEGER NOT NULL DEFAULT 1,
		search_time TEXT NOT NULL,
		last_search TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_search_logs_coordinates ON search_logs(latitude, longitude);

	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		rating INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_comments_station ON comments(station_id);
	`

	_, err := db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	if s.cache != nil {
		s.cache.Flush()
	}
	return s.db.Close()
}

// GetAll returns every stored station, ordered by creation. A station that
// cannot be decoded fails the whole call.
func (s *Storage) GetAll(ctx context.Context) ([]*station.Station, error) {
	rows, err := s.stationRows(ctx)
	if err != nil {
		return nil, err
	}

	stations := make([]*station.Station, 0, len(rows))
	for _, row := range rows {
		st, err := decodeStation(row)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, nil
}

func (s *Storage) stationRows(ctx context.Context) ([]stationRow, error) {
	if cached, found := s.cache.Get(allStationsKey); found {
		s.log.Debug("Using cached data", "key", allStationsKey)
		return cached.([]stationRow), nil
	}
	s.log.Debug("Fetching data from database, cached data not found", "key", allStationsKey)

	rows, err := s.db.QueryContext(ctx, "SELECT id, data FROM stations ORDER BY rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("error querying stations: %w", err)
	}
	defer rows.Close()

	var result []stationRow
	for rows.Next() {
		var row stationRow
		if err := rows.Scan(&row.id, &row.data); err != nil {
			return nil, fmt.Errorf("error scanning station: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stations: %w", err)
	}

	s.cache.Set(allStationsKey, result, cache.DefaultExpiration)
	return result, nil
}

// Get returns the station with the given id or ErrStationNotFound.
func (s *Storage) Get(ctx context.Context, id string) (*station.Station, error) {
	row := stationRow{id: id}
	err := s.db.QueryRowContext(ctx, "SELECT data FROM stations WHERE id = ?", id).Scan(&row.data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrStationNotFound, id)
		}
		return nil, fmt.Errorf("error querying station: %w", err)
	}
	return decodeStation(row)
}

// StationsInBox returns the stations whose coordinates fall inside the
// given latitude and longitude ranges, bounds included, ordered by creation.
func (s *Storage) StationsInBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*station.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM stations
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
		ORDER BY rowid ASC
	`, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, fmt.Errorf("error querying stations in box: %w", err)
	}
	defer rows.Close()

	var stations []*station.Station
	for rows.Next() {
		var row stationRow
		if err := rows.Scan(&row.id, &row.data); err != nil {
			return nil, fmt.Errorf("error scanning station: %w", err)
		}
		st, err := decodeStation(row)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stations: %w", err)
	}
	return stations, nil
}

func decodeStation(row stationRow) (*station.Station, error) {
	var st station.Station
	if err := json.Unmarshal(row.data, &st); err != nil {
		return nil, fmt.Errorf("error unmarshaling station %s: %w", row.id, err)
	}
	return &st, nil
}

// Save inserts or replaces st. Every price that differs from the last one
// recorded for the station is appended to the price history in the same
// transaction.
func (s *Storage) Save(ctx context.Context, st *station.Station) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("error marshaling station: %w", err)
	}

	var lat, lng sql.NullFloat64
	if st.Coords != nil {
		lat = sql.NullFloat64{Float64: st.Coords.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: st.Coords.Lng, Valid: true}
	}
	now := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("rollback error", "error", err)
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stations (id, name, latitude, longitude, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, st.ID, st.Name, lat, lng, data, now)
	if err != nil {
		return fmt.Errorf("error saving station: %w", err)
	}

	for fuel, price := range st.PriceSnapshot() {
		if err := recordPriceChange(ctx, tx, st.ID, fuel, price, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	s.cache.Delete(allStationsKey)
	return nil
}

func recordPriceChange(ctx context.Context, tx *sql.Tx, stationID string, fuel station.FuelType, price decimal.Decimal, recordedAt string) error {
	formatted := station.FormatPrice(price)

	var last string
	err := tx.QueryRowContext(ctx, `
		SELECT price FROM price_history
		WHERE station_id = ? AND fuel_type = ?
		ORDER BY id DESC
		LIMIT 1
	`, stationID, string(fuel)).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("error querying last price: %w", err)
	}
	if err == nil && last == formatted {
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO price_history (station_id, fuel_type, price, recorded_at)
		VALUES (?, ?, ?, ?)
	`, stationID, string(fuel), formatted, recordedAt)
	if err != nil {
		return fmt.Errorf("error recording price history: %w", err)
	}
	return nil
}

// PriceHistory returns the recorded price changes of a station, oldest
// first.
func (s *Storage) PriceHistory(ctx context.Context, stationID string) ([]station.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fuel_type, price, recorded_at FROM price_history
		WHERE station_id = ?
		ORDER BY id ASC
	`, stationID)
	if err != nil {
		return nil, fmt.Errorf("error querying price history: %w", err)
	}
	defer rows.Close()

	var history []station.PriceRecord
	for rows.Next() {
		var fuel, price, recordedAt string
		if err := rows.Scan(&fuel, &price, &recordedAt); err != nil {
			return nil, fmt.Errorf("error scanning price history: %w", err)
		}

		p, err := decimal.NewFromString(price)
		if err != nil {
			s.log.Warn("Skipping unparsable historic price", "station", stationID, "price", price)
			continue
		}
		t, err := time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("error parsing date %s: %w", recordedAt, err)
		}

		history = append(history, station.PriceRecord{
			FuelType:   station.FuelType(fuel),
			Price:      p,
			RecordedAt: t,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}
	return history, nil
}

func (s *Storage) backfillPriceHistory(ctx context.Context) error {
	s.log.Debug("Backfilling price_history table")

	stations, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("rollback error", "error", err)
		}
	}()

	backfilled := 0
	for _, st := range stations {
		recordedAt := st.UpdatedAt.UTC().Format(timeLayout)
		for fuel, price := range st.PriceSnapshot() {
			var count int
			err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM price_history WHERE station_id = ? AND fuel_type = ?",
				st.ID, string(fuel)).Scan(&count)
			if err != nil {
				return fmt.Errorf("error checking price history: %w", err)
			}
			if count > 0 {
				continue
			}
			if err := recordPriceChange(ctx, tx, st.ID, fuel, price, recordedAt); err != nil {
				return err
			}
			backfilled++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	s.log.Debug("Backfill completed", "records", backfilled)
	return nil
}

func configureSQLitePragmas(ctx context.Context, db *sql.DB, forMigration bool, cacheSize int) error {
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 10000;"); err != nil {
		return fmt.Errorf("error setting busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("error setting journal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA auto_vacuum = INCREMENTAL;"); err != nil {
		return fmt.Errorf("error setting auto vacuum: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA mmap_size = 0;"); err != nil {
		return fmt.Errorf("error disabling mmap: %w", err)
	}

	syncMode := "NORMAL"
	if forMigration {
		syncMode = "OFF"
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA synchronous = %s;", syncMode)); err != nil {
		return fmt.Errorf("error setting synchronous: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA cache_size = %d;", cacheSize)); err != nil {
		return fmt.Errorf("error setting cache size: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA page_size = %d;", defaultPageSize)); err != nil {
		return fmt.Errorf("error setting page size: %w", err)
	}
	return nil
}
