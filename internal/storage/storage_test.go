package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/rubiojr/gascrowd/internal/station"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(context.Background(), filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	st := station.NewOperatorStation("Posto Avenida", &geo.Point{Lat: -23.56, Lng: -46.65})
	require.NoError(t, st.UpdatePrice(station.FuelGas, decimal.RequireFromString("5.79")))
	require.NoError(t, st.AddPendingChange(station.NewPendingChange(station.FuelDiesel, decimal.RequireFromString("6.19"))))
	_, err := st.ConfirmPendingChange(0, "ana")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, st))

	got, err := s.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.Name, got.Name)
	assert.Equal(t, *st.Coords, *got.Coords)
	assert.True(t, got.IsVerified)
	assert.Equal(t, st.TrustScore, got.TrustScore)

	gas, ok := got.Price(station.FuelGas)
	require.True(t, ok)
	assert.Equal(t, "5.79", station.FormatPrice(gas))

	require.Len(t, got.PendingChanges, 1)
	assert.Equal(t, 1, got.PendingChanges[0].Votes)
	assert.Equal(t, []string{"ana"}, got.PendingChanges[0].Users)
	assert.True(t, got.PendingChanges[0].Price.Equal(decimal.RequireFromString("6.19")))
}

func TestGetMissingStation(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrStationNotFound)
}

func TestGetAllKeepsInsertionOrderAndSeesSaves(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	first := station.New("b-first", "First", nil)
	second := station.New("a-second", "Second", &geo.Point{Lat: 1, Lng: 2})
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b-first", all[0].ID)
	assert.Nil(t, all[0].Coords)
	assert.Equal(t, "a-second", all[1].ID)

	// served from cache; mutating the result must not leak into it
	all[0].Name = "changed"
	again, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "First", again[0].Name)

	first.Name = "Renamed"
	require.NoError(t, s.Save(ctx, first))
	again, err = s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, "Renamed", again[0].Name)
}

func TestGetAllFailsOnCorruptStation(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.Save(ctx, station.New("good", "Good", nil)))
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO stations (id, name, data, updated_at) VALUES ('bad', 'Bad', 'not json', '2024-01-01 00:00:00')")
	require.NoError(t, err)
	s.cache.Flush()

	_, err = s.GetAll(ctx)
	assert.ErrorContains(t, err, "bad")
}

func TestStationsInBox(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for _, st := range []*station.Station{
		station.New("inside", "Inside", &geo.Point{Lat: 1, Lng: 1}),
		station.New("edge", "Edge", &geo.Point{Lat: 2, Lng: 2}),
		station.New("outside", "Outside", &geo.Point{Lat: 3, Lng: 1}),
		station.New("nowhere", "Nowhere", nil),
	} {
		require.NoError(t, s.Save(ctx, st))
	}

	got, err := s.StationsInBox(ctx, 0, 2, 0, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "inside", got[0].ID)
	assert.Equal(t, "edge", got[1].ID)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	first, err := station.NewComment("st-1", "u1", "Ana", 5, "clean")
	require.NoError(t, err)
	second, err := station.NewComment("st-1", "u2", "", station.NoRating, "slow card reader")
	require.NoError(t, err)
	other, err := station.NewComment("st-2", "u1", "Ana", 1, "")
	require.NoError(t, err)
	for _, c := range []*station.Comment{first, second, other} {
		require.NoError(t, s.AddComment(ctx, c))
	}
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	got, err := s.Comments(ctx, "st-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "slow card reader", got[0].Text)
	assert.Equal(t, station.AnonymousUser, got[0].UserName)
	assert.Equal(t, 5, got[1].Rating)
	assert.WithinDuration(t, first.CreatedAt, got[1].CreatedAt, time.Second)

	none, err := s.Comments(ctx, "st-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPriceHistoryRecordsChangesOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	st := station.New("st-1", "Posto", nil)
	for _, price := range []string{"5.50", "5.50", "5.60", "5.50"} {
		require.NoError(t, st.UpdatePrice(station.FuelGas, decimal.RequireFromString(price)))
		require.NoError(t, s.Save(ctx, st))
	}

	history, err := s.PriceHistory(ctx, "st-1")
	require.NoError(t, err)
	require.Len(t, history, 3)

	var prices []string
	for _, h := range history {
		assert.Equal(t, station.FuelGas, h.FuelType)
		prices = append(prices, station.FormatPrice(h.Price))
	}
	assert.Equal(t, []string{"5.50", "5.60", "5.50"}, prices)

	empty, err := s.PriceHistory(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNewStorageMigrateBackfillsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "migrate.db")

	s, err := NewStorage(ctx, path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	st := station.New("st-1", "Posto", nil)
	require.NoError(t, st.UpdatePrice(station.FuelGas, decimal.RequireFromString("5.10")))
	require.NoError(t, s.Save(ctx, st))
	_, err = s.db.ExecContext(ctx, "DELETE FROM price_history")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	m, err := NewStorageMigrate(ctx, path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer m.Close()

	history, err := m.PriceHistory(ctx, "st-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "5.10", station.FormatPrice(history[0].Price))
}

func TestSearchLogs(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.LogSearchLocation(ctx, 38.7223, -9.1393, 50))
	require.NoError(t, s.LogSearchLocation(ctx, 38.7199, -9.1401, 25))
	require.NoError(t, s.LogSearchLocation(ctx, 41.1579, -8.6291, 50))

	logs, err := s.GetSearchLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, int64(2), logs[0].SearchCount)
	assert.InDelta(t, 38.72, logs[0].Latitude, 1e-9)
	assert.InDelta(t, 25, logs[0].Distance, 1e-9)

	limited, err := s.GetSearchLogs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteOldRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	old := time.Now().UTC().AddDate(0, 0, -90).Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO price_history (station_id, fuel_type, price, recorded_at) VALUES ('st-1', 'gas', '5.00', ?)", old)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO search_logs (latitude, longitude, distance, search_time, last_search) VALUES (1, 1, 10, ?, ?)", old, old)
	require.NoError(t, err)

	st := station.New("st-1", "Posto", nil)
	require.NoError(t, st.UpdatePrice(station.FuelGas, decimal.RequireFromString("5.20")))
	require.NoError(t, s.Save(ctx, st))

	deleted, err := s.DeleteOldRecords(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	history, err := s.PriceHistory(ctx, "st-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "5.20", station.FormatPrice(history[0].Price))

	require.NoError(t, s.VacuumDatabase(ctx))
}

func TestReduceLocationPrecision(t *testing.T) {
	lat, lng := reduceLocationPrecision(38.72231, -9.13934, 2)
	assert.InDelta(t, 38.72, lat, 1e-9)
	assert.InDelta(t, -9.14, lng, 1e-9)
}
