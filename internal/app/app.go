// Package app owns the application state shared by the command handlers:
// the station store, the route finder and the locks that serialize
// concurrent votes.
package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/rubiojr/gascrowd/internal/route"
	"github.com/rubiojr/gascrowd/internal/station"
	"github.com/rubiojr/gascrowd/internal/storage"
	"github.com/shopspring/decimal"
)

type SortBy string

const (
	SortNone  SortBy = ""
	SortPrice SortBy = "price"
	SortTrust SortBy = "trust"
)

var ErrUnknownSort = errors.New("unknown sort order")

// FindOptions narrows and orders FindStations results.
type FindOptions struct {
	Query          string
	SortBy         SortBy
	RecomputeTrust bool
}

type App struct {
	store  *storage.Storage
	finder *route.Finder
	log    *slog.Logger

	// station id -> *sync.Mutex. Entries live as long as the App; the CLI
	// opens one App per command, so the map stays small.
	stationLocks sync.Map
	collectionMu sync.Mutex
}

func New(ctx context.Context, opts ...Option) (*App, error) {
	cfg := NewConfig(opts...)

	store, err := storage.NewStorageWithCache(ctx, cfg.DBPath, cfg.Logger, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("error initializing storage: %w", err)
	}

	return &App{
		store:  store,
		finder: route.NewFinder(store, cfg.Calculator),
		log:    cfg.Logger,
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) Storage() *storage.Storage {
	return a.store
}

func (a *App) lockStation(id string) func() {
	m, _ := a.stationLocks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateStation registers an operator station, which starts verified and
// fully trusted.
func (a *App) CreateStation(ctx context.Context, name string, coords *geo.Point, prices map[station.FuelType]decimal.Decimal) (*station.Station, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("station name is required")
	}
	if coords != nil && !coords.Valid() {
		return nil, fmt.Errorf("%w: %s", geo.ErrInvalidPoint, coords)
	}

	st := station.NewOperatorStation(name, coords)
	for fuel, price := range prices {
		if err := st.UpdatePrice(fuel, price); err != nil {
			return nil, err
		}
	}

	if err := a.store.Save(ctx, st); err != nil {
		return nil, err
	}
	a.log.Info("Station created", "id", st.ID, "name", st.Name)
	return st, nil
}

// Station returns a station with its price history loaded.
func (a *App) Station(ctx context.Context, id string) (*station.Station, error) {
	st, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.loadHistory(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (a *App) loadHistory(ctx context.Context, st *station.Station) error {
	history, err := a.store.PriceHistory(ctx, st.ID)
	if err != nil {
		return err
	}
	st.History = history
	return nil
}

// SubmitPrice records a price proposal for a station. The raw price is
// validated before anything is stored.
func (a *App) SubmitPrice(ctx context.Context, stationID string, fuel station.FuelType, rawPrice string) (*station.Station, error) {
	price, err := station.ParsePrice(rawPrice)
	if err != nil {
		return nil, err
	}

	unlock := a.lockStation(stationID)
	defer unlock()

	st, err := a.store.Get(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if err := st.AddPendingChange(station.NewPendingChange(fuel, price)); err != nil {
		return nil, err
	}
	if err := a.store.Save(ctx, st); err != nil {
		return nil, err
	}

	a.log.Debug("Price submitted", "station", stationID, "fuel", fuel, "price", station.FormatPrice(price))
	return st, nil
}

// ConfirmPrice records userID's vote on the pending change at index. The
// load, vote and save run under the station's lock, so concurrent votes on
// one station cannot double count or apply a change twice.
func (a *App) ConfirmPrice(ctx context.Context, stationID string, index int, userID string) (bool, *station.Station, error) {
	if strings.TrimSpace(userID) == "" {
		return false, nil, errors.New("user id is required")
	}

	unlock := a.lockStation(stationID)
	defer unlock()

	st, err := a.store.Get(ctx, stationID)
	if err != nil {
		return false, nil, err
	}

	applied, err := st.ConfirmPendingChange(index, userID)
	if err != nil {
		return false, st, err
	}
	if err := a.store.Save(ctx, st); err != nil {
		return false, st, err
	}

	if applied {
		a.log.Info("Price change reached consensus", "station", stationID, "user", userID)
	}
	return applied, st, nil
}

// RecomputeTrust rescores every station from its fundamentals and persists
// the scores that changed.
func (a *App) RecomputeTrust(ctx context.Context) ([]*station.Station, error) {
	a.collectionMu.Lock()
	defer a.collectionMu.Unlock()

	stations, err := a.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	rescored := make([]*station.Station, 0, len(stations))
	for _, st := range stations {
		fresh, err := a.recomputeOne(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		rescored = append(rescored, fresh)
	}
	return rescored, nil
}

func (a *App) recomputeOne(ctx context.Context, id string) (*station.Station, error) {
	unlock := a.lockStation(id)
	defer unlock()

	st, err := a.Station(ctx, id)
	if err != nil {
		return nil, err
	}

	score := station.CalculateTrust(st)
	if score == st.Trust() {
		return st, nil
	}
	a.log.Debug("Trust recomputed", "station", st.ID, "from", st.Trust(), "to", score)
	st.SetTrustScore(score)
	return st, a.store.Save(ctx, st)
}

// BestValue designates the best value station across the whole collection
// and persists the flags that changed.
func (a *App) BestValue(ctx context.Context) (*station.Station, error) {
	a.collectionMu.Lock()
	defer a.collectionMu.Unlock()

	stations, err := a.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	before := make(map[string]bool, len(stations))
	for _, st := range stations {
		before[st.ID] = st.BestValue()
	}

	best := station.CalculateBestValue(stations)

	for _, st := range stations {
		if before[st.ID] == st.BestValue() {
			continue
		}
		if err := a.storeBestValue(ctx, st.ID, st.BestValue()); err != nil {
			return nil, err
		}
	}
	return best, nil
}

// storeBestValue persists the flag on a freshly loaded copy so votes saved
// since the collection was read are kept.
func (a *App) storeBestValue(ctx context.Context, id string, flag bool) error {
	unlock := a.lockStation(id)
	defer unlock()

	st, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	st.SetBestValue(flag)
	return a.store.Save(ctx, st)
}

// FindStations lists stations with the best value flag evaluated over the
// whole collection, optionally filtered by name or id and sorted. Nothing
// is persisted.
func (a *App) FindStations(ctx context.Context, opts FindOptions) ([]*station.Station, error) {
	stations, err := a.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if opts.RecomputeTrust {
		for _, st := range stations {
			if err := a.loadHistory(ctx, st); err != nil {
				return nil, err
			}
			st.SetTrustScore(station.CalculateTrust(st))
		}
	}

	station.CalculateBestValue(stations)

	if opts.Query != "" {
		stations = filterBySearch(stations, opts.Query)
	}

	switch opts.SortBy {
	case SortNone:
	case SortPrice:
		slices.SortStableFunc(stations, compareGasPrice)
	case SortTrust:
		slices.SortStableFunc(stations, func(x, y *station.Station) int {
			return cmp.Compare(y.Trust(), x.Trust())
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSort, opts.SortBy)
	}

	return stations, nil
}

func filterBySearch(stations []*station.Station, query string) []*station.Station {
	term := strings.ToLower(strings.TrimSpace(query))
	var out []*station.Station
	for _, st := range stations {
		if strings.Contains(strings.ToLower(st.Name), term) || strings.HasPrefix(strings.ToLower(st.ID), term) {
			out = append(out, st)
		}
	}
	return out
}

// compareGasPrice orders cheapest first; stations without a gas price go
// last.
func compareGasPrice(x, y *station.Station) int {
	px, okx := x.Price(station.FuelGas)
	py, oky := y.Price(station.FuelGas)
	switch {
	case okx && oky:
		return px.Cmp(py)
	case okx:
		return -1
	case oky:
		return 1
	}
	return 0
}

// RouteStations returns the stations within maxDistance of the route. The
// route start is counted in the search log; failing to log does not fail
// the search.
func (a *App) RouteStations(ctx context.Context, points []geo.Point, maxDistance float64) ([]*station.Station, error) {
	if len(points) > 0 {
		start := points[0]
		if err := a.store.LogSearchLocation(ctx, start.Lat, start.Lng, maxDistance); err != nil {
			a.log.Error("Failed to log search location", "error", err)
		} else {
			a.log.Debug("Search location logged", "latitude", start.Lat, "longitude", start.Lng)
		}
	}

	return a.finder.Execute(ctx, points, maxDistance)
}
