package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/rubiojr/gascrowd/internal/station"
	"github.com/rubiojr/gascrowd/internal/storage"
	"github.com/rubiojr/gascrowd/pkg/feed"
	"github.com/shopspring/decimal"
)

const feedIDPrefix = "ees_"

// StationFetcher is satisfied by *feed.Client.
type StationFetcher interface {
	FetchStations(ctx context.Context) (*feed.GasStationList, error)
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created int
	Updated int
	Skipped int
}

// Import loads the feed's stations as operator stations. Stations already
// imported keep their votes and pending changes and only get their prices
// refreshed. Entries without usable coordinates are skipped. limit caps the
// number of imported entries when positive.
func (a *App) Import(ctx context.Context, fetcher StationFetcher, limit int) (ImportResult, error) {
	var result ImportResult

	list, err := fetcher.FetchStations(ctx)
	if err != nil {
		return result, fmt.Errorf("error fetching feed: %w", err)
	}

	for i := range list.ListaEESSPrecio {
		if limit > 0 && result.Created+result.Updated >= limit {
			break
		}
		entry := &list.ListaEESSPrecio[i]

		lat, lng, err := entry.Coordinates()
		if err != nil || !(geo.Point{Lat: lat, Lng: lng}).Valid() {
			a.log.Debug("Skipping feed entry without coordinates", "ideess", entry.IDEESS)
			result.Skipped++
			continue
		}

		created, err := a.importEntry(ctx, entry, geo.Point{Lat: lat, Lng: lng})
		if err != nil {
			return result, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	a.log.Info("Feed import completed", "created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

func (a *App) importEntry(ctx context.Context, entry *feed.GasStation, coords geo.Point) (bool, error) {
	id := feedIDPrefix + entry.IDEESS

	unlock := a.lockStation(id)
	defer unlock()

	created := false
	st, err := a.store.Get(ctx, id)
	switch {
	case errors.Is(err, storage.ErrStationNotFound):
		st = station.NewOperatorStation(entry.DisplayName(), &coords)
		st.ID = id
		created = true
	case err != nil:
		return false, err
	}

	for fuel, price := range feedPrices(entry) {
		if err := st.UpdatePrice(fuel, price); err != nil {
			return false, err
		}
	}

	if err := a.store.Save(ctx, st); err != nil {
		return false, err
	}
	return created, nil
}

// feedPrices maps the feed's fuel columns onto station fuel kinds, dropping
// empty or unparsable values.
func feedPrices(entry *feed.GasStation) map[station.FuelType]decimal.Decimal {
	columns := map[station.FuelType]string{
		station.FuelGas:     entry.PrecioGasolina95E5,
		station.FuelDiesel:  entry.PrecioGasoleoA,
		station.FuelEthanol: entry.PrecioBioetanol,
	}

	prices := make(map[station.FuelType]decimal.Decimal, len(columns))
	for fuel, raw := range columns {
		if raw == "" {
			continue
		}
		p, err := station.ParsePrice(raw)
		if err != nil {
			continue
		}
		prices[fuel] = p
	}
	return prices
}
