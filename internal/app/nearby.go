package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/rubiojr/gascrowd/internal/station"
)

const (
	DefaultNearbyRadius = 5.0
	NearbyLimit         = 100

	kmPerDegree = 111.0
	boxMargin   = 1.1
)

// NearbyStation is a station with its distance, in km, to the search
// center.
type NearbyStation struct {
	Station  *station.Station
	Distance float64
}

// NearbyStations returns up to NearbyLimit stations within radiusKm of
// center, closest first. Candidates come from a bounding box query and are
// then filtered by great circle distance. The search center is counted in
// the search log; failing to log does not fail the search.
func (a *App) NearbyStations(ctx context.Context, center geo.Point, radiusKm float64) ([]NearbyStation, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("%w: %s", geo.ErrInvalidPoint, center)
	}
	if !(radiusKm > 0) || math.IsInf(radiusKm, 0) {
		return nil, errors.New("radius must be a positive number of kilometers")
	}

	if err := a.store.LogSearchLocation(ctx, center.Lat, center.Lng, radiusKm); err != nil {
		a.log.Error("Failed to log search location", "error", err)
	} else {
		a.log.Debug("Search location logged", "latitude", center.Lat, "longitude", center.Lng)
	}

	minLat, maxLat, minLng, maxLng := boundingBox(center, radiusKm)
	candidates, err := a.store.StationsInBox(ctx, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, err
	}

	var calc geo.Haversine
	nearby := []NearbyStation{}
	for _, st := range candidates {
		if st.Coords == nil {
			continue
		}
		d := calc.Distance(center, *st.Coords)
		if d <= radiusKm {
			nearby = append(nearby, NearbyStation{Station: st, Distance: d})
		}
	}

	slices.SortStableFunc(nearby, func(x, y NearbyStation) int {
		return cmp.Compare(x.Distance, y.Distance)
	})
	if len(nearby) > NearbyLimit {
		nearby = nearby[:NearbyLimit]
	}

	a.log.Debug("Nearby search", "candidates", len(candidates), "matches", len(nearby))
	return nearby, nil
}

// boundingBox returns a latitude/longitude box containing every point
// within radiusKm of center. The longitude span widens with latitude and
// covers the whole range near the poles or across the antimeridian.
func boundingBox(center geo.Point, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radiusKm / kmPerDegree * boxMargin
	minLat = max(-90, center.Lat-dLat)
	maxLat = min(90, center.Lat+dLat)

	minLng, maxLng = -180, 180
	if cos := math.Cos(center.Lat * math.Pi / 180); cos > 0.01 {
		dLng := dLat / cos
		if center.Lng-dLng >= -180 && center.Lng+dLng <= 180 {
			minLng, maxLng = center.Lng-dLng, center.Lng+dLng
		}
	}
	return minLat, maxLat, minLng, maxLng
}
