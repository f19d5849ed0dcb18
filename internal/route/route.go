// Package route finds the stations lying close to a planned route.
package route

import (
	"context"
	"fmt"

	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/rubiojr/gascrowd/internal/station"
)

// DefaultMaxDistance is the default match distance, in the unit of the
// distance calculator (kilometers for geo.Haversine).
const DefaultMaxDistance = 50.0

// Repository supplies the full station collection.
type Repository interface {
	GetAll(ctx context.Context) ([]*station.Station, error)
}

// DistanceCalculator measures the distance from a point to a segment.
type DistanceCalculator interface {
	PointToSegmentDistance(p, a, b geo.Point) float64
}

type Finder struct {
	repo Repository
	calc DistanceCalculator
}

func NewFinder(repo Repository, calc DistanceCalculator) *Finder {
	return &Finder{repo: repo, calc: calc}
}

// Execute returns the stations within maxDistance of any segment of the
// route, in repository order. A route needs at least two points to have a
// segment; shorter routes match nothing. Stations without coordinates
// never match.
func (f *Finder) Execute(ctx context.Context, points []geo.Point, maxDistance float64) ([]*station.Station, error) {
	stations, err := f.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching stations: %w", err)
	}

	matches := []*station.Station{}
	for _, s := range stations {
		if f.nearRoute(s, points, maxDistance) {
			matches = append(matches, s)
		}
	}
	return matches, nil
}

func (f *Finder) nearRoute(s *station.Station, points []geo.Point, maxDistance float64) bool {
	if s.Coords == nil {
		return false
	}

	for i := 0; i+1 < len(points); i++ {
		if f.calc.PointToSegmentDistance(*s.Coords, points[i], points[i+1]) <= maxDistance {
			return true
		}
	}
	return false
}
