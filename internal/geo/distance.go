package geo

import (
	"math"

	"github.com/tkrajina/gpxgo/gpx"
)

const metersPerKm = 1000.0

// Haversine measures the great circle distance in kilometers between a
// point and its projection onto a segment. The projection is computed in
// degree space, which is accurate enough for route segments of a few
// hundred kilometers.
type Haversine struct{}

func (Haversine) PointToSegmentDistance(p, a, b Point) float64 {
	proj := project(p, a, b)
	return gpx.Distance2D(p.Lat, p.Lng, proj.Lat, proj.Lng, true) / metersPerKm
}

// Distance returns the great circle distance in kilometers between a and b.
func (Haversine) Distance(a, b Point) float64 {
	return gpx.Distance2D(a.Lat, a.Lng, b.Lat, b.Lng, true) / metersPerKm
}

// Planar measures Euclidean distance in coordinate units.
type Planar struct{}

func (Planar) PointToSegmentDistance(p, a, b Point) float64 {
	proj := project(p, a, b)
	return math.Hypot(p.Lat-proj.Lat, p.Lng-proj.Lng)
}

// project returns the point of segment ab closest to p. A degenerate
// segment (a == b) projects onto a.
func project(p, a, b Point) Point {
	abLat, abLng := b.Lat-a.Lat, b.Lng-a.Lng
	ab2 := abLat*abLat + abLng*abLng
	if ab2 == 0 {
		return a
	}

	t := ((p.Lat-a.Lat)*abLat + (p.Lng-a.Lng)*abLng) / ab2
	t = math.Max(0, math.Min(1, t))

	return Point{Lat: a.Lat + abLat*t, Lng: a.Lng + abLng*t}
}
