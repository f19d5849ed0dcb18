// Package geo holds the coordinate types shared by stations and routes and
// the distance calculators used to match stations against a route.
package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidPoint = errors.New("invalid point")

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Valid reports whether p is a finite coordinate inside the WGS84 range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Waypoint decodes a route point given either as {"lat": .., "lng": ..} or
// as a [lat, lng] pair.
type Waypoint struct {
	Point
}

func (w *Waypoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidPoint
	}

	switch data[0] {
	case '[':
		var pair []float64
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPoint, err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("%w: expected [lat, lng], got %d values", ErrInvalidPoint, len(pair))
		}
		w.Point = Point{Lat: pair[0], Lng: pair[1]}
	case '{':
		var labeled struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		}
		if err := json.Unmarshal(data, &labeled); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPoint, err)
		}
		if labeled.Lat == nil || labeled.Lng == nil {
			return fmt.Errorf("%w: lat and lng are required", ErrInvalidPoint)
		}
		w.Point = Point{Lat: *labeled.Lat, Lng: *labeled.Lng}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidPoint, string(data))
	}

	if !w.Point.Valid() {
		return fmt.Errorf("%w: %s out of range", ErrInvalidPoint, w.Point)
	}
	return nil
}

// ParseRoute decodes a JSON array of waypoints into canonical points.
func ParseRoute(data []byte) ([]Point, error) {
	var waypoints []Waypoint
	if err := json.Unmarshal(data, &waypoints); err != nil {
		return nil, fmt.Errorf("error parsing route: %w", err)
	}

	points := make([]Point, 0, len(waypoints))
	for _, w := range waypoints {
		points = append(points, w.Point)
	}
	return points, nil
}
