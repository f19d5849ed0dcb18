package geo

import (
	"errors"
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"
)

// LoadGPXRoute reads the points of a GPX file. Routes take precedence over
// tracks; all track segments are concatenated in file order.
func LoadGPXRoute(path string) ([]Point, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("error parsing gpx file: %w", err)
	}
	return gpxPoints(g)
}

// ParseGPXRoute is LoadGPXRoute for in-memory documents.
func ParseGPXRoute(data []byte) ([]Point, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing gpx data: %w", err)
	}
	return gpxPoints(g)
}

func gpxPoints(g *gpx.GPX) ([]Point, error) {
	var points []Point
	for _, r := range g.Routes {
		for _, p := range r.Points {
			points = append(points, Point{Lat: p.Latitude, Lng: p.Longitude})
		}
	}
	if len(points) > 0 {
		return points, nil
	}

	for _, t := range g.Tracks {
		for _, s := range t.Segments {
			for _, p := range s.Points {
				points = append(points, Point{Lat: p.Latitude, Lng: p.Longitude})
			}
		}
	}
	if len(points) == 0 {
		return nil, errors.New("gpx document has no route or track points")
	}
	return points, nil
}
