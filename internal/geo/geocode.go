package geo

import (
	"fmt"
	"strconv"

	"github.com/muesli/gominatim"
)

const DefaultNominatimServer = "https://nominatim.openstreetmap.org/"

// Geocoder resolves place names to points using a Nominatim server.
type Geocoder struct {
	server string
}

func NewGeocoder(server string) *Geocoder {
	if server == "" {
		server = DefaultNominatimServer
	}
	return &Geocoder{server: server}
}

// Resolve returns the first match for name.
func (g *Geocoder) Resolve(name string) (Point, string, error) {
	gominatim.SetServer(g.server)
	qry := gominatim.SearchQuery{
		Q: name,
	}

	resp, err := qry.Get()
	if err != nil {
		return Point{}, "", fmt.Errorf("error geocoding %q: %w", name, err)
	}
	if len(resp) == 0 {
		return Point{}, "", fmt.Errorf("no location found for %q", name)
	}

	lat, err := strconv.ParseFloat(resp[0].Lat, 64)
	if err != nil {
		return Point{}, "", fmt.Errorf("error parsing latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(resp[0].Lon, 64)
	if err != nil {
		return Point{}, "", fmt.Errorf("error parsing longitude: %w", err)
	}
	return Point{Lat: lat, Lng: lng}, resp[0].DisplayName, nil
}

// ResolveAll resolves every name in order, failing on the first miss.
func (g *Geocoder) ResolveAll(names []string) ([]Point, error) {
	points := make([]Point, 0, len(names))
	for _, name := range names {
		p, _, err := g.Resolve(name)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
