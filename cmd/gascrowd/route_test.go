package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rubiojr/gascrowd/internal/app"
	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/rubiojr/gascrowd/internal/station"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPlaces map[string]geo.Point

func (f fixedPlaces) ResolveAll(names []string) ([]geo.Point, error) {
	var out []geo.Point
	for _, n := range names {
		out = append(out, f[n])
	}
	return out, nil
}

func (f fixedPlaces) Resolve(name string) (geo.Point, string, error) {
	p, ok := f[name]
	if !ok {
		return geo.Point{}, "", fmt.Errorf("no location found for %q", name)
	}
	return p, name + ", Portugal", nil
}

func TestResolveCenter(t *testing.T) {
	places := fixedPlaces{"Lisboa": {Lat: 38.72, Lng: -9.14}}

	p, name, err := resolveCenter("Lisboa", &geo.Point{Lat: 1, Lng: 1}, places)
	require.NoError(t, err)
	assert.Equal(t, places["Lisboa"], p)
	assert.Equal(t, "Lisboa, Portugal", name)

	p, name, err = resolveCenter("", &geo.Point{Lat: 1, Lng: 2}, places)
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Lat: 1, Lng: 2}, p)
	assert.Empty(t, name)

	_, _, err = resolveCenter("", nil, places)
	assert.Error(t, err)
	_, _, err = resolveCenter("Atlantis", nil, places)
	assert.Error(t, err)
}

func TestResolveRoute(t *testing.T) {
	places := fixedPlaces{"Lisboa": {Lat: 38.72, Lng: -9.14}, "Porto": {Lat: 41.16, Lng: -8.63}}

	points, err := resolveRoute(`[[0,0],{"lat":0,"lng":10}]`, "", nil, places)
	require.NoError(t, err)
	assert.Equal(t, []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 10}}, points)

	points, err = resolveRoute("", "", []string{"Lisboa", "Porto"}, places)
	require.NoError(t, err)
	assert.Equal(t, []geo.Point{places["Lisboa"], places["Porto"]}, points)

	gpxPath := filepath.Join(t.TempDir(), "route.gpx")
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <rte><rtept lat="1" lon="2"></rtept><rtept lat="3" lon="4"></rtept></rte>
</gpx>`
	require.NoError(t, os.WriteFile(gpxPath, []byte(doc), 0o600))
	points, err = resolveRoute("", gpxPath, nil, places)
	require.NoError(t, err)
	assert.Equal(t, []geo.Point{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}, points)

	_, err = resolveRoute("", "", nil, places)
	assert.Error(t, err)
	_, err = resolveRoute("[[0,0]]", gpxPath, nil, places)
	assert.Error(t, err)
}

func TestPrintStation(t *testing.T) {
	st := station.New("st-1", "Posto Central", &geo.Point{Lat: 1.5, Lng: 2.5})
	require.NoError(t, st.UpdatePrice(station.FuelGas, decimal.RequireFromString("5.9")))
	require.NoError(t, st.AddPendingChange(station.NewPendingChange(station.FuelDiesel, decimal.RequireFromString("6.10"))))
	st.IsBestValue = true

	var buf bytes.Buffer
	printStation(&buf, 1, st)
	printPendingChanges(&buf, st)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "1. Posto Central [st-1] ★ best value\n"))
	assert.Contains(t, out, "Trust: 5.0  Verified: false")
	assert.Contains(t, out, "gas: 5.90")
	assert.Contains(t, out, "[0] diesel 6.10 (0/3 votes)")

	buf.Reset()
	printNearbyStation(&buf, 2, app.NearbyStation{Station: st, Distance: 1.234})
	assert.True(t, strings.HasPrefix(buf.String(), "2. Posto Central [st-1] 1.23 km\n"))
}

func TestPrintComments(t *testing.T) {
	comments := []station.Comment{
		{UserName: "Ana", Rating: 4, Text: "fast service"},
		{UserName: station.AnonymousUser, Rating: station.NoRating, Text: "closes at 22h"},
	}

	var buf bytes.Buffer
	printComments(&buf, comments, station.AverageRating(comments))
	out := buf.String()

	assert.Contains(t, out, "Rating: 4.0/5 (1 ratings)")
	assert.Contains(t, out, "Ana (4/5)")
	assert.Contains(t, out, "anonymous (no rating)")
	assert.Contains(t, out, "      closes at 22h")
}
