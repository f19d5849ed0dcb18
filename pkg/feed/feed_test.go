package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `{
  "Fecha": "15/10/2026 10:00:00",
  "ListaEESSPrecio": [
    {
      "IDEESS": "4375",
      "Rótulo": "REPSOL",
      "Dirección": "CALLE MAYOR, 1",
      "Localidad": "MADRID",
      "Latitud": "40,416775",
      "Longitud (WGS84)": "-3,703790",
      "Precio Gasoleo A": "1,459",
      "Precio Gasolina 95 E5": "1,579",
      "Precio Bioetanol": ""
    }
  ],
  "Nota": "",
  "ResultadoConsulta": "OK"
}`

func TestFetchStations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	list, err := NewClient(srv.URL).FetchStations(context.Background())
	require.NoError(t, err)
	require.Len(t, list.ListaEESSPrecio, 1)

	st := list.ListaEESSPrecio[0]
	assert.Equal(t, "4375", st.IDEESS)
	assert.Equal(t, "REPSOL (CALLE MAYOR, 1)", st.DisplayName())
	assert.Equal(t, "1,579", st.PrecioGasolina95E5)
	assert.Empty(t, st.PrecioBioetanol)

	lat, lng, err := st.Coordinates()
	require.NoError(t, err)
	assert.InDelta(t, 40.416775, lat, 1e-9)
	assert.InDelta(t, -3.70379, lng, 1e-9)
}

func TestFetchStationsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"bad json", http.StatusOK, "{"},
		{"non-OK result", http.StatusOK, `{"ListaEESSPrecio": [], "ResultadoConsulta": "ERROR"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).FetchStations(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestParseLatLong(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		hasError bool
	}{
		{"40.4168", 40.4168, false},
		{"40,4168", 40.4168, false},
		{"-3.7038", -3.7038, false},
		{"-3,7038", -3.7038, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, test := range tests {
		result, err := ParseLatLong(test.input)

		if test.hasError {
			assert.Error(t, err, "ParseLatLong(%q)", test.input)
			continue
		}
		require.NoError(t, err, "ParseLatLong(%q)", test.input)
		assert.Equal(t, test.expected, result)
	}
}
