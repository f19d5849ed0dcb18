// Package feed fetches station listings from the Spanish government fuel
// price service, used to seed the station catalogue.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	ResultOK       = "OK"
	DefaultTimeout = 30 * time.Second
	DefaultURL     = "https://sedeaplicaciones.minetur.gob.es/ServiciosRESTCarburantes/PreciosCarburantes/EstacionesTerrestres"
)

// Client fetches the current station list from the feed.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient returns a client for url, or DefaultURL when url is empty.
func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// FetchStations fetches the latest station list. A response whose
// ResultadoConsulta is not OK is an error.
func (c *Client) FetchStations(ctx context.Context) (*GasStationList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var list GasStationList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("error unmarshaling JSON: %w", err)
	}
	if list.ResultadoConsulta != ResultOK {
		return nil, fmt.Errorf("feed returned non-OK result: %s", list.ResultadoConsulta)
	}

	return &list, nil
}

// ParseLatLong parses a latitude or longitude string (with comma or dot) to float64.
func ParseLatLong(s string) (float64, error) {
	s = strings.Replace(s, ",", ".", 1)
	m, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	return m, nil
}
