// Package geocode resolves free-text addresses to coordinates through a
// rate-limited provider, memoizing results for the process lifetime.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fieldtech_backend/internal/geo"
	"fieldtech_backend/platform/config"
	"fieldtech_backend/platform/logger"
)

// Geocoder searches an address. The first result is used.
type Geocoder interface {
	Search(ctx context.Context, address string) ([]geo.Coordinate, error)
}

// NominatimClient implements Geocoder against a Nominatim-compatible search
// endpoint.
type NominatimClient struct {
	baseURL      string
	countryCodes string
	client       *http.Client
	log          *logger.Logger
}

// NewNominatimClient creates a geocoder client from configuration.
func NewNominatimClient(cfg config.GeocoderConfig, log *logger.Logger) *NominatimClient {
	return &NominatimClient{
		baseURL:      cfg.GetGeocoderBaseURL(),
		countryCodes: cfg.GetGeocoderCountryCodes(),
		client:       &http.Client{Timeout: 5 * time.Second},
		log:          log,
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Search queries the provider. Callers are responsible for pacing requests;
// the provider enforces a minimum inter-request interval.
func (c *NominatimClient) Search(ctx context.Context, address string) ([]geo.Coordinate, error) {
	params := url.Values{}
	params.Add("q", address)
	params.Add("format", "json")
	params.Add("limit", "3")
	if c.countryCodes != "" {
		params.Add("countrycodes", c.countryCodes)
	}

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "FieldTechApp/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.GeocodeFailure(address, err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("geocoder upstream error: %d", resp.StatusCode)
		c.log.GeocodeFailure(address, err)
		return nil, err
	}

	var rawResults []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&rawResults); err != nil {
		c.log.GeocodeFailure(address, err)
		return nil, err
	}

	coords := make([]geo.Coordinate, 0, len(rawResults))
	for _, raw := range rawResults {
		lat, latErr := strconv.ParseFloat(raw.Lat, 64)
		lng, lngErr := strconv.ParseFloat(raw.Lon, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		coords = append(coords, geo.Coordinate{Lat: lat, Lng: lng})
	}

	return coords, nil
}
