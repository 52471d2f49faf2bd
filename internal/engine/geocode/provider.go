// internal/engine/geocode/provider.go
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	commonhttp "load-analytics-engine/internal/common/http"
)

// Provider resolves a place string to coordinates. Implementations may fail;
// callers treat failure as "coordinates unavailable", never as fatal.
type Provider interface {
	Geocode(ctx context.Context, place string) (Coordinates, error)
}

// ErrNoResults reports that the provider answered but found nothing for the
// place string.
var ErrNoResults = errors.New("geocode: no results")

// HTTPProvider calls an OpenRouteService-compatible /geocode/search endpoint.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *commonhttp.Client
}

type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPProvider(cfg ProviderConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  commonhttp.NewClient(timeout),
	}
}

type searchResponse struct {
	Features []struct {
		Geometry struct {
			// GeoJSON order: [lon, lat]
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (p *HTTPProvider) Geocode(ctx context.Context, place string) (Coordinates, error) {
	endpoint := p.baseURL + "/geocode/search"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("build geocode request: %w", err)
	}

	q := url.Values{}
	q.Set("text", place)
	q.Set("boundary.country", "US")
	q.Set("size", "1")
	req.URL.RawQuery = q.Encode()
	if p.apiKey != "" {
		req.Header.Set("Authorization", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("execute geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(decoded.Features) == 0 {
		return Coordinates{}, ErrNoResults
	}
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return Coordinates{}, fmt.Errorf("geocode: invalid coordinate format for %q", place)
	}

	return Coordinates{Lat: coords[1], Lng: coords[0]}, nil
}
