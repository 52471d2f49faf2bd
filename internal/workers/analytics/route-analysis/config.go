// internal/workers/analytics/route-analysis/config.go
package routeanalysis

import "time"

type Config struct {
	Timeout time.Duration

	GeocodeBaseURL string
	GeocodeAPIKey  string
	GeocodeTimeout time.Duration
	// GeocodeCacheTTL of zero keeps coordinates until the cache is flushed.
	GeocodeCacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        60 * time.Second,
		GeocodeTimeout: 10 * time.Second,
	}
}
