// internal/workers/analytics/fleet-summary/config.go
package fleetsummary

import "time"

type Config struct {
	Timeout  time.Duration
	PageSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		PageSize: 10,
	}
}
