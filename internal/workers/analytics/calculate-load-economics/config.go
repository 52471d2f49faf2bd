// internal/workers/analytics/calculate-load-economics/config.go
package calculateloadeconomics

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
