// internal/workers/access/validate-access/config.go
package validateaccess

import "time"

type Config struct {
	Timeout   time.Duration
	TrialDays int
	CacheTTL  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		TrialDays: 30,
		CacheTTL:  5 * time.Minute,
	}
}
