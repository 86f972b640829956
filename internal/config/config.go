// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full runtime configuration. Every field maps to an
// environment variable with the COMPTA prefix (COMPTA_ADDR, COMPTA_LOG_LEVEL
// and so on).
type Config struct {
	Addr string `envconfig:"ADDR" default:":8080"`
	// DatabaseURL selects the postgres store when set; empty means the
	// in-memory store.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	// MatchThreshold is the minimum score the auto-matcher commits.
	MatchThreshold float64 `envconfig:"MATCH_THRESHOLD" default:"0.65"`
	// MatchWindowDays caps date-proximity decay in match scoring.
	MatchWindowDays int `envconfig:"MATCH_WINDOW_DAYS" default:"60"`
}

// Load reads the environment into a Config and validates it.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("compta", &c); err != nil {
		return Config{}, err
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("match threshold %v out of range (0, 1]", c.MatchThreshold)
	}
	if c.MatchWindowDays <= 0 {
		return fmt.Errorf("match window days must be positive, got %d", c.MatchWindowDays)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}
