// internal/pipeline/fingerprint-cache/config.go
package fingerprintcache

import (
	"time"

	"compair/internal/common/config"
)

const DefaultTTL = 24 * time.Hour

type Config struct {
	TTL time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{TTL: DefaultTTL}
	if cfg != nil && cfg.Pipeline.CacheTTL > 0 {
		c.TTL = config.GetDuration(cfg.Pipeline.CacheTTL)
	}
	return c
}
