// internal/pipeline/comparison-orchestrator/config.go
package comparisonorchestrator

import (
	"time"

	"compair/internal/common/config"
)

type Config struct {
	RequestTimeout     time.Duration
	CacheTTL           time.Duration
	InflightPolicy     string
	GenerationAttempts int
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		RequestTimeout:     90 * time.Second,
		CacheTTL:           24 * time.Hour,
		InflightPolicy:     config.InflightWait,
		GenerationAttempts: 3,
	}
	if cfg == nil {
		return c
	}
	if cfg.Pipeline.RequestTimeout > 0 {
		c.RequestTimeout = config.GetDuration(cfg.Pipeline.RequestTimeout)
	}
	if cfg.Pipeline.CacheTTL > 0 {
		c.CacheTTL = config.GetDuration(cfg.Pipeline.CacheTTL)
	}
	if cfg.Pipeline.InflightPolicy != "" {
		c.InflightPolicy = cfg.Pipeline.InflightPolicy
	}
	c.GenerationAttempts = cfg.Pipeline.MaxGenerationRetries + 1
	return c
}
