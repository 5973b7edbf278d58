// internal/pipeline/grounding-fetcher/config.go
package groundingfetcher

import (
	"time"

	"compair/internal/common/config"
)

type Config struct {
	OverallTimeout   time.Duration
	ItemTimeout      time.Duration
	ResultCount      int
	MaxSnippets      int
	MaxSnippetLength int
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		OverallTimeout:   8 * time.Second,
		ItemTimeout:      5 * time.Second,
		ResultCount:      5,
		MaxSnippets:      5,
		MaxSnippetLength: 400,
	}
	if cfg == nil {
		return c
	}
	if cfg.Pipeline.GroundingTimeout > 0 {
		c.OverallTimeout = config.GetDuration(cfg.Pipeline.GroundingTimeout)
	}
	if cfg.Pipeline.ItemTimeout > 0 {
		c.ItemTimeout = config.GetDuration(cfg.Pipeline.ItemTimeout)
	}
	if cfg.APIs.Search.Count > 0 {
		c.ResultCount = cfg.APIs.Search.Count
	}
	if cfg.Pipeline.MaxSnippets > 0 {
		c.MaxSnippets = cfg.Pipeline.MaxSnippets
	}
	if cfg.Pipeline.MaxSnippetLength > 0 {
		c.MaxSnippetLength = cfg.Pipeline.MaxSnippetLength
	}
	return c
}
