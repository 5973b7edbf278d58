// internal/pipeline/prompt-composer/models.go
package promptcomposer

import "compair/internal/common/config"

// Prompt is the system/user pair sent to the generative model.
type Prompt struct {
	Instructions string
	Content      string
}

type Config struct {
	// MaxHistoryMessages keeps only the most recent turns in a follow-up prompt.
	// 0 replays the whole thread.
	MaxHistoryMessages int
}

func DefaultConfig() *Config {
	return &Config{}
}

func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg != nil && cfg.Pipeline.MaxHistoryMessages > 0 {
		c.MaxHistoryMessages = cfg.Pipeline.MaxHistoryMessages
	}
	return c
}
