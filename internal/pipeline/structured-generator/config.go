// internal/pipeline/structured-generator/config.go
package structuredgenerator

import (
	"time"

	"compair/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:    60 * time.Second,
		MaxRetries: 2,
	}
	if cfg == nil {
		return c
	}
	if cfg.Pipeline.GenerationTimeout > 0 {
		c.Timeout = config.GetDuration(cfg.Pipeline.GenerationTimeout)
	}
	if cfg.Pipeline.MaxGenerationRetries >= 0 {
		c.MaxRetries = cfg.Pipeline.MaxGenerationRetries
	}
	return c
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func LoadOpenAIConfig(cfg *config.Config) *OpenAIConfig {
	c := &OpenAIConfig{
		Model:       "gpt-4o",
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     60 * time.Second,
	}
	if cfg == nil {
		return c
	}
	c.APIKey = cfg.APIs.OpenAI.APIKey
	c.BaseURL = cfg.APIs.OpenAI.BaseURL
	if cfg.APIs.OpenAI.Model != "" {
		c.Model = cfg.APIs.OpenAI.Model
	}
	if cfg.APIs.OpenAI.Temperature > 0 {
		c.Temperature = cfg.APIs.OpenAI.Temperature
	}
	if cfg.APIs.OpenAI.MaxTokens > 0 {
		c.MaxTokens = cfg.APIs.OpenAI.MaxTokens
	}
	if cfg.APIs.OpenAI.Timeout > 0 {
		c.Timeout = config.GetDuration(cfg.APIs.OpenAI.Timeout)
	}
	return c
}
