// internal/pipeline/conversation-memory/config.go
package conversationmemory

import (
	"time"

	"compair/internal/common/config"
)

type Config struct {
	// TTL of a thread after its last update. Zero keeps it until the store drops it.
	TTL time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	if cfg == nil {
		return &Config{}
	}
	return &Config{TTL: config.GetDuration(cfg.Pipeline.ConversationTTL)}
}
