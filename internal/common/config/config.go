// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	APIs     APIsConfig     `mapstructure:"apis"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address       string `mapstructure:"address"`
	ReadTimeout   int    `mapstructure:"read_timeout"`   // milliseconds
	WriteTimeout  int    `mapstructure:"write_timeout"`  // milliseconds
	SweepInterval int    `mapstructure:"sweep_interval"` // milliseconds, 0 disables the cache sweeper
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig selects the key-value backend shared by the cache and conversation memory.
type StoreConfig struct {
	Backend   string `mapstructure:"backend"` // memory | redis | postgres
	KeyPrefix string `mapstructure:"key_prefix"`
}

const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Search SearchConfig `mapstructure:"search"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
}

type SearchConfig struct {
	Provider          string  `mapstructure:"provider"` // brave | elasticsearch | none
	BaseURL           string  `mapstructure:"base_url"`
	APIKey            string  `mapstructure:"api_key"`
	Count             int     `mapstructure:"count"`
	Timeout           int     `mapstructure:"timeout"` // milliseconds
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Index             string  `mapstructure:"index"`
}

const (
	SearchProviderBrave         = "brave"
	SearchProviderElasticsearch = "elasticsearch"
	SearchProviderNone          = "none"
)

// PipelineConfig holds the comparison pipeline budgets.
type PipelineConfig struct {
	CacheTTL             int    `mapstructure:"cache_ttl"`          // milliseconds
	RequestTimeout       int    `mapstructure:"request_timeout"`    // milliseconds
	GroundingTimeout     int    `mapstructure:"grounding_timeout"`  // milliseconds
	ItemTimeout          int    `mapstructure:"item_timeout"`       // milliseconds
	GenerationTimeout    int    `mapstructure:"generation_timeout"` // milliseconds
	MaxGenerationRetries int    `mapstructure:"max_generation_retries"`
	MaxSnippets          int    `mapstructure:"max_snippets"`
	MaxSnippetLength     int    `mapstructure:"max_snippet_length"`
	MaxHistoryMessages   int    `mapstructure:"max_history_messages"` // 0 replays the whole thread in follow-ups
	ConversationTTL      int    `mapstructure:"conversation_ttl"`     // milliseconds, 0 keeps threads until the store drops them
	InflightPolicy       string `mapstructure:"inflight_policy"`      // wait | race
}

const (
	InflightWait = "wait"
	InflightRace = "race"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
