package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Search    SearchConfig    `mapstructure:"search"`
	Session   SessionConfig   `mapstructure:"session"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DocsPath        string        `mapstructure:"docs_path"`
}

type ChunkingConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

type SearchConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

type SessionConfig struct {
	HistoryWindow int           `mapstructure:"history_window"`
	Backend       string        `mapstructure:"backend"` // "memory" or "redis"
	TTL           time.Duration `mapstructure:"ttl"`
}

type VectorConfig struct {
	Backend           string `mapstructure:"backend"` // "qdrant" or "memory"
	Host              string `mapstructure:"host"`
	GRPCPort          int    `mapstructure:"grpc_port"`
	CatalogCollection string `mapstructure:"catalog_collection"`
	ContentCollection string `mapstructure:"content_collection"`
	Dimension         int    `mapstructure:"dimension"`
}

func (c VectorConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

type EmbeddingConfig struct {
	Provider string        `mapstructure:"provider"` // "openai" or "ollama"
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Host     string        `mapstructure:"host"` // ollama host
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	DefaultProvider string          `mapstructure:"default_provider"`
	MaxTokens       int             `mapstructure:"max_tokens"`
	Anthropic       AnthropicConfig `mapstructure:"anthropic"`
	OpenAI          OpenAIConfig    `mapstructure:"openai"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations that would degrade silently at query
// time. A non-positive max_results makes every search return zero hits
// while the service keeps answering without sources, so it must fail
// here rather than at query time.
func (c *Config) Validate() error {
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be a positive integer, got %d", c.Search.MaxResults)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 {
		return fmt.Errorf("chunking.chunk_overlap must not be negative, got %d", c.Chunking.ChunkOverlap)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}
	if c.Session.HistoryWindow <= 0 {
		return fmt.Errorf("session.history_window must be positive, got %d", c.Session.HistoryWindow)
	}
	if c.Vector.Dimension <= 0 {
		return fmt.Errorf("vector.dimension must be positive, got %d", c.Vector.Dimension)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.backend must be \"memory\" or \"redis\", got %q", c.Session.Backend)
	}
	switch c.Vector.Backend {
	case "qdrant", "memory":
	default:
		return fmt.Errorf("vector.backend must be \"qdrant\" or \"memory\", got %q", c.Vector.Backend)
	}
	switch c.LLM.DefaultProvider {
	case "anthropic":
		if c.LLM.Anthropic.APIKey == "" {
			return fmt.Errorf("llm.anthropic.api_key is required when anthropic is the default provider")
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("llm.openai.api_key is required when openai is the default provider")
		}
	default:
		return fmt.Errorf("llm.default_provider must be \"anthropic\" or \"openai\", got %q", c.LLM.DefaultProvider)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.docs_path", "./docs")

	// Chunking
	v.SetDefault("chunking.chunk_size", 800)
	v.SetDefault("chunking.chunk_overlap", 100)

	// Search
	v.SetDefault("search.max_results", 5)

	// Session
	v.SetDefault("session.history_window", 2)
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "24h")

	// Vector store
	v.SetDefault("vector.backend", "qdrant")
	v.SetDefault("vector.host", "localhost")
	v.SetDefault("vector.grpc_port", 6334)
	v.SetDefault("vector.catalog_collection", "course_catalog")
	v.SetDefault("vector.content_collection", "course_content")
	v.SetDefault("vector.dimension", 1536)

	// Embedding
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.host", "http://localhost:11434")
	v.SetDefault("embedding.timeout", "30s")

	// LLM
	v.SetDefault("llm.default_provider", "anthropic")
	v.SetDefault("llm.max_tokens", 800)
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.openai.model", "gpt-4o")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("embedding.api_key", "OPENAI_API_KEY")
	v.BindEnv("embedding.host", "OLLAMA_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("vector.host", "QDRANT_HOST")
}
