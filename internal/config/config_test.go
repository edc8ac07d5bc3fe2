package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{ChunkSize: 800, ChunkOverlap: 100},
		Search:   SearchConfig{MaxResults: 5},
		Session:  SessionConfig{HistoryWindow: 2, Backend: "memory"},
		Vector:   VectorConfig{Backend: "memory", Dimension: 1536},
		LLM: LLMConfig{
			DefaultProvider: "anthropic",
			MaxTokens:       800,
			Anthropic:       AnthropicConfig{APIKey: "test-key"},
		},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("zero max results rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Search.MaxResults = 0

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search.max_results")
	})

	t.Run("negative max results rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Search.MaxResults = -3

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search.max_results")
	})

	t.Run("overlap must be smaller than chunk size", func(t *testing.T) {
		cfg := validConfig()
		cfg.Chunking.ChunkOverlap = 800

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chunk_overlap")
	})

	t.Run("non-positive history window rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Session.HistoryWindow = 0

		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown session backend rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Session.Backend = "dynamo"

		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown vector backend rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Vector.Backend = "pinecone"

		assert.Error(t, cfg.Validate())
	})

	t.Run("default provider requires key", func(t *testing.T) {
		cfg := validConfig()
		cfg.LLM.Anthropic.APIKey = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "anthropic")
	})

	t.Run("openai default provider requires openai key", func(t *testing.T) {
		cfg := validConfig()
		cfg.LLM.DefaultProvider = "openai"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "openai")
	})
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "testdata/missing.yaml")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, 100, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 2, cfg.Session.HistoryWindow)
	assert.Equal(t, "course_catalog", cfg.Vector.CatalogCollection)
	assert.Equal(t, "course_content", cfg.Vector.ContentCollection)
	assert.Equal(t, "anthropic", cfg.LLM.DefaultProvider)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, "test-key", cfg.LLM.Anthropic.APIKey)
}
