package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coursechat/internal/api"
	"coursechat/internal/config"
	"coursechat/internal/domain"
	"coursechat/internal/embedding"
	ollamaembed "coursechat/internal/embedding/ollama"
	openaiembed "coursechat/internal/embedding/openai"
	"coursechat/internal/ingest"
	"coursechat/internal/llm"
	"coursechat/internal/llm/anthropic"
	"coursechat/internal/llm/openai"
	memoryrepo "coursechat/internal/repository/memory"
	redisrepo "coursechat/internal/repository/redis"
	"coursechat/internal/service"
	"coursechat/internal/tools"
	"coursechat/internal/vectorstore"
	memorystore "coursechat/internal/vectorstore/memory"
	"coursechat/internal/vectorstore/qdrant"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting course materials assistant")

	ctx := context.Background()

	// Initialize vector store
	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize vector store")
	}
	defer closeStore()

	// Initialize session store
	sessions, closeSessions, err := buildSessions(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session store")
	}
	defer closeSessions()

	// Initialize tools
	toolManager := tools.NewManager()
	toolManager.Register(tools.NewSearchTool(store))
	toolManager.Register(tools.NewOutlineTool(store))

	// Initialize LLM router with providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	if cfg.LLM.Anthropic.APIKey != "" {
		llmRouter.RegisterProvider(anthropic.NewProvider(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model))
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}

	processor, err := ingest.NewProcessor(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize document processor")
	}

	generator := service.NewGenerator(llmRouter, toolManager, cfg.LLM.MaxTokens)
	rag := service.NewRAGService(store, sessions, generator, processor)

	// Index course documents present at startup
	if info, err := os.Stat(cfg.Server.DocsPath); err == nil && info.IsDir() {
		courses, chunks, err := rag.AddCourseFolder(ctx, cfg.Server.DocsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to ingest course documents")
		}
		log.Info().Int("courses", courses).Int("chunks", chunks).Msg("Startup ingestion complete")
	} else {
		log.Warn().Str("path", cfg.Server.DocsPath).Msg("Docs directory not found, skipping startup ingestion")
	}

	// Initialize router
	router := api.NewRouter(cfg, rag, store)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return openaiembed.NewEmbedder(openaiembed.Config{
			BaseURL: cfg.Embedding.BaseURL,
			APIKey:  cfg.Embedding.APIKey,
			Model:   cfg.Embedding.Model,
			Timeout: cfg.Embedding.Timeout,
		})
	case "ollama":
		return ollamaembed.NewEmbedder(cfg.Embedding.Host, cfg.Embedding.Model, cfg.Embedding.Timeout)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (*vectorstore.Store, func(), error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	var backend vectorstore.Backend
	switch cfg.Vector.Backend {
	case "qdrant":
		qb, err := qdrant.NewBackend(cfg.Vector.Addr())
		if err != nil {
			return nil, nil, err
		}
		backend = qb
	case "memory":
		backend = memorystore.NewBackend()
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}

	store, err := vectorstore.NewStore(backend, embedder, vectorstore.Config{
		CatalogCollection: cfg.Vector.CatalogCollection,
		ContentCollection: cfg.Vector.ContentCollection,
		Dimension:         cfg.Vector.Dimension,
		MaxResults:        cfg.Search.MaxResults,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureCollections(ctx); err != nil {
		return nil, nil, err
	}
	return store, func() { backend.Close() }, nil
}

func buildSessions(cfg *config.Config) (domain.SessionStore, func(), error) {
	switch cfg.Session.Backend {
	case "redis":
		client, err := redisrepo.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		sessions, err := redisrepo.NewSessionStore(client, cfg.Session.HistoryWindow, cfg.Session.TTL)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return sessions, func() { client.Close() }, nil
	default:
		sessions, err := memoryrepo.NewSessionStore(cfg.Session.HistoryWindow)
		if err != nil {
			return nil, nil, err
		}
		return sessions, func() {}, nil
	}
}
