package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"coursechat/internal/config"
	"coursechat/internal/embedding"
	ollamaembed "coursechat/internal/embedding/ollama"
	openaiembed "coursechat/internal/embedding/openai"
	"coursechat/internal/ingest"
	"coursechat/internal/service"
	"coursechat/internal/vectorstore"
	memorystore "coursechat/internal/vectorstore/memory"
	"coursechat/internal/vectorstore/qdrant"
)

func main() {
	var (
		path  = flag.String("path", "", "course document or directory to ingest (defaults to server.docs_path)")
		clear = flag.Bool("clear", false, "drop all indexed data before ingesting")
	)
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fail("Failed to load config: %v", err)
	}

	target := *path
	if target == "" {
		target = cfg.Server.DocsPath
	}

	ctx := context.Background()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		fail("Failed to initialize embedder: %v", err)
	}

	var backend vectorstore.Backend
	switch cfg.Vector.Backend {
	case "qdrant":
		backend, err = qdrant.NewBackend(cfg.Vector.Addr())
		if err != nil {
			fail("Failed to connect to Qdrant: %v", err)
		}
	case "memory":
		backend = memorystore.NewBackend()
	default:
		fail("Unknown vector backend %q", cfg.Vector.Backend)
	}
	defer backend.Close()

	store, err := vectorstore.NewStore(backend, embedder, vectorstore.Config{
		CatalogCollection: cfg.Vector.CatalogCollection,
		ContentCollection: cfg.Vector.ContentCollection,
		Dimension:         cfg.Vector.Dimension,
		MaxResults:        cfg.Search.MaxResults,
	})
	if err != nil {
		fail("Failed to initialize vector store: %v", err)
	}
	if err := store.EnsureCollections(ctx); err != nil {
		fail("Failed to ensure collections: %v", err)
	}

	if *clear {
		fmt.Println("Clearing existing index...")
		if err := store.Clear(ctx); err != nil {
			fail("Failed to clear index: %v", err)
		}
	}

	processor, err := ingest.NewProcessor(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		fail("Failed to initialize processor: %v", err)
	}
	rag := service.NewRAGService(store, nil, nil, processor)

	info, err := os.Stat(target)
	if err != nil {
		fail("Cannot read %s: %v", target, err)
	}

	if info.IsDir() {
		courses, chunks, err := rag.AddCourseFolder(ctx, target)
		if err != nil {
			fail("Ingestion failed: %v", err)
		}
		fmt.Printf("Ingested %d courses (%d chunks) from %s\n", courses, chunks, target)
	} else {
		course, chunks, err := rag.AddCourseFile(ctx, target)
		if err != nil {
			fail("Ingestion failed: %v", err)
		}
		fmt.Printf("Ingested course %q (%d chunks)\n", course.Title, chunks)
	}

	total, err := store.CourseCount(ctx)
	if err == nil {
		fmt.Printf("Index now holds %d courses\n", total)
	}
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

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
