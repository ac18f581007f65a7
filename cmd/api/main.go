package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/nt-language-lab-api/internal/cache"
	"github.com/nt-language-lab-api/internal/config"
	"github.com/nt-language-lab-api/internal/handlers"
	"github.com/nt-language-lab-api/internal/llm"
	"github.com/nt-language-lab-api/internal/middleware"
	"github.com/nt-language-lab-api/internal/repository"
	"github.com/nt-language-lab-api/internal/repository/postgres"
	"github.com/nt-language-lab-api/internal/repository/sqlite"
	"github.com/nt-language-lab-api/internal/repository/vertex"
	"github.com/nt-language-lab-api/internal/services"
	schemaconfig "github.com/nt-language-lab-api/pkg/schema/config"
	"github.com/nt-language-lab-api/pkg/schema/db"
	pkgservices "github.com/nt-language-lab-api/pkg/schema/services"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Get configuration
	cfg := config.GetConfig()
	storeCfg := schemaconfig.GetConfig()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	ctx := context.Background()

	// Everything opened below is closed on shutdown, in reverse order
	var closers []io.Closer

	// Embeddings
	embeddingsSvc, err := pkgservices.NewEmbeddingsService(ctx, storeCfg)
	if err != nil {
		log.Fatalf("Failed to initialize embeddings service: %v", err)
	}
	closers = append(closers, embeddingsSvc)

	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		closers = append(closers, client)
		embeddingsSvc.WithCache(cache.NewRedisQueryCache(client, cfg.EmbeddingCacheTTL, e.Logger))
		log.Println("Query embeddings cached in Redis")
	} else {
		lruCache, err := cache.NewLRUQueryCache(cfg.EmbeddingCacheSize)
		if err != nil {
			log.Fatalf("Failed to create query embedding cache: %v", err)
		}
		embeddingsSvc.WithCache(lruCache)
	}

	// Verse store based on configuration
	store, status, storeClosers, err := openStore(ctx, cfg, storeCfg, embeddingsSvc.ModelID())
	closers = append(closers, storeClosers...)
	if err != nil {
		closeAll(closers)
		log.Fatalf("Failed to open %s verse store: %v", cfg.VectorBackend, err)
	}
	log.Printf("Verse store ready (backend=%s, model=%s)", cfg.VectorBackend, embeddingsSvc.ModelID())

	retriever := services.NewRetriever(store, embeddingsSvc, cfg.DefaultTopK, e.Logger)

	// Generation is optional; a nil generator disables comparisons
	var generator handlers.Generator
	if cfg.GenerationEnabled() {
		generator = llm.NewClient(llm.Config{
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
		log.Printf("LLM generation enabled (%s, model=%s)", cfg.LLMBaseURL, cfg.LLMModel)
	} else {
		log.Println("LLM generation disabled")
	}

	// Create API group with prefix
	api := e.Group(cfg.APIPrefix)

	// Register handlers
	healthHandler := handlers.NewHealthHandler(status, cfg.VectorBackend)
	healthHandler.RegisterRoutes(api)

	searchHandler := handlers.NewSearchHandler(retriever)
	searchHandler.RegisterRoutes(api)

	verseHandler := handlers.NewVerseHandler(retriever, generator)
	verseHandler.RegisterRoutes(api)

	// Root health check
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"name":    cfg.APITitle,
			"version": cfg.APIVersion,
			"status":  "running",
		})
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Starting %s v%s on %s", cfg.APITitle, cfg.APIVersion, addr)
		if err := e.Start(addr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	closeAll(closers)

	log.Println("Server stopped")
}

// openStore builds the verse store for cfg.VectorBackend and checks that its
// embeddings came from model
func openStore(ctx context.Context, cfg *config.Config, storeCfg *schemaconfig.Config, model string) (repository.VerseStore, repository.StoreStatus, []io.Closer, error) {
	var closers []io.Closer

	switch cfg.VectorBackend {
	case "sqlite":
		log.Printf("Using SQLite backend (%s, in-memory index)", storeCfg.SQLitePath)
		conn, err := db.OpenSQLite(ctx, storeCfg.SQLitePath)
		if err != nil {
			return nil, nil, closers, err
		}
		closers = append(closers, conn)
		store, err := sqlite.NewVerseStore(ctx, conn, model, storeCfg.EmbeddingDimensions)
		if err != nil {
			return nil, nil, closers, err
		}
		return store, store, closers, nil

	case "vertex", "pgvector":
		conn, err := db.OpenPostgres(ctx, storeCfg)
		if err != nil {
			return nil, nil, closers, err
		}
		closers = append(closers, conn)
		pgStore := postgres.NewVerseStore(conn, storeCfg.EmbeddingDimensions)
		if err := pgStore.Verify(ctx, model); err != nil {
			return nil, nil, closers, err
		}

		if cfg.VectorBackend == "pgvector" {
			log.Println("Using pgvector backend (hnsw)")
			return pgStore, pgStore, closers, nil
		}

		log.Println("Using Vertex AI Vector Search backend")
		index, err := vertex.NewSimilarityIndex(ctx, vertex.Config{
			ProjectID:            cfg.VertexProjectID,
			Location:             cfg.VertexLocation,
			IndexEndpointID:      cfg.VertexIndexEndpointID,
			DeployedIndexID:      cfg.VertexDeployedIndexID,
			PublicEndpointDomain: cfg.VertexPublicEndpointDomain,
			Dimensions:           storeCfg.EmbeddingDimensions,
		})
		if err != nil {
			return nil, nil, closers, err
		}
		closers = append(closers, index)
		return repository.NewVerseStore(pgStore, index), pgStore, closers, nil
	}

	return nil, nil, closers, fmt.Errorf("unknown VECTOR_BACKEND %q", cfg.VectorBackend)
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
}
