// ingest
//
// This script loads the unified New Testament verse JSON, embeds every verse
// and stores it in PostgreSQL (pgvector) or a local SQLite file.
//
// Input format (one object per verse):
//   [{"libro": "Mateo", "capitulo": 1, "versiculo": 1, "griego": "...", "espanol": "..."}]
//
// Environment variables:
//   POSTGRES_URI                      - required for -target=postgres
//   SQLITE_PATH                       - database file for -target=sqlite
//   EMBEDDING_PROVIDER, EMBEDDING_*   - embedding model (must match the API)
//
// Usage:
//   go run ./scripts/ingest -input data/nt_verses.json -target sqlite

package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/nt-language-lab-api/internal/ingest"
	"github.com/nt-language-lab-api/pkg/schema/config"
	"github.com/nt-language-lab-api/pkg/schema/db"
	"github.com/nt-language-lab-api/pkg/schema/services"
)

func main() {
	input := flag.String("input", "./data/nt_verses.json", "Unified verse JSON file")
	target := flag.String("target", "sqlite", "Storage target: postgres or sqlite")
	batchSize := flag.Int("batch", ingest.DefaultBatchSize, "Verses per embedding request")
	flag.Parse()

	godotenv.Load()
	cfg := config.GetConfig()
	ctx := context.Background()

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *input, err)
	}
	raws, err := ingest.LoadVerses(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to read verses: %v", err)
	}

	verses, rejected := ingest.Prepare(raws)
	for _, err := range rejected {
		log.Printf("Warning: skipped %v", err)
	}
	log.Printf("Loaded %d verses (%d skipped)", len(verses), len(rejected))

	embeddings, err := services.NewEmbeddingsService(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize embeddings service: %v", err)
	}
	defer embeddings.Close()

	var (
		conn   *sqlx.DB
		writer ingest.Writer
	)
	switch *target {
	case "postgres":
		conn, err = db.OpenPostgres(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		if err := db.EnsureSchema(ctx, conn, db.PostgresSchema(cfg.EmbeddingDimensions)); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
		writer = ingest.NewPostgresWriter(conn, embeddings.ModelID())
	case "sqlite":
		conn, err = db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		if err := db.EnsureSchema(ctx, conn, db.SQLiteSchema); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
		writer = ingest.NewSQLiteWriter(conn, embeddings.ModelID())
	default:
		log.Fatalf("Unknown target %q (want postgres or sqlite)", *target)
	}
	defer conn.Close()

	log.Printf("Embedding with %s into %s...", embeddings.ModelID(), *target)
	n, err := ingest.Run(ctx, verses, embeddings, writer, *batchSize, func(done, total int) {
		if done%500 < *batchSize || done == total {
			log.Printf("  Stored %d/%d verses", done, total)
		}
	})
	if err != nil {
		log.Fatalf("Ingestion stopped after %d verses: %v", n, err)
	}

	log.Printf("Successfully ingested %d verses", n)
}
