package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresSchema returns the DDL for the pgvector verse table
func PostgresSchema(dimensions int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS nt_verses (
			verse_id        TEXT PRIMARY KEY,
			book            TEXT NOT NULL,
			book_order      INTEGER NOT NULL,
			chapter         INTEGER NOT NULL CHECK (chapter > 0),
			verse           INTEGER NOT NULL CHECK (verse > 0),
			greek           TEXT NOT NULL DEFAULT '',
			spanish         TEXT NOT NULL,
			embedding       vector(%d),
			embedding_model TEXT
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS nt_verses_embedding_idx
			ON nt_verses USING hnsw (embedding vector_cosine_ops)`,
	}
}

// SQLiteSchema is the DDL for the local verse table. Embeddings are stored
// as little-endian float32 blobs.
var SQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS nt_verses (
		verse_id        TEXT PRIMARY KEY,
		book            TEXT NOT NULL,
		book_order      INTEGER NOT NULL,
		chapter         INTEGER NOT NULL CHECK (chapter > 0),
		verse           INTEGER NOT NULL CHECK (verse > 0),
		greek           TEXT NOT NULL DEFAULT '',
		spanish         TEXT NOT NULL,
		embedding       BLOB,
		embedding_model TEXT
	)`,
}

// EnsureSchema applies DDL statements in order
func EnsureSchema(ctx context.Context, conn *sqlx.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
