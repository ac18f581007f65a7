package ingest

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/nt-language-lab-api/internal/reference"
)

// Datapoint is one stored embedding as exported to an external vector index.
// Book is the OSIS code, used as the "book" restrict token.
type Datapoint struct {
	ID        string
	Book      string
	Embedding []float32
}

// StreamDatapoints reads every stored embedding from PostgreSQL in canonical
// order and calls fn for each one
func StreamDatapoints(ctx context.Context, db *sqlx.DB, fn func(Datapoint) error) error {
	rows, err := db.QueryxContext(ctx, `
		SELECT verse_id, embedding
		FROM nt_verses
		WHERE embedding IS NOT NULL
		ORDER BY book_order, chapter, verse
	`)
	if err != nil {
		return fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			vec pgvector.Vector
		)
		if err := rows.Scan(&id, &vec); err != nil {
			return fmt.Errorf("scan embedding: %w", err)
		}
		book, _, _, err := reference.ParseVerseID(id)
		if err != nil {
			return fmt.Errorf("stored verse: %w", err)
		}
		if err := fn(Datapoint{ID: id, Book: book.OSIS, Embedding: vec.Slice()}); err != nil {
			return err
		}
	}
	return rows.Err()
}
