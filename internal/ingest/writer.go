package ingest

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/nt-language-lab-api/internal/repository/sqlite"
)

// Writer persists a batch of verses together with their embeddings
type Writer interface {
	Write(ctx context.Context, verses []Verse, embeddings [][]float32) error
}

const upsertVerse = `
	INSERT INTO nt_verses (verse_id, book, book_order, chapter, verse, greek, spanish, embedding, embedding_model)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (verse_id) DO UPDATE SET
		book = excluded.book,
		book_order = excluded.book_order,
		chapter = excluded.chapter,
		verse = excluded.verse,
		greek = excluded.greek,
		spanish = excluded.spanish,
		embedding = excluded.embedding,
		embedding_model = excluded.embedding_model
`

// SQLWriter upserts verses into the nt_verses table of PostgreSQL or SQLite
type SQLWriter struct {
	db     *sqlx.DB
	model  string
	encode func([]float32) any
}

// NewPostgresWriter stores embeddings as pgvector values
func NewPostgresWriter(db *sqlx.DB, model string) *SQLWriter {
	return &SQLWriter{db: db, model: model, encode: func(v []float32) any {
		return pgvector.NewVector(v)
	}}
}

// NewSQLiteWriter stores embeddings as float32 blobs
func NewSQLiteWriter(db *sqlx.DB, model string) *SQLWriter {
	return &SQLWriter{db: db, model: model, encode: func(v []float32) any {
		return sqlite.EncodeVector(v)
	}}
}

// Write upserts the batch in a single transaction
func (w *SQLWriter) Write(ctx context.Context, verses []Verse, embeddings [][]float32) error {
	if len(verses) != len(embeddings) {
		return fmt.Errorf("write batch: %d verses, %d embeddings", len(verses), len(embeddings))
	}

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(upsertVerse)
	for i, v := range verses {
		if _, err := tx.ExecContext(ctx, query,
			v.ID, v.Book, v.BookOrder, v.Chapter, v.Verse, v.Greek, v.Spanish,
			w.encode(embeddings[i]), w.model,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
