package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/nt-language-lab-api/internal/models"
	"github.com/nt-language-lab-api/internal/repository"
	"github.com/pgvector/pgvector-go"
)

// Ensure VerseStore implements repository.VerseStore
var _ repository.VerseStore = (*VerseStore)(nil)

// VerseStore implements repository.VerseStore for PostgreSQL with pgvector
type VerseStore struct {
	db         *sqlx.DB
	dimensions int
}

// NewVerseStore creates a new PostgreSQL verse store. dimensions is the
// embedding dimensionality the index was built with; 0 disables the check.
func NewVerseStore(db *sqlx.DB, dimensions int) *VerseStore {
	return &VerseStore{db: db, dimensions: dimensions}
}

// GetByID looks up a single verse by its canonical id
func (r *VerseStore) GetByID(ctx context.Context, id string) (*models.VerseRecord, error) {
	var v models.VerseRecord
	err := r.db.GetContext(ctx, &v, `
		SELECT verse_id, book, chapter, verse, greek, spanish
		FROM nt_verses
		WHERE verse_id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get verse %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, repository.Unavailable("get verse "+id, err)
	}
	return &v, nil
}

// GetManyByIDs looks up verses in one round trip and returns them in input order
func (r *VerseStore) GetManyByIDs(ctx context.Context, ids []string) ([]models.VerseRecord, error) {
	if len(ids) == 0 {
		return []models.VerseRecord{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT verse_id, book, chapter, verse, greek, spanish
		FROM nt_verses
		WHERE verse_id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("build IN query: %w", err)
	}
	query = r.db.Rebind(query)

	var found []models.VerseRecord
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, repository.Unavailable("get verses", err)
	}

	byID := make(map[string]models.VerseRecord, len(found))
	for _, v := range found {
		byID[v.ID] = v
	}

	results := make([]models.VerseRecord, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			results = append(results, v)
		}
	}
	return results, nil
}

// QueryBySimilarity performs cosine similarity search using pgvector
func (r *VerseStore) QueryBySimilarity(ctx context.Context, embedding []float32, topK int) ([]models.ScoredID, error) {
	if err := repository.ValidateTopK(topK); err != nil {
		return nil, err
	}
	if err := repository.CheckDimensions(len(embedding), r.dimensions); err != nil {
		return nil, err
	}
	if err := repository.CheckFinite(embedding); err != nil {
		return nil, err
	}

	vec := pgvector.NewVector(embedding)
	rows, err := r.db.QueryxContext(ctx, `
		SELECT verse_id, 1 - (embedding <=> $1::vector) AS score
		FROM nt_verses
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector, verse_id
		LIMIT $2
	`, vec, topK)
	if err != nil {
		return nil, mapQueryError(err)
	}
	defer rows.Close()

	results := make([]models.ScoredID, 0, topK)
	for rows.Next() {
		var s models.ScoredID
		if err := rows.Scan(&s.VerseID, &s.Score); err != nil {
			return nil, repository.Unavailable("scan similarity result", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapQueryError(err)
	}

	repository.SortScored(results)
	return results, nil
}

// Verify checks that every stored embedding was produced by model with the
// configured dimensionality. A mixed index is reported as a mismatch.
func (r *VerseStore) Verify(ctx context.Context, model string) error {
	var groups []struct {
		Model string `db:"embedding_model"`
		Dims  int    `db:"dims"`
		Count int    `db:"n"`
	}
	err := r.db.SelectContext(ctx, &groups, `
		SELECT COALESCE(embedding_model, '') AS embedding_model,
		       vector_dims(embedding) AS dims,
		       COUNT(*) AS n
		FROM nt_verses
		WHERE embedding IS NOT NULL
		GROUP BY 1, 2
	`)
	if err != nil {
		return repository.Unavailable("verify index", err)
	}

	for _, g := range groups {
		if g.Model != model {
			return fmt.Errorf("%w: %d embeddings from %q, configured %q",
				repository.ErrEmbeddingModelMismatch, g.Count, g.Model, model)
		}
		if err := repository.CheckDimensions(g.Dims, r.dimensions); err != nil {
			return fmt.Errorf("verify index: %w", err)
		}
	}
	if len(groups) > 1 {
		return fmt.Errorf("%w: index holds %d embedding shapes", repository.ErrDimensionMismatch, len(groups))
	}
	return nil
}

// Ping verifies connectivity
func (r *VerseStore) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return repository.Unavailable("ping postgres", err)
	}
	return nil
}

// Count returns the number of stored verses
func (r *VerseStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM nt_verses`); err != nil {
		return 0, repository.Unavailable("count verses", err)
	}
	return n, nil
}

// mapQueryError distinguishes pgvector dimension errors from connectivity failures
func mapQueryError(err error) error {
	if strings.Contains(err.Error(), "different vector dimensions") {
		return fmt.Errorf("vector search verses: %w: %v", repository.ErrDimensionMismatch, err)
	}
	return repository.Unavailable("vector search verses", err)
}
