package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/nt-language-lab-api/internal/models"
	"github.com/nt-language-lab-api/internal/repository"
	"github.com/viant/vec/search"
)

// Ensure VerseStore implements repository.VerseStore
var _ repository.VerseStore = (*VerseStore)(nil)

// VerseStore implements repository.VerseStore on a local SQLite file.
// Embeddings are loaded once into an in-memory brute-force cosine index;
// the store is read-only after construction.
type VerseStore struct {
	db         *sqlx.DB
	ids        []string
	vectors    [][]float32
	magnitudes []float32
	dimensions int
}

// NewVerseStore loads the embedding index from db. Every stored embedding must
// come from model and share one dimensionality (dimensions, when > 0).
func NewVerseStore(ctx context.Context, db *sqlx.DB, model string, dimensions int) (*VerseStore, error) {
	s := &VerseStore{db: db, dimensions: dimensions}
	if err := s.load(ctx, model); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *VerseStore) load(ctx context.Context, model string) error {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT verse_id, embedding, COALESCE(embedding_model, '')
		FROM nt_verses
		WHERE embedding IS NOT NULL
		ORDER BY verse_id
	`)
	if err != nil {
		return repository.Unavailable("load embedding index", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, rowModel string
			blob         []byte
		)
		if err := rows.Scan(&id, &blob, &rowModel); err != nil {
			return repository.Unavailable("scan embedding", err)
		}
		if rowModel != model {
			return fmt.Errorf("%w: %s embedded with %q, configured %q",
				repository.ErrEmbeddingModelMismatch, id, rowModel, model)
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return fmt.Errorf("%w: decode %s: %v", repository.ErrStoreUnavailable, id, err)
		}
		if s.dimensions == 0 {
			s.dimensions = len(vec)
		}
		if len(vec) != s.dimensions {
			return fmt.Errorf("%w: %s has %d dimensions, index has %d",
				repository.ErrDimensionMismatch, id, len(vec), s.dimensions)
		}
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, vec)
		s.magnitudes = append(s.magnitudes, search.Float32s(vec).Magnitude())
	}
	if err := rows.Err(); err != nil {
		return repository.Unavailable("iterate embeddings", err)
	}
	return nil
}

// GetByID looks up a single verse by its canonical id
func (s *VerseStore) GetByID(ctx context.Context, id string) (*models.VerseRecord, error) {
	var v models.VerseRecord
	err := s.db.GetContext(ctx, &v, `
		SELECT verse_id, book, chapter, verse, greek, spanish
		FROM nt_verses
		WHERE verse_id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get verse %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, repository.Unavailable("get verse "+id, err)
	}
	return &v, nil
}

// GetManyByIDs returns verses in input order, omitting unknown ids
func (s *VerseStore) GetManyByIDs(ctx context.Context, ids []string) ([]models.VerseRecord, error) {
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

	var found []models.VerseRecord
	if err := s.db.SelectContext(ctx, &found, s.db.Rebind(query), args...); err != nil {
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

// QueryBySimilarity scans the in-memory index by cosine similarity
func (s *VerseStore) QueryBySimilarity(ctx context.Context, embedding []float32, topK int) ([]models.ScoredID, error) {
	if err := repository.ValidateTopK(topK); err != nil {
		return nil, err
	}
	if len(s.ids) == 0 {
		return []models.ScoredID{}, nil
	}
	if err := repository.CheckDimensions(len(embedding), s.dimensions); err != nil {
		return nil, err
	}
	if err := repository.CheckFinite(embedding); err != nil {
		return nil, err
	}

	query := search.Float32s(embedding)
	qm := query.Magnitude()
	if qm == 0 {
		return []models.ScoredID{}, nil
	}

	scored := make([]models.ScoredID, 0, len(s.ids))
	for i, vec := range s.vectors {
		if s.magnitudes[i] == 0 {
			continue
		}
		scored = append(scored, models.ScoredID{VerseID: s.ids[i], Score: cosineSimilarity(query, vec, qm, s.magnitudes[i])})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repository.SortScored(scored)
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// cosineSimilarity scores two vectors using precomputed magnitudes
func cosineSimilarity(a, b search.Float32s, magA, magB float32) float64 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return float64(dot / (magA * magB))
}

// Dimensions reports the index dimensionality (0 for an empty index)
func (s *VerseStore) Dimensions() int {
	return s.dimensions
}

// Ping verifies the database file is readable
func (s *VerseStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return repository.Unavailable("ping sqlite", err)
	}
	return nil
}

// Count returns the number of stored verses
func (s *VerseStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM nt_verses`); err != nil {
		return 0, repository.Unavailable("count verses", err)
	}
	return n, nil
}
