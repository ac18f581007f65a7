package repository

import (
	"context"

	"github.com/nt-language-lab-api/internal/models"
)

// MaxTopK bounds the number of neighbors a similarity query may request
const MaxTopK = 100

// VerseRepository defines exact-key access to stored verses
type VerseRepository interface {
	// GetByID returns the verse with the given canonical id, or ErrNotFound
	GetByID(ctx context.Context, id string) (*models.VerseRecord, error)

	// GetManyByIDs returns the verses for ids in input order, omitting ids that do not exist
	GetManyByIDs(ctx context.Context, ids []string) ([]models.VerseRecord, error)
}

// SimilarityIndex defines nearest-neighbor search over verse embeddings
type SimilarityIndex interface {
	// QueryBySimilarity returns up to topK verse ids by descending cosine similarity.
	// Equal scores are ordered by verse id ascending.
	QueryBySimilarity(ctx context.Context, embedding []float32, topK int) ([]models.ScoredID, error)
}

// VerseStore combines exact-key retrieval and similarity search
type VerseStore interface {
	VerseRepository
	SimilarityIndex
}

// StoreStatus reports on the health of the backing store
type StoreStatus interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type compositeStore struct {
	VerseRepository
	SimilarityIndex
}

// NewVerseStore pairs a record repository with an external similarity index
func NewVerseStore(records VerseRepository, index SimilarityIndex) VerseStore {
	return &compositeStore{VerseRepository: records, SimilarityIndex: index}
}
