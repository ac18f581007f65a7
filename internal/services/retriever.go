package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nt-language-lab-api/internal/models"
	"github.com/nt-language-lab-api/internal/reference"
	"github.com/nt-language-lab-api/internal/repository"
)

const (
	// DefaultTopK is used when a concept search does not ask for a size
	DefaultTopK = 10

	// MaxQueryLength bounds concept queries, in runes
	MaxQueryLength = 500
)

// QueryEmbedder turns query text into a vector with the model used at ingestion
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Logger is the subset of echo's logger the retriever uses
type Logger interface {
	Warnf(format string, args ...interface{})
}

// Retriever resolves references and concept queries to verse records.
// It is stateless and safe for concurrent use.
type Retriever struct {
	store       repository.VerseStore
	embedder    QueryEmbedder
	defaultTopK int
	logger      Logger
}

// NewRetriever creates a retriever over a read-only verse store
func NewRetriever(store repository.VerseStore, embedder QueryEmbedder, defaultTopK int, logger Logger) *Retriever {
	if defaultTopK <= 0 || defaultTopK > repository.MaxTopK {
		defaultTopK = DefaultTopK
	}
	return &Retriever{
		store:       store,
		embedder:    embedder,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// LookupByReference returns the verse at book chapter:verse.
// Unknown books yield ErrInvalidReference; a known reference absent from the
// corpus yields repository.ErrNotFound.
func (s *Retriever) LookupByReference(ctx context.Context, book string, chapter, verse int) (*models.VerseRecord, error) {
	canonical, err := reference.Normalize(book)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if chapter <= 0 || verse <= 0 {
		return nil, fmt.Errorf("%w: chapter and verse must be positive, got %d:%d", ErrInvalidReference, chapter, verse)
	}

	return s.store.GetByID(ctx, reference.VerseID(canonical, chapter, verse))
}

// SearchByConcept returns up to topK verses ranked by similarity to queryText.
// topK 0 selects the default. An empty result is not an error.
func (s *Retriever) SearchByConcept(ctx context.Context, queryText string, topK int) ([]models.ScoredVerse, error) {
	query := strings.TrimSpace(queryText)
	if query == "" {
		return nil, fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, fmt.Errorf("%w: query longer than %d characters", ErrInvalidQuery, MaxQueryLength)
	}
	if topK == 0 {
		topK = s.defaultTopK
	}
	if err := repository.ValidateTopK(topK); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}

	ranked, err := s.store.QueryBySimilarity(ctx, embedding, topK)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return []models.ScoredVerse{}, nil
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.VerseID
	}
	records, err := s.store.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return s.hydrate(ranked, records), nil
}

// hydrate attaches scores to records in rank order and drops index entries
// with no stored record. A repeated id keeps its first, best-ranked entry.
func (s *Retriever) hydrate(ranked []models.ScoredID, records []models.VerseRecord) []models.ScoredVerse {
	byID := make(map[string]models.VerseRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	results := make([]models.ScoredVerse, 0, len(ranked))
	seen := make(map[string]struct{}, len(ranked))
	var stale []string
	for _, r := range ranked {
		if _, dup := seen[r.VerseID]; dup {
			continue
		}
		seen[r.VerseID] = struct{}{}
		record, ok := byID[r.VerseID]
		if !ok {
			stale = append(stale, r.VerseID)
			continue
		}
		results = append(results, models.ScoredVerse{VerseRecord: record, Score: r.Score})
	}

	if len(stale) > 0 && s.logger != nil {
		s.logger.Warnf("similarity index references %d verse(s) missing from store: %s", len(stale), strings.Join(stale, ", "))
	}
	return results
}
