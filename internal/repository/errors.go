package repository

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/nt-language-lab-api/internal/models"
)

var (
	// ErrNotFound means the store is reachable but holds no such verse
	ErrNotFound = errors.New("verse not found")

	// ErrStoreUnavailable means the store or index could not be reached or read
	ErrStoreUnavailable = errors.New("verse store unavailable")

	// ErrDimensionMismatch means a query embedding does not match the index dimensionality
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingModelMismatch means the index was built with a different embedding model
	ErrEmbeddingModelMismatch = errors.New("embedding model mismatch")

	// ErrInvalidEmbedding means a query embedding holds NaN or infinite components
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrInvalidTopK means topK is outside 1..MaxTopK
	ErrInvalidTopK = errors.New("invalid topK")
)

// Unavailable wraps a driver or transport error as ErrStoreUnavailable
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// ValidateTopK rejects values outside 1..MaxTopK
func ValidateTopK(topK int) error {
	if topK <= 0 || topK > MaxTopK {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidTopK, topK, MaxTopK)
	}
	return nil
}

// CheckDimensions aborts a query whose embedding length differs from the index
func CheckDimensions(got, want int) error {
	if want > 0 && got != want {
		return fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, got, want)
	}
	return nil
}

// CheckFinite rejects embeddings with NaN or infinite components
func CheckFinite(embedding []float32) error {
	for i, v := range embedding {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is %v", ErrInvalidEmbedding, i, v)
		}
	}
	return nil
}

// SortScored orders results by descending score, then by verse id ascending
func SortScored(results []models.ScoredID) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].VerseID < results[j].VerseID
	})
}
