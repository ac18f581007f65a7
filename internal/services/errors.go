package services

import "errors"

var (
	// ErrInvalidReference means the book name (or chapter/verse number) is not a valid reference
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidQuery means the concept query text or topK is unusable
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbeddingUnavailable means the query could not be embedded
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
