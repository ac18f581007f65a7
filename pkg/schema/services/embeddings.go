package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/nt-language-lab-api/pkg/schema/config"
)

// QueryCache stores query embeddings keyed by model and normalized text.
// Implementations must be safe for concurrent use.
type QueryCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, embedding []float32)
}

// EmbeddingsService handles text embedding operations using a pluggable backend
type EmbeddingsService struct {
	embedder Embedder
	modelID  string
	cache    QueryCache
}

// NewEmbeddingsService builds the embedder selected by cfg.EmbeddingProvider.
// Construct it once at startup and share it; it holds no per-request state.
func NewEmbeddingsService(ctx context.Context, cfg *config.Config) (*EmbeddingsService, error) {
	var embedder Embedder
	switch cfg.EmbeddingProvider {
	case "vertex":
		vertexEmbedder, err := NewVertexEmbedder(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Vertex AI embedder: %w", err)
		}
		embedder = vertexEmbedder
	default:
		embedder = NewCustomEmbedder(cfg)
	}
	return NewEmbeddingsServiceWith(embedder, cfg.EmbeddingModelID()), nil
}

// NewEmbeddingsServiceWith wraps an existing embedder
func NewEmbeddingsServiceWith(embedder Embedder, modelID string) *EmbeddingsService {
	return &EmbeddingsService{embedder: embedder, modelID: modelID}
}

// WithCache enables query-embedding caching
func (s *EmbeddingsService) WithCache(cache QueryCache) *EmbeddingsService {
	s.cache = cache
	return s
}

// ModelID returns the identifier of the embedding model in use
func (s *EmbeddingsService) ModelID() string {
	return s.modelID
}

// EmbedQuery embeds a normalized query for retrieval
func (s *EmbeddingsService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	text := QueryText(query)
	key := s.cacheKey(text)
	if s.cache != nil {
		if embedding, ok := s.cache.Get(ctx, key); ok {
			return embedding, nil
		}
	}

	embedding, err := s.embedder.Embed(ctx, text, TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, embedding)
	}
	return embedding, nil
}

// EmbedVerses embeds verse documents for ingestion, one vector per (spanish, greek) pair
func (s *EmbeddingsService) EmbedVerses(ctx context.Context, spanish, greek []string) ([][]float32, error) {
	if len(spanish) != len(greek) {
		return nil, fmt.Errorf("embed verses: %d spanish texts, %d greek texts", len(spanish), len(greek))
	}
	texts := make([]string, len(spanish))
	for i := range spanish {
		texts[i] = DocumentText(spanish[i], greek[i])
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts, TaskTypeDocument)
	if err != nil {
		return nil, fmt.Errorf("embed verses: %w", err)
	}
	return embeddings, nil
}

// Close releases the underlying embedder client, if any
func (s *EmbeddingsService) Close() error {
	if closer, ok := s.embedder.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (s *EmbeddingsService) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "qemb:" + s.modelID + ":" + hex.EncodeToString(sum[:])
}
