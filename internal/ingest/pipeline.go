package ingest

import (
	"context"
	"fmt"

	"github.com/nt-language-lab-api/internal/repository"
)

// DefaultBatchSize is the number of verses embedded per request
const DefaultBatchSize = 64

// VerseEmbedder embeds verse documents, one vector per (spanish, greek) pair
type VerseEmbedder interface {
	EmbedVerses(ctx context.Context, spanish, greek []string) ([][]float32, error)
}

// Progress is called after each stored batch
type Progress func(done, total int)

// Run embeds verses in batches and hands each batch to w. Every embedding
// must share the dimensionality of the first one. It returns the number of
// verses stored before any error.
func Run(ctx context.Context, verses []Verse, embedder VerseEmbedder, w Writer, batchSize int, progress Progress) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	dimensions := 0
	done := 0
	for start := 0; start < len(verses); start += batchSize {
		end := min(start+batchSize, len(verses))
		batch := verses[start:end]

		spanish := make([]string, len(batch))
		greek := make([]string, len(batch))
		for i, v := range batch {
			spanish[i] = v.Spanish
			greek[i] = v.Greek
		}

		embeddings, err := embedder.EmbedVerses(ctx, spanish, greek)
		if err != nil {
			return done, fmt.Errorf("embed %s..%s: %w", batch[0].ID, batch[len(batch)-1].ID, err)
		}
		if len(embeddings) != len(batch) {
			return done, fmt.Errorf("embed %s..%s: got %d embeddings for %d verses",
				batch[0].ID, batch[len(batch)-1].ID, len(embeddings), len(batch))
		}
		for i, e := range embeddings {
			if dimensions == 0 {
				dimensions = len(e)
			}
			if err := repository.CheckDimensions(len(e), dimensions); err != nil {
				return done, fmt.Errorf("embed %s: %w", batch[i].ID, err)
			}
		}

		if err := w.Write(ctx, batch, embeddings); err != nil {
			return done, err
		}
		done += len(batch)
		if progress != nil {
			progress(done, len(verses))
		}
	}
	return done, nil
}
