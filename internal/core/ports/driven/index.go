package driven

import (
	"context"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// LexicalIndex ranks chunks by term statistics (BM25).
// Build replaces the whole index; a partially built index is never visible
// to Search.
type LexicalIndex interface {
	// Build consumes all chunks once and publishes a new index.
	Build(ctx context.Context, chunks []domain.Chunk) error

	// Search returns the top-k chunks for the query, best first, ties broken
	// by chunk ordinal. An empty query or empty index returns no hits.
	Search(ctx context.Context, query string, k int) ([]IndexHit, error)

	// Len returns the number of indexed chunks.
	Len() int
}

// SemanticIndex ranks chunks by embedding similarity.
// Embeddings are computed at build time through the injected EmbeddingService.
type SemanticIndex interface {
	// Build embeds every chunk and publishes a new index.
	// A vector whose length differs from Dimensions fails the whole build
	// with domain.ErrEmbeddingDimensionMismatch.
	Build(ctx context.Context, chunks []domain.Chunk) error

	// Search returns the top-k chunks by similarity to the query vector,
	// ties broken by chunk ordinal. Chunks with no positive similarity are
	// not returned.
	Search(ctx context.Context, query []float32, k int) ([]IndexHit, error)

	// Dimensions returns the declared vector size.
	Dimensions() int

	// Len returns the number of indexed chunks.
	Len() int
}

// IndexHit is one ranked chunk from a single index.
type IndexHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Ordinal is the chunk's corpus ordinal, used for tie-breaks.
	Ordinal int

	// Score is the BM25 score or cosine similarity.
	Score float64
}
