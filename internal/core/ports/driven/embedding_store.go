package driven

import "context"

// EmbeddingStore persists embeddings across runs, keyed by model and text hash.
type EmbeddingStore interface {
	// Get returns the stored vector and true, or nil and false on a miss.
	Get(ctx context.Context, model, hash string) ([]float32, bool, error)

	// Put stores a vector, replacing any previous value.
	Put(ctx context.Context, model, hash string, vector []float32) error

	// Close releases resources.
	Close() error
}
