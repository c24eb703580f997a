// Package vector implements the semantic index on a chromem-go in-memory
// collection.
package vector

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.SemanticIndex = (*Index)(nil)

// Defaults for building.
const (
	DefaultConcurrency = 4
	DefaultBatchSize   = 32

	collectionName = "chunks"
)

// ErrZeroVector is returned when the embedding service yields an all-zero vector.
var ErrZeroVector = errors.New("zero embedding vector")

// errNoEmbedding guards the collection: every document is added with its vector.
var errNoEmbedding = errors.New("vector index: documents must carry embeddings")

type snapshot struct {
	collection *chromem.Collection
	ordinals   map[string]int
}

// Index embeds chunks at build time and answers similarity queries.
type Index struct {
	embedder    driven.EmbeddingService
	dimensions  int
	concurrency int
	batchSize   int
	snap        atomic.Pointer[snapshot]
}

// Option configures an Index.
type Option func(*Index)

// WithConcurrency bounds parallel embedding requests.
func WithConcurrency(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithBatchSize sets the number of chunks sent per EmbedBatch call.
func WithBatchSize(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// New creates an empty index. The declared dimensionality is taken from
// the embedding service once, so it stays constant for the index lifetime.
func New(embedder driven.EmbeddingService, opts ...Option) *Index {
	i := &Index{
		embedder:    embedder,
		dimensions:  embedder.Dimensions(),
		concurrency: DefaultConcurrency,
		batchSize:   DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build embeds every chunk and publishes a new collection.
// Any embedding failure, wrong-length vector or zero vector fails the whole
// build and leaves the previous collection in place.
func (i *Index) Build(ctx context.Context, chunks []domain.Chunk) error {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for start := 0; start < len(chunks); start += i.batchSize {
		end := min(start+i.batchSize, len(chunks))
		g.Go(func() error {
			return i.embedRange(gctx, chunks[start:end], vectors[start:end])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, refuseEmbedding)
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	ordinals := make(map[string]int, len(chunks))
	for n, c := range chunks {
		docs[n] = chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Metadata:  map[string]string{"path": c.Path},
			Embedding: vectors[n],
		}
		ordinals[c.ID] = c.Ordinal
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("adding documents: %w", err)
		}
	}

	i.snap.Store(&snapshot{collection: collection, ordinals: ordinals})
	logger.L().Debug("semantic index built",
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", i.dimensions),
		zap.String("model", i.embedder.ModelName()),
	)
	return nil
}

func (i *Index) embedRange(ctx context.Context, chunks []domain.Chunk, out [][]float32) error {
	texts := make([]string, len(chunks))
	for n, c := range chunks {
		texts[n] = c.Content
	}

	vecs, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embedding chunks: got %d vectors for %d chunks", len(vecs), len(chunks))
	}

	for n, v := range vecs {
		if len(v) != i.dimensions {
			return &domain.DimensionMismatchError{Expected: i.dimensions, Got: len(v), ChunkID: chunks[n].ID}
		}
		if isZero(v) {
			return fmt.Errorf("chunk %s: %w", chunks[n].ID, ErrZeroVector)
		}
		out[n] = v
	}
	return nil
}

// Search returns chunks with positive cosine similarity to query, best
// first, ties broken by ordinal.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.IndexHit, error) {
	if len(query) != i.dimensions {
		return nil, &domain.DimensionMismatchError{Expected: i.dimensions, Got: len(query)}
	}
	s := i.snap.Load()
	if s == nil || k <= 0 || isZero(query) {
		return nil, nil
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	// Ask for every document so that ties at the cut are resolved by ordinal
	// rather than by chromem's internal order.
	results, err := s.collection.QueryEmbedding(ctx, query, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	hits := make([]driven.IndexHit, 0, min(k, len(results)))
	for _, r := range results {
		if r.Similarity <= 0 {
			continue
		}
		hits = append(hits, driven.IndexHit{
			ChunkID: r.ID,
			Ordinal: s.ordinals[r.ID],
			Score:   float64(r.Similarity),
		})
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Ordinal < hits[b].Ordinal
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Dimensions returns the declared vector size.
func (i *Index) Dimensions() int {
	return i.dimensions
}

// Len returns the number of indexed chunks.
func (i *Index) Len() int {
	if s := i.snap.Load(); s != nil {
		return s.collection.Count()
	}
	return 0
}

func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
