// Package cache decorates an embedding service with an in-memory LRU and an
// optional persistent store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
	"github.com/avishayil/git-llm-analyzer/internal/metrics"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultSize is the LRU capacity used when none is given.
const DefaultSize = 1024

// EmbeddingService caches vectors produced by the wrapped service.
type EmbeddingService struct {
	next    driven.EmbeddingService
	memory  *lru.Cache[string, []float32]
	store   driven.EmbeddingStore
	metrics *metrics.Metrics
}

// Option configures the cache.
type Option func(*EmbeddingService)

// WithStore adds a persistent second tier.
func WithStore(store driven.EmbeddingStore) Option {
	return func(s *EmbeddingService) {
		s.store = store
	}
}

// WithMetrics records hits and misses on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *EmbeddingService) {
		s.metrics = m
	}
}

// New wraps next. A size of zero or less uses DefaultSize.
func New(next driven.EmbeddingService, size int, opts ...Option) (*EmbeddingService, error) {
	if size <= 0 {
		size = DefaultSize
	}
	memory, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}

	s := &EmbeddingService{next: next, memory: memory}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Hash returns the cache key for text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Embed returns a cached vector or computes and caches a new one.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Hash(text)
	if vec, ok := s.lookup(ctx, key); ok {
		return vec, nil
	}

	vec, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, key, vec)
	return vec, nil
}

// EmbedBatch serves hits from the cache and sends only misses downstream.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var (
		missing []string
		slots   []int
	)
	for i, t := range texts {
		keys[i] = Hash(t)
		if vec, ok := s.lookup(ctx, keys[i]); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, t)
		slots = append(slots, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := s.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(vecs), len(missing))
	}
	for j, slot := range slots {
		out[slot] = vecs[j]
		s.remember(ctx, keys[slot], vecs[j])
	}
	return out, nil
}

func (s *EmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	if vec, ok := s.memory.Get(key); ok {
		s.count("memory", "hit")
		return vec, true
	}
	s.count("memory", "miss")

	if s.store == nil {
		return nil, false
	}
	vec, ok, err := s.store.Get(ctx, s.next.ModelName(), key)
	if err != nil {
		logger.Warn("embedding store read failed: %v", err)
		return nil, false
	}
	if !ok || len(vec) != s.next.Dimensions() {
		s.count("store", "miss")
		return nil, false
	}
	s.count("store", "hit")
	s.memory.Add(key, vec)
	return vec, true
}

func (s *EmbeddingService) remember(ctx context.Context, key string, vec []float32) {
	s.memory.Add(key, vec)
	if s.store == nil {
		return
	}
	if err := s.store.Put(ctx, s.next.ModelName(), key, vec); err != nil {
		logger.Warn("embedding store write failed: %v", err)
	}
}

func (s *EmbeddingService) count(tier, result string) {
	if s.metrics != nil {
		s.metrics.EmbeddingCache.WithLabelValues(tier, result).Inc()
	}
}

// Len returns the number of vectors held in memory.
func (s *EmbeddingService) Len() int {
	return s.memory.Len()
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the store, then the wrapped service.
func (s *EmbeddingService) Close() error {
	var storeErr error
	if s.store != nil {
		storeErr = s.store.Close()
	}
	if err := s.next.Close(); err != nil {
		return err
	}
	return storeErr
}
