package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishayil/git-llm-analyzer/internal/metrics"
)

type countingEmbedder struct {
	mu      sync.Mutex
	calls   []string
	batches [][]string
	err     error
	closed  bool
}

func (c *countingEmbedder) vector(text string) []float32 {
	return []float32{float32(len(text)), 1}
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.calls = append(c.calls, text)
	return c.vector(text), nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.batches = append(c.batches, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = c.vector(t)
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int            { return 2 }
func (c *countingEmbedder) ModelName() string          { return "counting" }
func (c *countingEmbedder) Ping(context.Context) error { return nil }
func (c *countingEmbedder) Close() error {
	c.closed = true
	return nil
}

type mapStore struct {
	mu     sync.Mutex
	data   map[string][]float32
	closed bool
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]float32)}
}

func (m *mapStore) Get(_ context.Context, model, hash string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[model+"/"+hash]
	return v, ok, nil
}

func (m *mapStore) Put(_ context.Context, model, hash string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[model+"/"+hash] = vector
	return nil
}

func (m *mapStore) Close() error {
	m.closed = true
	return nil
}

func TestHash(t *testing.T) {
	assert.Len(t, Hash("x"), 64)
	assert.Equal(t, Hash("x"), Hash("x"))
	assert.NotEqual(t, Hash("x"), Hash("y"))
}

func TestEmbed_MemoryHit(t *testing.T) {
	inner := &countingEmbedder{}
	m := metrics.New()
	c, err := New(inner, 8, WithMetrics(m))
	require.NoError(t, err)

	v1, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	v2, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, []string{"hello"}, inner.calls)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingCache.WithLabelValues("memory", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingCache.WithLabelValues("memory", "miss")))
}

func TestEmbed_Eviction(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := New(inner, 1)
	require.NoError(t, err)

	_, _ = c.Embed(context.Background(), "a")
	_, _ = c.Embed(context.Background(), "b")
	_, _ = c.Embed(context.Background(), "a")

	assert.Equal(t, []string{"a", "b", "a"}, inner.calls)
}

func TestEmbed_ErrorNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("down")}
	c, err := New(inner, 0)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "x")
	assert.EqualError(t, err, "down")
	assert.Equal(t, 0, c.Len())
}

func TestEmbed_StoreTier(t *testing.T) {
	store := newMapStore()
	inner := &countingEmbedder{}
	m := metrics.New()

	first, err := New(inner, 8, WithStore(store))
	require.NoError(t, err)
	_, err = first.Embed(context.Background(), "persist me")
	require.NoError(t, err)
	assert.Len(t, store.data, 1)

	// A fresh cache with an empty LRU finds the vector in the store.
	second, err := New(inner, 8, WithStore(store), WithMetrics(m))
	require.NoError(t, err)
	v, err := second.Embed(context.Background(), "persist me")
	require.NoError(t, err)
	assert.Equal(t, []float32{10, 1}, v)
	assert.Len(t, inner.calls, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingCache.WithLabelValues("store", "hit")))
}

func TestEmbed_StoreWrongDimensionsIgnored(t *testing.T) {
	store := newMapStore()
	store.data["counting/"+Hash("x")] = []float32{1, 2, 3}
	inner := &countingEmbedder{}

	c, err := New(inner, 8, WithStore(store))
	require.NoError(t, err)
	v, err := c.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1}, v)
	assert.Equal(t, []string{"x"}, inner.calls)
}

func TestEmbedBatch_OnlyMissesGoDownstream(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := New(inner, 8)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "b")
	require.NoError(t, err)

	out, err := c.EmbedBatch(context.Background(), []string{"a", "b", "ccc"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []float32{1, 1}, out[0])
	assert.Equal(t, []float32{1, 1}, out[1])
	assert.Equal(t, []float32{3, 1}, out[2])
	assert.Equal(t, [][]string{{"a", "ccc"}}, inner.batches)

	_, err = c.EmbedBatch(context.Background(), []string{"a", "ccc"})
	require.NoError(t, err)
	assert.Len(t, inner.batches, 1)
}

func TestEmbedBatch_Error(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("boom")}
	c, err := New(inner, 8)
	require.NoError(t, err)

	_, err = c.EmbedBatch(context.Background(), []string{"a"})
	assert.EqualError(t, err, "boom")
}

func TestDelegation(t *testing.T) {
	store := newMapStore()
	inner := &countingEmbedder{}
	c, err := New(inner, 8, WithStore(store))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Dimensions())
	assert.Equal(t, "counting", c.ModelName())
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
	assert.True(t, inner.closed)
	assert.True(t, store.closed)
}
