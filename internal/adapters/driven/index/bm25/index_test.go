package bm25

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

func chunks(contents ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		out[i] = domain.Chunk{
			ID:      fmt.Sprintf("c%d", i),
			Path:    fmt.Sprintf("f%d.go", i),
			Ordinal: i,
			Content: c,
		}
	}
	return out
}

func TestIndex_EmptyBeforeBuild(t *testing.T) {
	idx := New()
	assert.Equal(t, 0, idx.Len())

	hits, err := idx.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_SearchRanksByRelevance(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks(
		"the loader reads files from the repository",
		"the chunker splits text into chunks with overlap",
		"chunker chunker chunker",
		"unrelated content about weather",
	)))
	assert.Equal(t, 4, idx.Len())

	hits, err := idx.Search(context.Background(), "chunker", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c2", hits[0].ChunkID)
	assert.Equal(t, "c1", hits[1].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestIndex_ZeroScoresExcluded(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks("alpha beta", "gamma delta")))

	hits, err := idx.Search(context.Background(), "alpha", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c0", hits[0].ChunkID)

	hits, err = idx.Search(context.Background(), "omega", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_TiesBrokenByOrdinal(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks(
		"other words here",
		"shared term",
		"shared term",
		"shared term",
	)))

	hits, err := idx.Search(context.Background(), "shared", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{hits[0].Ordinal, hits[1].Ordinal, hits[2].Ordinal})
	assert.Equal(t, hits[0].Score, hits[2].Score)
}

func TestIndex_CutsToK(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks("x term", "y term", "z term")))

	hits, err := idx.Search(context.Background(), "term", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = idx.Search(context.Background(), "term", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_EmptyQuery(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks("some text")))

	for _, q := range []string{"", "   ", "123 456", "<b></b>"} {
		hits, err := idx.Search(context.Background(), q, 5)
		require.NoError(t, err, q)
		assert.Empty(t, hits, q)
	}
}

func TestIndex_IdentifierParts(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks(
		"func parseConfig(path string) error",
		"the weather is nice",
	)))

	hits, err := idx.Search(context.Background(), "config", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c0", hits[0].ChunkID)
}

func TestIndex_RebuildIsIdempotent(t *testing.T) {
	corpus := chunks("load the repo", "split the repo text", "index repo chunks", "nothing")
	idx := New()

	require.NoError(t, idx.Build(context.Background(), corpus))
	first, err := idx.Search(context.Background(), "repo text", 10)
	require.NoError(t, err)

	require.NoError(t, idx.Build(context.Background(), corpus))
	second, err := idx.Search(context.Background(), "repo text", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestIndex_RebuildReplaces(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks("old content")))
	require.NoError(t, idx.Build(context.Background(), chunks("new content", "more new")))

	assert.Equal(t, 2, idx.Len())
	hits, err := idx.Search(context.Background(), "old", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_BuildEmpty(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), nil))
	assert.Equal(t, 0, idx.Len())

	hits, err := idx.Search(context.Background(), "x", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_BuildCancelled(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks("kept")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := idx.Build(ctx, chunks("dropped"))
	require.ErrorIs(t, err, context.Canceled)

	// Previous snapshot stays visible.
	hits, err := idx.Search(context.Background(), "kept", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndex_RepeatedQueryTermsCountOnce(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks("alpha beta", "gamma")))

	once, err := idx.Search(context.Background(), "alpha", 1)
	require.NoError(t, err)
	twice, err := idx.Search(context.Background(), "alpha alpha ALPHA", 1)
	require.NoError(t, err)

	require.Len(t, once, 1)
	assert.Equal(t, once, twice)
}

func TestIndex_QuerySyntaxIsLiteral(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks(
		"return a parse error to the caller",
		"not a match here",
	)))

	for _, q := range []string{`"parse`, `parse*`, `parse AND (error`, `NEAR(parse error)`, `-parse ^error`, `parse:error`} {
		hits, err := idx.Search(context.Background(), q, 5)
		require.NoError(t, err, q)
		require.NotEmpty(t, hits, q)
		assert.Equal(t, "c0", hits[0].ChunkID, q)
	}
}

func TestIndex_SnakeCaseKeptWhole(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks(
		"max_chunk_size = 1000",
		"the max size of a chunk",
	)))

	hits, err := idx.Search(context.Background(), "max_chunk_size", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c0", hits[0].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestIndex_Close(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks("term")))
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	assert.Equal(t, 0, idx.Len())
	_, err := idx.Search(context.Background(), "term", 5)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, idx.Build(context.Background(), chunks("again")), ErrClosed)
}

func TestIndex_ConcurrentSearchDuringBuild(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(context.Background(), chunks("term a", "term b")))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := idx.Search(context.Background(), "term", 5)
				assert.NoError(t, err)
			}
		}()
	}
	for j := 0; j < 20; j++ {
		require.NoError(t, idx.Build(context.Background(), chunks("term c", "term d", "term e")))
	}
	wg.Wait()
}
