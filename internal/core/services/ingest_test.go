package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driven/embedding/local"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driven/index/bm25"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driven/index/vector"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/metrics"
	"github.com/avishayil/git-llm-analyzer/internal/postprocessors"
	"github.com/avishayil/git-llm-analyzer/internal/postprocessors/chunker"
)

func newTestIngest(corpus *Corpus, opts ...chunker.Option) *IngestService {
	pipeline := postprocessors.NewPipeline(chunker.New(opts...))
	return NewIngestService(newTestLoader(nil), pipeline, corpus)
}

func TestIngest_AssignsGlobalOrdinals(t *testing.T) {
	lex := &mockLexical{}
	corpus := NewCorpus(lexicalFactory(lex), nil, nil)
	svc := newTestIngest(corpus, chunker.WithChunkSize(16), chunker.WithOverlap(0))

	source := &fakeSource{files: []domain.RawDocument{
		file("a.txt", strings.Repeat("alpha ", 6)),
		file("b.txt", strings.Repeat("bravo ", 6)),
	}}

	report, err := svc.Ingest(context.Background(), source)
	require.NoError(t, err)

	require.Greater(t, len(lex.built), 2)
	for i, c := range lex.built {
		assert.Equal(t, i, c.Ordinal)
	}
	assert.Equal(t, "a.txt", lex.built[0].Path)
	assert.Equal(t, "b.txt", lex.built[len(lex.built)-1].Path)
	assert.Equal(t, len(lex.built), report.Chunks)
}

func TestIngest_Report(t *testing.T) {
	corpus := NewCorpus(lexicalFactory(&mockLexical{}), nil, nil)
	svc := newTestIngest(corpus)

	source := &fakeSource{files: []domain.RawDocument{
		file("README.md", "# Demo"),
		file("main.go", "package main"),
		file("util.go", "package main\nfunc util() {}"),
		file("image.png", "\x89PNG\r\n\x1a\n"),
		file("empty.txt", ""),
	}}

	report, err := svc.Ingest(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/fake", report.Root)
	assert.Equal(t, "fake", report.Name)
	assert.Equal(t, "https://example.com/fake", report.URL)
	assert.Equal(t, []string{"README.md", "main.go", "util.go"}, report.FileNames)
	assert.Equal(t, 3, report.Documents())
	assert.Equal(t, 2, report.KindCounts[domain.KindCode])
	assert.Equal(t, 1, report.KindCounts[domain.KindText])
	assert.Equal(t, map[string]int{
		domain.ReasonUnsupported: 1,
		domain.ReasonEmpty:       1,
	}, report.WarningSummary())
	assert.Equal(t, corpus.Version(), report.CorpusVersion)
	assert.Equal(t, 3, report.Chunks)

	assert.Same(t, report, svc.LastReport())
}

func TestIngest_InvalidChunkerAborts(t *testing.T) {
	corpus := NewCorpus(lexicalFactory(&mockLexical{}), nil, nil)
	svc := newTestIngest(corpus, chunker.WithChunkSize(100), chunker.WithOverlap(100))

	_, err := svc.Ingest(context.Background(), &fakeSource{files: []domain.RawDocument{file("a.go", "package a")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = corpus.Snapshot()
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	assert.Nil(t, svc.LastReport())
}

func TestIngest_BuildFailureKeepsPreviousState(t *testing.T) {
	fail := false
	corpus := NewCorpus(
		func() driven.LexicalIndex {
			if fail {
				return &mockLexical{buildErr: errors.New("disk full")}
			}
			return &mockLexical{}
		},
		nil, nil,
	)
	svc := newTestIngest(corpus)

	first, err := svc.Ingest(context.Background(), &fakeSource{files: []domain.RawDocument{file("a.go", "package a")}})
	require.NoError(t, err)

	fail = true
	_, err = svc.Ingest(context.Background(), &fakeSource{files: []domain.RawDocument{file("b.go", "package b")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build corpus")

	assert.Same(t, first, svc.LastReport())
	assert.Equal(t, first.CorpusVersion, corpus.Version())
}

func TestIngest_Cancelled(t *testing.T) {
	corpus := NewCorpus(lexicalFactory(&mockLexical{}), nil, nil)
	svc := newTestIngest(corpus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Ingest(ctx, &fakeSource{files: []domain.RawDocument{file("a.go", "package a")}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, svc.LastReport())
}

func TestIngest_EndToEndRetrieval(t *testing.T) {
	embedder := local.NewEmbeddingService(local.Config{})
	corpus := NewCorpus(
		func() driven.LexicalIndex { return bm25.New() },
		func() driven.SemanticIndex { return vector.New(embedder) },
		nil,
	)
	svc := newTestIngest(corpus)

	source := &fakeSource{files: []domain.RawDocument{
		file("auth/login.go", "package auth\n\n// Login validates the password and issues a session token.\nfunc Login(user, password string) (string, error) { return issueToken(user) }\n"),
		file("storage/cache.go", "package storage\n\n// Cache keeps recently used blobs in memory with LRU eviction.\ntype Cache struct{}\n"),
		file("README.md", "# Demo\n\nA small service with login and a blob cache.\n"),
	}}

	report, err := svc.Ingest(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Chunks)

	retriever, err := NewRetrieverService(corpus, embedder, domain.DefaultAppSettings().Retrieval, metrics.New())
	require.NoError(t, err)

	result, err := retriever.Retrieve(context.Background(), "how is the session token issued after login", 2)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, domain.RetrievalHybrid, result.Mode)
	assert.Equal(t, "auth/login.go", result.Hits[0].Chunk.Path)
	assert.Equal(t, report.CorpusVersion, result.CorpusVersion)

	lexical, err := retriever.Search(context.Background(), "LRU eviction", 1, domain.RetrievalLexical)
	require.NoError(t, err)
	require.Len(t, lexical.Hits, 1)
	assert.Equal(t, "storage/cache.go", lexical.Hits[0].Chunk.Path)
}
