package mcp

import (
	"context"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	result *domain.RetrievalResult
	err    error

	lastQuery string
	lastK     int
	lastMode  domain.RetrievalMode
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int) (*domain.RetrievalResult, error) {
	return m.Search(ctx, query, k, domain.RetrievalHybrid)
}

func (m *mockRetriever) Search(
	_ context.Context,
	query string,
	k int,
	mode domain.RetrievalMode,
) (*domain.RetrievalResult, error) {
	m.lastQuery, m.lastK, m.lastMode = query, k, mode
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RetrievalResult{Query: query, Mode: mode}, nil
	}
	return m.result, nil
}

// mockAnswerer is a mock implementation of driving.Answerer.
type mockAnswerer struct {
	answer *domain.Answer
	err    error

	lastConv *domain.Conversation
}

func (m *mockAnswerer) Ask(_ context.Context, _ string, conv *domain.Conversation) (*domain.Answer, error) {
	m.lastConv = conv
	return m.answer, m.err
}

// mockIngester is a mock implementation of driving.Ingester.
type mockIngester struct {
	report *domain.IngestReport
}

func (m *mockIngester) Ingest(_ context.Context, _ driven.RepositorySource) (*domain.IngestReport, error) {
	return m.report, nil
}

func (m *mockIngester) LastReport() *domain.IngestReport {
	return m.report
}
