package services

import (
	"context"
	"errors"
	"sync"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLexical implements driven.LexicalIndex for testing.
type mockLexical struct {
	hits      []driven.IndexHit
	buildErr  error
	searchErr error

	mu      sync.Mutex
	built   []domain.Chunk
	lastK   int
	queries []string
}

func (m *mockLexical) Build(_ context.Context, chunks []domain.Chunk) error {
	if m.buildErr != nil {
		return m.buildErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = chunks
	return nil
}

func (m *mockLexical) Search(_ context.Context, query string, k int) ([]driven.IndexHit, error) {
	m.mu.Lock()
	m.lastK = k
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockLexical) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.built)
}

// mockSemantic implements driven.SemanticIndex for testing.
type mockSemantic struct {
	hits      []driven.IndexHit
	buildErr  error
	searchErr error
	dims      int

	mu    sync.Mutex
	built []domain.Chunk
	lastK int
}

func (m *mockSemantic) Build(_ context.Context, chunks []domain.Chunk) error {
	if m.buildErr != nil {
		return m.buildErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = chunks
	return nil
}

func (m *mockSemantic) Search(_ context.Context, _ []float32, k int) ([]driven.IndexHit, error) {
	m.mu.Lock()
	m.lastK = k
	m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockSemantic) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 3
}

func (m *mockSemantic) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.built)
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedding == nil {
		return []float32{1, 0, 0}, nil
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return 3 }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response string
	err      error
	block    bool // wait for ctx to end

	mu       sync.Mutex
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	calls    int
}

func (m *mockLLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.messages = messages
	m.opts = opts
	m.calls++
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

func (m *mockLLMService) userPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.Role == "user" {
			return msg.Content
		}
	}
	return ""
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockRetriever implements driving.Retriever for testing.
type mockRetriever struct {
	result *domain.RetrievalResult
	err    error
	lastK  int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int) (*domain.RetrievalResult, error) {
	return m.Search(ctx, query, k, domain.RetrievalHybrid)
}

func (m *mockRetriever) Search(_ context.Context, query string, k int, _ domain.RetrievalMode) (*domain.RetrievalResult, error) {
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RetrievalResult{Query: query}, nil
	}
	return m.result, nil
}

// staticReports implements ReportProvider.
type staticReports struct {
	report *domain.IngestReport
}

func (s staticReports) LastReport() *domain.IngestReport { return s.report }

// fakeSource implements driven.WatchableSource over an in-memory file list.
type fakeSource struct {
	files    []domain.RawDocument
	warnings []domain.IngestionWarning
	changes  chan domain.RawDocumentChange
	watchErr error
}

func (s *fakeSource) Name() string { return "fake" }
func (s *fakeSource) URL() string  { return "https://example.com/fake" }
func (s *fakeSource) Root() string { return "/tmp/fake" }
func (s *fakeSource) Close() error { return nil }

func (s *fakeSource) Walk(ctx context.Context) (<-chan domain.RawDocument, <-chan domain.IngestionWarning) {
	docs := make(chan domain.RawDocument)
	warnings := make(chan domain.IngestionWarning)
	go func() {
		defer close(docs)
		defer close(warnings)
		for _, w := range s.warnings {
			select {
			case warnings <- w:
			case <-ctx.Done():
				return
			}
		}
		for _, f := range s.files {
			select {
			case docs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return docs, warnings
}

func (s *fakeSource) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	return s.changes, nil
}

func file(path, content string) domain.RawDocument {
	return domain.RawDocument{Path: path, Content: []byte(content), Size: int64(len(content))}
}

// testChunks returns n chunks with ordinals 0..n-1.
func testChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		id := string(rune('a' + i))
		chunks[i] = domain.Chunk{
			ID:         id,
			DocumentID: "doc-" + id,
			Path:       id + ".go",
			Ordinal:    i,
			End:        len("content " + id),
			Content:    "content " + id,
		}
	}
	return chunks
}
