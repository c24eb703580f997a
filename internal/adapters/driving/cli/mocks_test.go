package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driven/storage/memory"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
	"github.com/avishayil/git-llm-analyzer/internal/core/services"
)

// fakeSource implements driven.RepositorySource.
type fakeSource struct {
	closed bool
}

func (f *fakeSource) Name() string { return "demo-repo" }
func (f *fakeSource) URL() string  { return "https://example.com/demo-repo" }
func (f *fakeSource) Root() string { return "/tmp/demo-repo" }
func (f *fakeSource) Close() error { f.closed = true; return nil }

func (f *fakeSource) Walk(_ context.Context) (<-chan domain.RawDocument, <-chan domain.IngestionWarning) {
	docs := make(chan domain.RawDocument)
	warns := make(chan domain.IngestionWarning)
	close(docs)
	close(warns)
	return docs, warns
}

// mockIngester implements driving.Ingester.
type mockIngester struct {
	report *domain.IngestReport
	err    error
}

func (m *mockIngester) Ingest(_ context.Context, _ driven.RepositorySource) (*domain.IngestReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockIngester) LastReport() *domain.IngestReport {
	return m.report
}

// mockRetriever implements driving.Retriever.
type mockRetriever struct {
	result    *domain.RetrievalResult
	err       error
	lastQuery string
	lastK     int
	lastMode  domain.RetrievalMode
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int) (*domain.RetrievalResult, error) {
	return m.Search(ctx, query, k, domain.RetrievalHybrid)
}

func (m *mockRetriever) Search(
	_ context.Context, query string, k int, mode domain.RetrievalMode,
) (*domain.RetrievalResult, error) {
	m.lastQuery = query
	m.lastK = k
	m.lastMode = mode
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockAnswerer implements driving.Answerer.
type mockAnswerer struct {
	mu        sync.Mutex
	answer    *domain.Answer
	errs      map[string]error
	questions []string
	convs     []*domain.Conversation
}

func (m *mockAnswerer) Ask(_ context.Context, question string, conv *domain.Conversation) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions = append(m.questions, question)
	m.convs = append(m.convs, conv)
	if err := m.errs[question]; err != nil {
		return nil, err
	}
	if conv != nil {
		conv.Append(domain.Turn{Question: question, Answer: m.answer.Text})
	}
	return m.answer, nil
}

func testReport() *domain.IngestReport {
	return &domain.IngestReport{
		Name:       "demo-repo",
		URL:        "https://example.com/demo-repo",
		KindCounts: map[domain.DocumentKind]int{domain.KindCode: 2, domain.KindText: 1},
		FileNames:  []string{"auth/login.go", "main.go", "README.md"},
		Warnings: []domain.IngestionWarning{
			{Path: "logo.png", Reason: domain.ReasonUnsupported},
			{Path: "dump.sql", Reason: domain.ReasonTooLarge},
		},
		Chunks:        12,
		CorpusVersion: "v-123",
		Duration:      1500 * time.Millisecond,
	}
}

func testHits() []domain.ScoredChunk {
	return []domain.ScoredChunk{
		{
			Chunk:   domain.Chunk{ID: "a", Path: "auth/login.go", Start: 0, End: 120, Content: "func Login(user, pass string) error {\n\treturn check(user, pass)\n}"},
			Score:   0.92,
			Tag:     domain.TagFused,
			Lexical: 1, Semantic: 0.84,
		},
		{
			Chunk: domain.Chunk{ID: "b", Path: "README.md", Start: 40, End: 300, Content: "Run the server with make run."},
			Score: 0.31,
			Tag:   domain.TagFused,
		},
	}
}

// testEnv is the fake wiring installed by setupTestServices.
type testEnv struct {
	source    *fakeSource
	ingester  *mockIngester
	retriever *mockRetriever
	answerer  *mockAnswerer
	settings  driving.SettingsService
	checks    []ProviderStatus
	watch     func(ctx context.Context, hooks WatchHooks) (func(), error)

	opened   []Options
	closed   int
	noAnswer bool
}

// setupTestServices installs a factory backed by mocks and resets global
// flag state. The returned env can be tweaked before executing commands.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		source:    &fakeSource{},
		ingester:  &mockIngester{report: testReport()},
		retriever: &mockRetriever{result: &domain.RetrievalResult{Query: "q", Hits: testHits(), Mode: domain.RetrievalHybrid}},
		answerer:  &mockAnswerer{answer: &domain.Answer{Text: "Login checks the password.", Chunks: testHits()[:1], Model: "llama3.2"}},
		settings:  services.NewSettingsService(memory.NewConfigStore()),
	}

	SetFactory(&Factory{
		Open: func(_ context.Context, opts Options) (*Services, error) {
			env.opened = append(env.opened, opts)
			svc := &Services{
				Ingester:  env.ingester,
				Retriever: env.retriever,
				Source:    env.source,
				Model:     "llama3.2",
				Watch:     env.watch,
				Close:     func() { env.closed++ },
			}
			if !env.noAnswer {
				svc.Answerer = env.answerer
			}
			return svc, nil
		},
		Settings: func(string) (driving.SettingsService, error) {
			return env.settings, nil
		},
		Check: func(context.Context, string) ([]ProviderStatus, error) {
			return env.checks, nil
		},
		ConfigFile: func(path string) (string, error) {
			if path == "" {
				return "/home/test/.git-llm-analyzer/config.toml", nil
			}
			return path, nil
		},
	})

	resetFlags()
	t.Cleanup(func() {
		SetFactory(nil)
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})
	return env
}

func resetFlags() {
	verbose = false
	configPath = ""
	repoRef = "."
	searchLimit = 0
	searchMode = string(domain.RetrievalHybrid)
	searchJSON = false
	indexWarnings = false
	indexJSON = false
	chatWatch = false
	chatPlain = false
}

// execute runs the root command with args and returns stdout and stderr.
func execute(args ...string) (stdout, stderr string, err error) {
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

var errBoom = errors.New("boom")

func requireOpened(t *testing.T, env *testEnv) {
	t.Helper()
	require.NotEmpty(t, env.opened, "factory.Open was not called")
}
