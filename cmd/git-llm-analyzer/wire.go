package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driven/ai"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driven/config/file"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driven/index/bm25"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driven/index/vector"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/cli"
	"github.com/avishayil/git-llm-analyzer/internal/config"
	"github.com/avishayil/git-llm-analyzer/internal/connectors/filesystem"
	"github.com/avishayil/git-llm-analyzer/internal/connectors/github"
	"github.com/avishayil/git-llm-analyzer/internal/connectors/gitrepo"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
	"github.com/avishayil/git-llm-analyzer/internal/core/services"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
	"github.com/avishayil/git-llm-analyzer/internal/metrics"
	"github.com/avishayil/git-llm-analyzer/internal/normalisers"
	"github.com/avishayil/git-llm-analyzer/internal/normalisers/notebook"
	"github.com/avishayil/git-llm-analyzer/internal/normalisers/plaintext"
	"github.com/avishayil/git-llm-analyzer/internal/postprocessors"
)

// cloneDepth keeps clones shallow; only the working tree is indexed.
const cloneDepth = 1

func newFactory() *cli.Factory {
	return &cli.Factory{
		Open:       openServices,
		Settings:   openSettings,
		Check:      checkProviders,
		ConfigFile: configFile,
	}
}

// configFile resolves --config, falling back to the default location.
func configFile(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

func openSettings(path string) (driving.SettingsService, error) {
	path, err := configFile(path)
	if err != nil {
		return nil, err
	}
	store, err := file.NewConfigStoreAt(path)
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store), nil
}

// openServices wires the core services for one repository.
func openServices(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	settings, err := config.LoadSettings(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	source, err := openSource(ctx, opts.Repo, settings)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	providers := ai.Init(settings, m)

	closeAll := func() {
		providers.Close()
		if err := source.Close(); err != nil {
			logger.Warn("closing %s: %v", source.Name(), err)
		}
	}

	pipeline, err := buildPipeline(settings.Chunking)
	if err != nil {
		closeAll()
		return nil, err
	}

	var semantic services.SemanticFactory
	if embedder := providers.EmbeddingService; embedder != nil {
		concurrency := settings.Embedding.Concurrency
		semantic = func() driven.SemanticIndex {
			return vector.New(embedder, vector.WithConcurrency(concurrency))
		}
	}
	corpus := services.NewCorpus(func() driven.LexicalIndex { return bm25.New() }, semantic, m)
	closeSource := closeAll
	closeAll = func() {
		if err := corpus.Close(); err != nil {
			logger.Warn("closing indexes: %v", err)
		}
		closeSource()
	}

	retriever, err := services.NewRetrieverService(corpus, providers.EmbeddingService, settings.Retrieval, m)
	if err != nil {
		closeAll()
		return nil, err
	}

	loader := services.NewLoader(normalisers.NewRegistry(plaintext.New(), notebook.New()), m)
	ingester := services.NewIngestService(loader, pipeline, corpus)

	svc := &cli.Services{
		Ingester:  ingester,
		Retriever: retriever,
		Source:    source,
		Metrics:   m.Handler(),
		Model:     settings.LLM.Model,
		Close:     closeAll,
	}

	if providers.LLMService != nil {
		prompts, err := file.NewPromptStore(promptDir(opts.ConfigPath))
		if err != nil {
			closeAll()
			return nil, err
		}
		svc.Answerer = services.NewAnswerService(retriever, ingester, providers.LLMService, prompts, settings, m)
	}

	if watchable, ok := source.(driven.WatchableSource); ok {
		svc.Watch = watchFunc(ingester, watchable)
	}

	return svc, nil
}

// buildPipeline builds the chunking pipeline from the registered processors.
func buildPipeline(chunking domain.ChunkingSettings) (*postprocessors.Pipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	chunker, err := registry.Build("chunker", map[string]any{
		"max_chunk_size": chunking.MaxChunkSize,
		"overlap_size":   chunking.OverlapSize,
	})
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	return postprocessors.NewPipeline(chunker), nil
}

// watchFunc starts a Rebuilder that reports through hooks.
func watchFunc(ingester driving.Ingester, source driven.WatchableSource) func(context.Context, cli.WatchHooks) (func(), error) {
	return func(ctx context.Context, hooks cli.WatchHooks) (func(), error) {
		rebuilder := services.NewRebuilder(ingester, source, services.DefaultRebuildQuiet)
		rebuilder.OnStart = hooks.OnStart
		rebuilder.OnRebuild = hooks.OnDone
		if err := rebuilder.Start(ctx); err != nil {
			return nil, err
		}
		return rebuilder.Stop, nil
	}
}

// promptDir keeps prompt templates next to the config file.
func promptDir(configPath string) string {
	if configPath == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(configPath), "prompts")
}

// openSource routes a --repo reference to a connector.
func openSource(ctx context.Context, ref string, settings domain.AppSettings) (driven.RepositorySource, error) {
	files := []filesystem.Option{
		filesystem.WithMaxFileSize(settings.Source.MaxFileSize),
		filesystem.WithSkipDirs(settings.Source.SkipDirs...),
		filesystem.WithPathFilter(normalisers.SupportedPath),
	}

	switch {
	case github.IsRepoSpec(ref):
		spec, err := github.ParseRepoSpec(ref)
		if err != nil {
			return nil, err
		}
		var clientOpts []github.ClientOption
		if settings.GitHub.Token != "" {
			clientOpts = append(clientOpts, github.WithToken(settings.GitHub.Token))
		}
		if settings.GitHub.BaseURL != "" {
			clientOpts = append(clientOpts, github.WithBaseURL(settings.GitHub.BaseURL))
		}
		client, err := github.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		return github.Open(ctx, client, spec, files...)

	case gitrepo.IsCloneURL(ref):
		return gitrepo.Clone(ctx, ref, gitrepo.Options{
			Depth: cloneDepth,
			Token: settings.GitHub.Token,
			Files: files,
		})

	default:
		return openLocal(ref, files)
	}
}

// openLocal opens a directory, naming it after its origin remote when it
// is a git checkout.
func openLocal(dir string, files []filesystem.Option) (*filesystem.Source, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty repository path", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if remote, _ := gitrepo.Describe(abs); remote != "" {
		files = append(files, filesystem.WithURL(remote))
	}

	source := filesystem.New(abs, files...)
	if err := source.Validate(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", domain.ErrNotFound, abs)
		}
		return nil, err
	}
	return source, nil
}

// checkProviders pings the configured embedding and answering providers.
func checkProviders(ctx context.Context, configPath string) ([]cli.ProviderStatus, error) {
	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return nil, err
	}

	return []cli.ProviderStatus{
		{
			Name:     "embedding",
			Provider: settings.Embedding.Provider.String(),
			Model:    settings.Embedding.Model,
			Err:      ai.ValidateEmbeddingConfig(ctx, &settings.Embedding),
		},
		{
			Name:     "llm",
			Provider: settings.LLM.Provider.String(),
			Model:    settings.LLM.Model,
			Err:      ai.ValidateLLMConfig(ctx, &settings.LLM),
		},
	}, nil
}
