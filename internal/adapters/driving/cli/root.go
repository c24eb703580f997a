// Package cli provides the cobra command tree for git-llm-analyzer.
// It is a driving adapter: commands call core services through driving ports
// supplied by main via SetFactory.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
)

// version is set by main from build flags.
var version = "dev"

// Global flags.
var (
	verbose    bool
	configPath string
	repoRef    string
)

// ErrNotConfigured is returned when a command runs before SetFactory.
var ErrNotConfigured = errors.New("services not configured")

// Options select the repository and configuration for a command.
type Options struct {
	// Repo is a local path, a clone URL or github:owner/repo[@ref].
	Repo string

	// ConfigPath overrides the config file location. Empty uses the default.
	ConfigPath string
}

// Services holds the driving ports a repository command needs.
type Services struct {
	Ingester  driving.Ingester
	Retriever driving.Retriever

	// Answerer is nil when no answering model is reachable.
	Answerer driving.Answerer

	// Source is the resolved repository. It is closed by Close.
	Source driven.RepositorySource

	// Metrics is served on /metrics by 'mcp serve --port'. Optional.
	Metrics http.Handler

	// Model is the answering model name, for display.
	Model string

	// Watch rebuilds the corpus whenever the repository changes, until the
	// returned stop is called. Nil when the source cannot be watched.
	Watch func(ctx context.Context, hooks WatchHooks) (stop func(), err error)

	// Close releases the source and AI clients.
	Close func()
}

// WatchHooks observe background rebuilds. Both are optional.
type WatchHooks struct {
	OnStart func(changes int)
	OnDone  func(report *domain.IngestReport, err error)
}

// ProviderStatus is the outcome of pinging one configured provider.
type ProviderStatus struct {
	Name     string // "embedding" or "llm"
	Provider string
	Model    string
	Err      error
}

// Factory builds services for the current flags.
type Factory struct {
	// Open resolves the repository and wires the core services.
	// The corpus is not built yet.
	Open func(ctx context.Context, opts Options) (*Services, error)

	// Settings opens the settings service for the config file.
	Settings func(configPath string) (driving.SettingsService, error)

	// Check pings the configured embedding and answering providers.
	Check func(ctx context.Context, configPath string) ([]ProviderStatus, error)

	// ConfigFile resolves the config file path.
	ConfigFile func(configPath string) (string, error)
}

var factory *Factory

// SetFactory installs the service factory. Called by main before Execute.
func SetFactory(f *Factory) {
	factory = f
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "git-llm-analyzer",
	Short: "Ask questions about a code repository",
	Long: `git-llm-analyzer indexes a source-code repository and answers
natural-language questions about it with a language model, grounded in the
most relevant files.

Repositories can be a local directory (default: the current directory),
a clone URL, or a GitHub archive given as github:owner/repo[@ref].`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.git-llm-analyzer/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&repoRef, "repo", "r", ".", "repository path, clone URL or github:owner/repo[@ref]")
}

// Execute runs the root command. Cancelling ctx aborts indexing and
// in-flight questions.
func Execute(ctx context.Context) error {
	defer logger.Sync()
	// Answers go to stdout; progress and errors go to stderr.
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// openRepository opens the services for --repo and builds the corpus.
// The caller must call svc.Close.
func openRepository(cmd *cobra.Command) (*Services, *domain.IngestReport, error) {
	if factory == nil || factory.Open == nil {
		return nil, nil, ErrNotConfigured
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := factory.Open(ctx, Options{Repo: repoRef, ConfigPath: configPath})
	if err != nil {
		return nil, nil, fmt.Errorf("opening repository %s: %w", repoRef, err)
	}
	if svc.Close == nil {
		svc.Close = func() {}
	}

	cmd.PrintErrf("Indexing %s...\n", svc.Source.Name())
	report, err := svc.Ingester.Ingest(ctx, svc.Source)
	if err != nil {
		svc.Close()
		return nil, nil, fmt.Errorf("indexing failed: %w", err)
	}
	cmd.PrintErrf("Indexed %d files (%s) into %d chunks in %s\n",
		report.Documents(), report.FileTypeCounts(), report.Chunks, report.Duration.Round(time.Millisecond))
	if n := len(report.Warnings); n > 0 {
		cmd.PrintErrf("Skipped %d files; run 'git-llm-analyzer index --warnings' for details\n", n)
	}

	return svc, report, nil
}

// openSettings opens the settings service for --config.
func openSettings() (driving.SettingsService, error) {
	if factory == nil || factory.Settings == nil {
		return nil, ErrNotConfigured
	}
	return factory.Settings(configPath)
}
