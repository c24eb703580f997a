package driven

import (
	"context"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// RepositorySource supplies the files of one repository snapshot.
// Implementations include a local directory and a downloaded GitHub archive.
type RepositorySource interface {
	// Name returns a display name for the repository.
	Name() string

	// URL returns the remote location, or the local path for directories.
	URL() string

	// Root returns the local directory the files are read from.
	Root() string

	// Walk streams every candidate file in a stable order.
	// Per-file problems are sent on the warning channel and never stop the walk.
	// Both channels are closed when the walk ends.
	Walk(ctx context.Context) (<-chan domain.RawDocument, <-chan domain.IngestionWarning)

	// Close releases resources such as temporary directories.
	Close() error
}

// WatchableSource is a source that can report file changes.
type WatchableSource interface {
	RepositorySource

	// Watch emits change events until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)
}
