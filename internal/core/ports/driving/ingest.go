package driving

import (
	"context"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
)

// Ingester loads a repository and (re)builds the corpus from it.
type Ingester interface {
	// Ingest walks the source, chunks every document and builds the corpus.
	// Per-file problems are reported as warnings; a build failure leaves the
	// previous corpus in place and is returned.
	Ingest(ctx context.Context, source driven.RepositorySource) (*domain.IngestReport, error)

	// LastReport returns the report of the last successful ingestion, or nil.
	LastReport() *domain.IngestReport
}
