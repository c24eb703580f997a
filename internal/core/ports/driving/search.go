package driving

import (
	"context"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// Retriever provides ranked chunk retrieval to external actors.
type Retriever interface {
	// Retrieve runs hybrid retrieval and returns the top-k chunks.
	Retrieve(ctx context.Context, query string, k int) (*domain.RetrievalResult, error)

	// Search runs retrieval in a specific mode, for inspection and tooling.
	Search(ctx context.Context, query string, k int, mode domain.RetrievalMode) (*domain.RetrievalResult, error)
}
