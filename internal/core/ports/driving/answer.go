package driving

import (
	"context"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// Answerer answers questions about the indexed repository.
type Answerer interface {
	// Ask retrieves context, queries the answering model and, on success only,
	// appends the turn to conv. conv may be nil for single-shot questions.
	Ask(ctx context.Context, question string, conv *domain.Conversation) (*domain.Answer, error)
}
