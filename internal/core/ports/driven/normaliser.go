package driven

import (
	"context"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// Normaliser transforms classified raw files into documents.
// Each normaliser handles one or more document kinds.
type Normaliser interface {
	// SupportedKinds returns the document kinds this normaliser handles.
	SupportedKinds() []domain.DocumentKind

	// Priority returns the selection priority (higher = preferred).
	// Kind-specific normalisers should return 50-100.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms a raw file into a document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Document is the normalised document with Text populated.
	Document domain.Document
}

// NormaliserRegistry selects the appropriate normaliser for a file.
type NormaliserRegistry interface {
	// Normalise transforms a raw file using the best matching normaliser.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)
}
