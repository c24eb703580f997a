// Package plaintext normalises source code and text files.
package plaintext

import (
	"context"
	"strings"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const bom = "\uFEFF"

// Normaliser handles code and text files.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedKinds returns the document kinds this normaliser handles.
func (n *Normaliser) SupportedKinds() []domain.DocumentKind {
	return []domain.DocumentKind{domain.KindCode, domain.KindText}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts a raw file to a document.
// The text keeps the file verbatim apart from a leading BOM and CRLF line endings.
// Chunking is handled by the PostProcessor pipeline.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:   normalisers.DocumentID(raw.Path),
			Path: raw.Path,
			Kind: raw.Kind,
			Text: CleanText(raw.Content),
			Size: raw.Size,
		},
	}, nil
}

// CleanText decodes file bytes into the text handed to the chunker.
func CleanText(content []byte) string {
	text := strings.TrimPrefix(string(content), bom)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ToValidUTF8(text, "\uFFFD")
}
