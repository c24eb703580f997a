// Package notebook normalises Jupyter notebooks.
//
// Only code and markdown cell sources are kept. Outputs, attachments and raw
// cells are discarded. The document text joins the cells with boundary
// markers so chunks and prompts still show where a cell starts.
package notebook

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/normalisers"
	"github.com/avishayil/git-llm-analyzer/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles .ipynb files.
type Normaliser struct{}

// New creates a new notebook normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedKinds returns the document kinds this normaliser handles.
func (n *Normaliser) SupportedKinds() []domain.DocumentKind {
	return []domain.DocumentKind{domain.KindNotebook}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 80
}

// Normalise parses the notebook JSON into cells and marked-up text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	cells, err := ParseCells(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Path, err)
	}

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:    normalisers.DocumentID(raw.Path),
			Path:  raw.Path,
			Kind:  domain.KindNotebook,
			Text:  Render(cells),
			Cells: cells,
			Size:  raw.Size,
		},
	}, nil
}

// ParseCells extracts code and markdown cells in notebook order.
// Cells with an empty source are dropped.
func ParseCells(data []byte) ([]domain.NotebookCell, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: notebook is not valid JSON", domain.ErrInvalidInput)
	}
	list := gjson.GetBytes(data, "cells")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: notebook has no cells array", domain.ErrInvalidInput)
	}

	var cells []domain.NotebookCell
	list.ForEach(func(_, cell gjson.Result) bool {
		var typ domain.CellType
		switch cell.Get("cell_type").String() {
		case "code":
			typ = domain.CellCode
		case "markdown":
			typ = domain.CellMarkdown
		default:
			return true
		}

		src := cellSource(cell.Get("source"))
		if strings.TrimSpace(src) == "" {
			return true
		}
		cells = append(cells, domain.NotebookCell{Type: typ, Source: src})
		return true
	})
	return cells, nil
}

// cellSource joins a source given either as a string or a list of lines.
func cellSource(src gjson.Result) string {
	if !src.IsArray() {
		return plaintext.CleanText([]byte(src.String()))
	}
	var b strings.Builder
	src.ForEach(func(_, line gjson.Result) bool {
		b.WriteString(line.String())
		return true
	})
	return plaintext.CleanText([]byte(b.String()))
}

// Render joins cells with "# %% [type]" boundary markers.
func Render(cells []domain.NotebookCell) string {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# %%%% [%s]\n", c.Type)
		b.WriteString(strings.TrimRight(c.Source, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
