// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/styles"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// SourceList renders the chunks an answer was grounded on.
type SourceList struct {
	sources []domain.ScoredChunk
	styles  *styles.Styles
	width   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
	}
}

// View renders the source list, or nothing when there are no sources.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return ""
	}

	lines := make([]string, 0, len(l.sources)+1)
	lines = append(lines, l.styles.Muted.Render(fmt.Sprintf("Sources (%d)", len(l.sources))))
	for i := range l.sources {
		lines = append(lines, l.renderSource(&l.sources[i]))
	}
	return strings.Join(lines, "\n")
}

// renderSource formats one cited chunk.
func (l *SourceList) renderSource(hit *domain.ScoredChunk) string {
	label := FormatSource(hit)

	// Truncate long paths from the left so the file name stays visible
	maxLen := l.width - 12
	if maxLen < 20 {
		maxLen = 20
	}
	if r := []rune(label); len(r) > maxLen {
		label = "..." + string(r[len(r)-maxLen+3:])
	}

	score := fmt.Sprintf("%.3f", hit.Score)
	return "  " + l.styles.Source.Render(label) + "  " + l.styles.Muted.Render(score)
}

// FormatSource renders a chunk as "path [start:end]".
func FormatSource(hit *domain.ScoredChunk) string {
	return fmt.Sprintf("%s [%d:%d]", hit.Chunk.Path, hit.Chunk.Start, hit.Chunk.End)
}

// SetSources replaces the listed sources.
func (l *SourceList) SetSources(sources []domain.ScoredChunk) {
	l.sources = sources
}

// Sources returns the listed sources.
func (l *SourceList) Sources() []domain.ScoredChunk {
	return l.sources
}

// SetWidth sets the component width.
func (l *SourceList) SetWidth(width int) {
	l.width = width
}

// Width returns the current width.
func (l *SourceList) Width() int {
	return l.width
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}
