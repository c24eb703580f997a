// Package chunker splits document text into bounded, overlapping chunks.
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// DefaultChunkSize is the default maximum chunk length in bytes.
const DefaultChunkSize = 3000

// DefaultChunkOverlap is the default maximum overlap in bytes.
const DefaultChunkOverlap = 200

// chunkNamespace seeds chunk IDs so they are stable across runs.
var chunkNamespace = uuid.MustParse("6f0c5b9e-3f57-4d4a-9a51-0c3c8f1d2a77")

// Processor splits document text into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the maximum overlap between consecutive chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Invalid sizes are reported by Validate and by every Process call.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Validate checks the size bounds.
func (p *Processor) Validate() error {
	return domain.ChunkingSettings{MaxChunkSize: p.chunkSize, OverlapSize: p.overlap}.Validate()
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document text into chunks.
// Input chunks are ignored; this processor creates new chunks from document text.
// Ordinals are left at zero for the caller to assign across the corpus.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if doc.Text == "" {
		return nil, nil
	}

	spans := Split(doc.Text, p.chunkSize, p.overlap)
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, s := range spans {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Path:       doc.Path,
			Position:   i,
			Start:      s.Start,
			End:        s.End,
			Content:    doc.Text[s.Start:s.End],
		})
	}

	return chunks, nil
}

// ChunkID returns the deterministic ID of the chunk at position in a document.
func ChunkID(documentID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"#"+strconv.Itoa(position))).String()
}

// Span is a half-open byte range [Start, End) of a text.
type Span struct {
	Start int
	End   int
}

// Split computes chunk boundaries for text. The caller guarantees
// 0 <= overlap < size and size >= domain.MinChunkSize.
//
// Every span is at most size bytes, starts and ends on rune boundaries,
// ends past the end of its predecessor and overlaps it by at most overlap
// bytes. Cuts prefer the last
// newline, then the last whitespace, in the back half of the window.
func Split(text string, size, overlap int) []Span {
	var spans []Span
	start := 0
	for start < len(text) {
		if len(text)-start <= size {
			spans = append(spans, Span{Start: start, End: len(text)})
			break
		}

		limit := runeFloor(text, start+size)
		lo := max(start+overlap, start+size/2)

		end := cut(text, lo, limit)
		spans = append(spans, Span{Start: start, End: end})

		// The next window must reach past end once its limit is pulled
		// back to a rune start, or its span would nest inside this one.
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		for next < end && (!utf8.RuneStart(text[next]) || runeFloor(text, next+size) <= end) {
			next++
		}
		start = next
	}
	return spans
}

// runeFloor returns the last rune start at or before i, or len(text).
func runeFloor(text string, i int) int {
	if i >= len(text) {
		return len(text)
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// cut picks the end of a chunk in (lo, limit]. limit is a rune start.
func cut(text string, lo, limit int) int {
	if lo >= limit {
		return limit
	}
	window := text[lo:limit]
	if i := strings.LastIndexByte(window, '\n'); i >= 0 {
		return lo + i + 1
	}
	if i := strings.LastIndexAny(window, " \t\v\f\r"); i >= 0 {
		return lo + i + 1
	}
	return limit
}
