package domain

import "time"

// IndexTag records which index produced a score.
type IndexTag string

// Index tags.
const (
	TagLexical  IndexTag = "lexical"
	TagSemantic IndexTag = "semantic"
	TagFused    IndexTag = "fused"
)

// ScoredChunk is one ranked retrieval hit.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the raw index score for single-index hits and the fused
	// score for TagFused hits.
	Score float64

	// Tag is the index that produced Score.
	Tag IndexTag

	// Lexical and Semantic are the normalised per-index components of a
	// fused score. Zero when the chunk was absent from that index.
	Lexical  float64
	Semantic float64
}

// RetrievalResult is the ordered output of one query. It is never persisted.
// An empty Hits slice is a valid outcome, not an error.
type RetrievalResult struct {
	// Query is the query as received.
	Query string

	// Hits are ordered best first.
	Hits []ScoredChunk

	// Mode is the retrieval mode that actually ran, after degradation.
	Mode RetrievalMode

	// CorpusVersion identifies the snapshot that served the query.
	CorpusVersion string

	// Duration is the wall time spent retrieving.
	Duration time.Duration
}

// IsEmpty reports whether the query produced no hits.
func (r *RetrievalResult) IsEmpty() bool {
	return r == nil || len(r.Hits) == 0
}

// Paths returns the distinct document paths of the hits in rank order.
func (r *RetrievalResult) Paths() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool, len(r.Hits))
	paths := make([]string, 0, len(r.Hits))
	for i := range r.Hits {
		p := r.Hits[i].Chunk.Path
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// RetrievalMode selects which indexes a query consults.
type RetrievalMode string

// Available retrieval modes.
const (
	// RetrievalLexical uses only the BM25 index.
	RetrievalLexical RetrievalMode = "lexical"

	// RetrievalSemantic uses only the vector index.
	RetrievalSemantic RetrievalMode = "semantic"

	// RetrievalHybrid fuses both indexes.
	RetrievalHybrid RetrievalMode = "hybrid"
)

// IsValid returns true if the retrieval mode is recognised.
func (m RetrievalMode) IsValid() bool {
	switch m {
	case RetrievalLexical, RetrievalSemantic, RetrievalHybrid:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m RetrievalMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m RetrievalMode) Description() string {
	switch m {
	case RetrievalLexical:
		return "Lexical (BM25 keyword search)"
	case RetrievalSemantic:
		return "Semantic (embedding similarity)"
	case RetrievalHybrid:
		return "Hybrid (weighted BM25 + embedding fusion)"
	default:
		return unknownDescription
	}
}
