package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
	"github.com/avishayil/git-llm-analyzer/internal/metrics"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// RetrieverService runs queries against the current corpus snapshot.
type RetrieverService struct {
	corpus   *Corpus
	embedder driven.EmbeddingService
	settings domain.RetrievalSettings
	metrics  *metrics.Metrics
}

// NewRetrieverService creates a retriever.
// The embedder is optional; without it every query runs lexical only.
// m may be nil.
func NewRetrieverService(
	corpus *Corpus,
	embedder driven.EmbeddingService,
	settings domain.RetrievalSettings,
	m *metrics.Metrics,
) (*RetrieverService, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &RetrieverService{
		corpus:   corpus,
		embedder: embedder,
		settings: settings,
		metrics:  m,
	}, nil
}

// Retrieve runs hybrid retrieval. A non-positive k uses the configured default.
func (s *RetrieverService) Retrieve(ctx context.Context, query string, k int) (*domain.RetrievalResult, error) {
	return s.Search(ctx, query, k, domain.RetrievalHybrid)
}

// Search runs retrieval in the given mode.
// Hybrid degrades to a single index when the other one fails or is missing;
// Mode in the result reports what actually ran.
func (s *RetrieverService) Search(
	ctx context.Context, query string, k int, mode domain.RetrievalMode,
) (*domain.RetrievalResult, error) {
	start := time.Now()

	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown retrieval mode %q", domain.ErrInvalidInput, mode)
	}
	snap, err := s.corpus.Snapshot()
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = s.settings.K
	}

	result := &domain.RetrievalResult{
		Query:         query,
		Mode:          mode,
		CorpusVersion: snap.Version,
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		result.Duration = time.Since(start)
		return result, nil
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q, k=%d, mode=%s", query, k, mode)

	if mode != domain.RetrievalLexical && !s.canSearchSemantic(snap) {
		if mode == domain.RetrievalSemantic {
			return nil, domain.ErrEmbeddingUnavailable
		}
		logger.Debug("Semantic index unavailable, running lexical only")
		mode = domain.RetrievalLexical
	}

	switch mode {
	case domain.RetrievalLexical:
		hits, err := snap.Lexical.Search(ctx, query, k)
		if err != nil {
			return nil, fmt.Errorf("lexical search: %w", err)
		}
		result.Hits = s.hydrate(snap, hits, domain.TagLexical)

	case domain.RetrievalSemantic:
		hits, err := s.semanticSearch(ctx, snap, query, k)
		if err != nil {
			return nil, fmt.Errorf("semantic search: %w", err)
		}
		result.Hits = s.hydrate(snap, hits, domain.TagSemantic)

	case domain.RetrievalHybrid:
		result.Hits, mode, err = s.hybridSearch(ctx, snap, query, k)
		if err != nil {
			return nil, err
		}
	}

	result.Mode = mode
	result.Duration = time.Since(start)
	if s.metrics != nil {
		s.metrics.RetrievalDuration.WithLabelValues(mode.String()).Observe(result.Duration.Seconds())
		s.metrics.RetrievalHits.Observe(float64(len(result.Hits)))
	}
	logger.Debug("Retrieved %d chunks in %s", len(result.Hits), result.Duration.Round(time.Millisecond))
	return result, nil
}

func (s *RetrieverService) canSearchSemantic(snap *Snapshot) bool {
	return snap.Semantic != nil && s.embedder != nil
}

// semanticSearch embeds the query and searches the vector index.
func (s *RetrieverService) semanticSearch(ctx context.Context, snap *Snapshot, query string, k int) ([]driven.IndexHit, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return snap.Semantic.Search(ctx, vec, k)
}

// hybridSearch fans out to both indexes and fuses the lists.
func (s *RetrieverService) hybridSearch(
	ctx context.Context, snap *Snapshot, query string, k int,
) ([]domain.ScoredChunk, domain.RetrievalMode, error) {
	n := k * s.settings.Fanout

	var (
		lexical, semantic       []driven.IndexHit
		lexicalErr, semanticErr error
	)

	// Each side records its own error so one failure does not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		lexical, lexicalErr = snap.Lexical.Search(ctx, query, n)
		return nil
	})
	g.Go(func() error {
		semantic, semanticErr = s.semanticSearch(ctx, snap, query, n)
		return nil
	})
	_ = g.Wait()

	switch {
	case lexicalErr != nil && semanticErr != nil:
		return nil, domain.RetrievalHybrid, errors.Join(
			fmt.Errorf("lexical search: %w", lexicalErr),
			fmt.Errorf("semantic search: %w", semanticErr),
		)

	case semanticErr != nil:
		logger.Warn("Semantic search failed, using lexical results only: %v", semanticErr)
		return s.hydrate(snap, truncate(lexical, k), domain.TagLexical), domain.RetrievalLexical, nil

	case lexicalErr != nil:
		logger.Warn("Lexical search failed, using semantic results only: %v", lexicalErr)
		return s.hydrate(snap, truncate(semantic, k), domain.TagSemantic), domain.RetrievalSemantic, nil
	}

	logger.Debug("Fusing %d lexical and %d semantic hits", len(lexical), len(semantic))
	fused := fuse(lexical, semantic, s.settings.LexicalWeight, s.settings.SemanticWeight, k)

	out := make([]domain.ScoredChunk, 0, len(fused))
	for _, f := range fused {
		chunk, ok := snap.Chunk(f.chunkID)
		if !ok {
			logger.Debug("Fused hit %s not in chunk table", f.chunkID)
			continue
		}
		out = append(out, domain.ScoredChunk{
			Chunk:    chunk,
			Score:    f.score,
			Tag:      domain.TagFused,
			Lexical:  f.lexical,
			Semantic: f.semantic,
		})
	}
	return out, domain.RetrievalHybrid, nil
}

// hydrate resolves single-index hits against the chunk table.
func (s *RetrieverService) hydrate(snap *Snapshot, hits []driven.IndexHit, tag domain.IndexTag) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		chunk, ok := snap.Chunk(h.ChunkID)
		if !ok {
			logger.Debug("Hit %s not in chunk table", h.ChunkID)
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: h.Score, Tag: tag})
	}
	return out
}

func truncate(hits []driven.IndexHit, k int) []driven.IndexHit {
	if len(hits) > k {
		return hits[:k]
	}
	return hits
}
