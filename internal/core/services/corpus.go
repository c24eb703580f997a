package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
	"github.com/avishayil/git-llm-analyzer/internal/metrics"
)

// LexicalFactory creates an empty lexical index for one build.
type LexicalFactory func() driven.LexicalIndex

// SemanticFactory creates an empty semantic index for one build.
type SemanticFactory func() driven.SemanticIndex

// Snapshot is the immutable set of indexes and chunks for one corpus version.
type Snapshot struct {
	Version  string
	BuiltAt  time.Time
	Lexical  driven.LexicalIndex
	Semantic driven.SemanticIndex // nil in lexical-only mode

	chunks []domain.Chunk
	byID   map[string]int
}

// Chunk looks up a chunk by ID.
func (s *Snapshot) Chunk(id string) (domain.Chunk, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Chunk{}, false
	}
	return s.chunks[i], true
}

// Chunks returns the chunk table in ordinal order. Callers must not modify it.
func (s *Snapshot) Chunks() []domain.Chunk {
	return s.chunks
}

// Len returns the number of chunks.
func (s *Snapshot) Len() int {
	return len(s.chunks)
}

// close releases indexes that hold resources.
func (s *Snapshot) close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, idx := range []any{s.Lexical, s.Semantic} {
		if c, ok := idx.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// CorpusStats describes the current snapshot.
type CorpusStats struct {
	Ready           bool
	Version         string
	BuiltAt         time.Time
	Chunks          int
	LexicalEntries  int
	SemanticEntries int
	SemanticEnabled bool
}

// Corpus owns the indexes of one repository.
//
// Build creates fresh index instances, fills them and only then publishes
// them together. Queries always see a complete snapshot; a failed build
// leaves the previous one in place.
//
// A replaced snapshot stays open for one more build so queries that loaded
// it just before the swap can finish; the one before it is closed.
type Corpus struct {
	newLexical  LexicalFactory
	newSemantic SemanticFactory
	metrics     *metrics.Metrics

	buildMu sync.Mutex
	current atomic.Pointer[Snapshot]
	retired *Snapshot
}

// NewCorpus creates an empty corpus.
// newSemantic may be nil, which puts the corpus in lexical-only mode.
// m may be nil.
func NewCorpus(newLexical LexicalFactory, newSemantic SemanticFactory, m *metrics.Metrics) *Corpus {
	return &Corpus{
		newLexical:  newLexical,
		newSemantic: newSemantic,
		metrics:     m,
	}
}

// SemanticEnabled reports whether builds include a semantic index.
func (c *Corpus) SemanticEnabled() bool {
	return c.newSemantic != nil
}

// Build indexes chunks and publishes a new snapshot.
// Chunk IDs must be unique and ordinals must be assigned by the caller.
// Builds are serialised; the lexical and semantic indexes are built concurrently.
func (c *Corpus) Build(ctx context.Context, chunks []domain.Chunk) (*Snapshot, error) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	byID := make(map[string]int, len(chunks))
	for i := range chunks {
		if _, dup := byID[chunks[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate chunk id %s", domain.ErrInvalidInput, chunks[i].ID)
		}
		byID[chunks[i].ID] = i
	}

	snap := &Snapshot{
		Version: uuid.NewString(),
		Lexical: c.newLexical(),
		chunks:  chunks,
		byID:    byID,
	}
	if c.newSemantic != nil {
		snap.Semantic = c.newSemantic()
	}

	logger.Section("Corpus Build")
	logger.Debug("Building version %s from %d chunks", snap.Version, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.timed("lexical", func() error {
			if err := snap.Lexical.Build(gctx, chunks); err != nil {
				return fmt.Errorf("build lexical index: %w", err)
			}
			return nil
		})
	})
	if snap.Semantic != nil {
		g.Go(func() error {
			return c.timed("semantic", func() error {
				if err := snap.Semantic.Build(gctx, chunks); err != nil {
					return fmt.Errorf("build semantic index: %w", err)
				}
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		if c.metrics != nil {
			c.metrics.BuildFailures.Inc()
		}
		logger.Warn("Corpus build failed, keeping previous snapshot: %v", err)
		if cerr := snap.close(); cerr != nil {
			logger.Debug("Closing failed build: %v", cerr)
		}
		return nil, err
	}

	snap.BuiltAt = time.Now()
	previous := c.current.Swap(snap)
	if err := c.retired.close(); err != nil {
		logger.Warn("Closing retired corpus version: %v", err)
	}
	c.retired = previous
	if c.metrics != nil {
		c.metrics.ChunksIndexed.Set(float64(len(chunks)))
	}
	logger.Info("Corpus version %s ready: %d chunks", snap.Version, len(chunks))
	return snap, nil
}

func (c *Corpus) timed(index string, fn func() error) error {
	start := time.Now()
	err := fn()
	if c.metrics != nil && err == nil {
		c.metrics.BuildDuration.WithLabelValues(index).Observe(time.Since(start).Seconds())
	}
	logger.Debug("%s index built in %s", index, time.Since(start).Round(time.Millisecond))
	return err
}

// Snapshot returns the current snapshot, or domain.ErrIndexNotReady before
// the first successful build.
func (c *Corpus) Snapshot() (*Snapshot, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexNotReady
	}
	return snap, nil
}

// Version returns the current build-version token, or "" before the first build.
func (c *Corpus) Version() string {
	if snap := c.current.Load(); snap != nil {
		return snap.Version
	}
	return ""
}

// Stats describes the current snapshot.
func (c *Corpus) Stats() CorpusStats {
	stats := CorpusStats{SemanticEnabled: c.SemanticEnabled()}
	snap := c.current.Load()
	if snap == nil {
		return stats
	}
	stats.Ready = true
	stats.Version = snap.Version
	stats.BuiltAt = snap.BuiltAt
	stats.Chunks = snap.Len()
	stats.LexicalEntries = snap.Lexical.Len()
	if snap.Semantic != nil {
		stats.SemanticEntries = snap.Semantic.Len()
	}
	return stats
}

// Close releases the current and retired snapshots. The corpus must not be
// used afterwards.
func (c *Corpus) Close() error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	err := errors.Join(c.retired.close(), c.current.Load().close())
	c.retired = nil
	return err
}
