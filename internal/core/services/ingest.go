package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingester = (*IngestService)(nil)

// IngestService coordinates loading, chunking and indexing of a repository.
type IngestService struct {
	loader   *Loader
	pipeline driven.PostProcessorPipeline
	corpus   *Corpus

	mu   sync.RWMutex
	last *domain.IngestReport
}

// NewIngestService creates a new ingest service.
func NewIngestService(loader *Loader, pipeline driven.PostProcessorPipeline, corpus *Corpus) *IngestService {
	return &IngestService{
		loader:   loader,
		pipeline: pipeline,
		corpus:   corpus,
	}
}

// Ingest loads every document of the source, chunks it and rebuilds the corpus.
//
// Per-file problems become warnings in the report. Chunker misconfiguration,
// cancellation and build failures abort the run; the previous corpus stays
// in place.
func (s *IngestService) Ingest(ctx context.Context, source driven.RepositorySource) (*domain.IngestReport, error) {
	start := time.Now()
	logger.Section("Ingest")
	logger.Info("Loading %s from %s", describeSource(source), source.Root())

	report := &domain.IngestReport{
		Root:       source.Root(),
		Name:       source.Name(),
		URL:        source.URL(),
		KindCounts: make(map[domain.DocumentKind]int),
	}

	chunks, err := s.collect(ctx, source, report)
	if err != nil {
		return nil, err
	}

	logger.Debug("Loaded %d documents (%s), %d chunks",
		report.Documents(), report.FileTypeCounts(), len(chunks))

	snap, err := s.corpus.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}

	report.Chunks = snap.Len()
	report.CorpusVersion = snap.Version
	report.Duration = time.Since(start)

	if len(report.Warnings) > 0 {
		logger.Info("Skipped %d files: %v", len(report.Warnings), report.WarningSummary())
	}
	logger.Info("Indexed %d documents, %d chunks in %s",
		report.Documents(), report.Chunks, report.Duration.Round(time.Millisecond))

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	return report, nil
}

// collect drains the loader and chunks every document in source order.
// Ordinals are assigned across the whole corpus.
func (s *IngestService) collect(
	ctx context.Context,
	source driven.RepositorySource,
	report *domain.IngestReport,
) ([]domain.Chunk, error) {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	docsCh, warnCh := s.loader.Load(loopCtx, source)

	var chunks []domain.Chunk
	for docsCh != nil || warnCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case w, ok := <-warnCh:
			if !ok {
				warnCh = nil
				continue
			}
			report.Warnings = append(report.Warnings, w)

		case doc, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}

			docChunks, err := s.pipeline.Process(ctx, &doc)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidInput) {
					return nil, fmt.Errorf("chunk %s: %w", doc.Path, err)
				}
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				w := domain.IngestionWarning{Path: doc.Path, Reason: domain.ReasonMalformed, Err: err}
				logger.Warn("Skipping %s", w)
				report.Warnings = append(report.Warnings, w)
				continue
			}

			for i := range docChunks {
				docChunks[i].Ordinal = len(chunks)
				chunks = append(chunks, docChunks[i])
			}
			report.KindCounts[doc.Kind]++
			report.FileNames = append(report.FileNames, doc.Path)
		}
	}

	// The loader closes its channels on cancellation too.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// LastReport returns the report of the last successful ingestion, or nil.
func (s *IngestService) LastReport() *domain.IngestReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
