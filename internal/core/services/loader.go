package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
	"github.com/avishayil/git-llm-analyzer/internal/metrics"
	"github.com/avishayil/git-llm-analyzer/internal/normalisers"
)

// Loader turns the raw files of a repository source into documents.
// Unsupported, binary and malformed files are reported as warnings and never
// stop the load.
type Loader struct {
	registry driven.NormaliserRegistry
	metrics  *metrics.Metrics
}

// NewLoader creates a loader backed by a normaliser registry.
// m may be nil.
func NewLoader(registry driven.NormaliserRegistry, m *metrics.Metrics) *Loader {
	return &Loader{
		registry: registry,
		metrics:  m,
	}
}

// Load walks the source and streams documents in source order.
// Callers must drain both channels; they are closed when the walk ends.
func (l *Loader) Load(ctx context.Context, source driven.RepositorySource) (<-chan domain.Document, <-chan domain.IngestionWarning) {
	docs := make(chan domain.Document, 16)
	warnings := make(chan domain.IngestionWarning, 16)

	go func() {
		defer close(docs)
		defer close(warnings)

		rawCh, sourceWarnings := source.Walk(ctx)

		warn := func(w domain.IngestionWarning) bool {
			l.skipped(w)
			select {
			case warnings <- w:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for rawCh != nil || sourceWarnings != nil {
			select {
			case <-ctx.Done():
				drain(rawCh, sourceWarnings)
				return

			case w, ok := <-sourceWarnings:
				if !ok {
					sourceWarnings = nil
					continue
				}
				if !warn(w) {
					drain(rawCh, sourceWarnings)
					return
				}

			case raw, ok := <-rawCh:
				if !ok {
					rawCh = nil
					continue
				}

				doc, w := l.load(ctx, &raw)
				if w != nil {
					if !warn(*w) {
						drain(rawCh, sourceWarnings)
						return
					}
					continue
				}

				if l.metrics != nil {
					l.metrics.DocumentsLoaded.WithLabelValues(doc.Kind.String()).Inc()
				}
				select {
				case docs <- *doc:
				case <-ctx.Done():
					drain(rawCh, sourceWarnings)
					return
				}
			}
		}
	}()

	return docs, warnings
}

// load classifies and normalises one raw file.
func (l *Loader) load(ctx context.Context, raw *domain.RawDocument) (*domain.Document, *domain.IngestionWarning) {
	if len(raw.Content) == 0 {
		return nil, &domain.IngestionWarning{Path: raw.Path, Reason: domain.ReasonEmpty}
	}

	kind, ok := normalisers.Classify(raw.Path, raw.Content)
	if !ok {
		if _, known := normalisers.KindForPath(raw.Path); known {
			return nil, &domain.IngestionWarning{Path: raw.Path, Reason: domain.ReasonBinary}
		}
		return nil, &domain.IngestionWarning{Path: raw.Path, Reason: domain.ReasonUnsupported}
	}
	raw.Kind = kind
	raw.MIMEType = normalisers.MIMEType(kind, raw.Content)

	result, err := l.registry.Normalise(ctx, raw)
	if err != nil {
		reason := domain.ReasonMalformed
		if errors.Is(err, domain.ErrUnsupportedType) {
			reason = domain.ReasonUnsupported
		}
		return nil, &domain.IngestionWarning{Path: raw.Path, Reason: reason, Err: err}
	}
	if result.Document.Text == "" {
		return nil, &domain.IngestionWarning{Path: raw.Path, Reason: domain.ReasonEmpty}
	}

	logger.Debug("Loaded %s (%s, %d bytes)", raw.Path, kind, raw.Size)
	return &result.Document, nil
}

func (l *Loader) skipped(w domain.IngestionWarning) {
	if l.metrics != nil {
		l.metrics.FilesSkipped.WithLabelValues(w.Reason).Inc()
	}
	switch w.Reason {
	case domain.ReasonUnsupported, domain.ReasonBinary, domain.ReasonEmpty:
		logger.Debug("Skipping %s", w)
		return
	}
	logger.Warn("Skipping %s", w)
}

// drain empties the source channels so its walker goroutine can exit.
func drain(raw <-chan domain.RawDocument, warnings <-chan domain.IngestionWarning) {
	if raw != nil {
		go func() {
			for range raw {
			}
		}()
	}
	if warnings != nil {
		go func() {
			for range warnings {
			}
		}()
	}
}

// describeSource names a source for log lines.
func describeSource(source driven.RepositorySource) string {
	if source.URL() != "" && source.URL() != source.Root() {
		return fmt.Sprintf("%s (%s)", source.Name(), source.URL())
	}
	return source.Name()
}
