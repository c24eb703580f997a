// Package metrics holds the prometheus collectors for ingestion, retrieval
// and answering. Collectors live on a private registry so tests and embedders
// never clash with the default one.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gla"

// Metrics groups every collector.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsLoaded   *prometheus.CounterVec
	FilesSkipped      *prometheus.CounterVec
	ChunksIndexed     prometheus.Gauge
	BuildDuration     *prometheus.HistogramVec
	BuildFailures     prometheus.Counter
	RetrievalDuration *prometheus.HistogramVec
	RetrievalHits     prometheus.Histogram
	EmbeddingCache    *prometheus.CounterVec
	Answers           *prometheus.CounterVec
	AnswerDuration    prometheus.Histogram
}

// New creates and registers a fresh set of collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_loaded_total",
			Help:      "Documents loaded, by kind.",
		}, []string{"kind"}),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Files skipped during ingestion, by reason.",
		}, []string{"reason"}),
		ChunksIndexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_indexed",
			Help:      "Chunks in the current corpus.",
		}),
		BuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_seconds",
			Help:      "Index build duration, by index.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"index"}),
		BuildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_build_failures_total",
			Help:      "Corpus builds that failed and kept the previous snapshot.",
		}),
		RetrievalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_seconds",
			Help:      "Retrieval duration, by mode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		RetrievalHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_hits",
			Help:      "Chunks returned per query.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		EmbeddingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups, by tier and result.",
		}, []string{"tier", "result"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answer attempts, by outcome.",
		}, []string{"outcome"}),
		AnswerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_seconds",
			Help:      "End-to-end answer duration.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.DocumentsLoaded,
		m.FilesSkipped,
		m.ChunksIndexed,
		m.BuildDuration,
		m.BuildFailures,
		m.RetrievalDuration,
		m.RetrievalHits,
		m.EmbeddingCache,
		m.Answers,
		m.AnswerDuration,
	)

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var (
	defaultOnce sync.Once
	defaultSet  *Metrics
)

// Default returns the process-wide collectors, created on first use.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultSet = New()
	})
	return defaultSet
}
