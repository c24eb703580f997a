package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// IngestionWarning records one file skipped during ingestion.
// Warnings never abort a build; they are aggregated into an IngestReport.
type IngestionWarning struct {
	// Path is the skipped file, relative to the repository root when known.
	Path string

	// Reason is a short machine-friendly reason such as "unsupported" or "too_large".
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

// String returns a one-line description.
func (w IngestionWarning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", w.Path, w.Reason, w.Err)
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// Warning reasons.
const (
	ReasonUnsupported = "unsupported"
	ReasonBinary      = "binary"
	ReasonTooLarge    = "too_large"
	ReasonUnreadable  = "unreadable"
	ReasonMalformed   = "malformed"
	ReasonEmpty       = "empty"
)

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// Root is the repository root that was ingested.
	Root string

	// Name is a display name for the repository.
	Name string

	// URL is the remote location, if the source has one.
	URL string

	// KindCounts counts loaded documents per kind.
	KindCounts map[DocumentKind]int

	// FileNames lists loaded document paths in load order.
	FileNames []string

	// Warnings lists every skipped file.
	Warnings []IngestionWarning

	// Chunks is the number of chunks indexed.
	Chunks int

	// CorpusVersion is the build-version token of the resulting corpus.
	CorpusVersion string

	// Duration is the wall time of the whole run.
	Duration time.Duration
}

// Documents returns the number of loaded documents.
func (r *IngestReport) Documents() int {
	return len(r.FileNames)
}

// WarningSummary counts warnings per reason.
func (r *IngestReport) WarningSummary() map[string]int {
	out := make(map[string]int)
	for _, w := range r.Warnings {
		out[w.Reason]++
	}
	return out
}

// FileTypeCounts renders the per-kind counts in a stable order, e.g. "code: 3, text: 1".
func (r *IngestReport) FileTypeCounts() string {
	kinds := make([]string, 0, len(r.KindCounts))
	for k, n := range r.KindCounts {
		if n > 0 {
			kinds = append(kinds, fmt.Sprintf("%s: %d", k, n))
		}
	}
	sort.Strings(kinds)
	return strings.Join(kinds, ", ")
}
