package mcp

import (
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever provides ranked chunk retrieval.
	Retriever driving.Retriever

	// Answerer answers questions. Optional; without it the ask tool reports
	// that no answering model is configured.
	Answerer driving.Answerer

	// Ingester exposes the last ingest report for the repository resources.
	// Optional.
	Ingester driving.Ingester
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
