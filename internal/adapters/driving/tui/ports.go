// Package tui provides the interactive chat interface for git-llm-analyzer.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the chat UI.
type Ports struct {
	// Answerer answers questions. Required.
	Answerer driving.Answerer

	// Ingester reports the last build. Optional; used for the status bar.
	Ingester driving.Ingester
}

// NewPorts creates a new Ports aggregate.
func NewPorts(answerer driving.Answerer, ingester driving.Ingester) *Ports {
	return &Ports{
		Answerer: answerer,
		Ingester: ingester,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Answerer == nil {
		return ErrMissingAnswerer
	}
	return nil
}
