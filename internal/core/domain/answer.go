package domain

import "time"

// Answer is the orchestrator's reply to one question.
type Answer struct {
	// Question is the normalised question that was asked.
	Question string

	// Text is the answering model's response.
	Text string

	// Chunks are the chunks actually placed in the model context, most relevant first.
	Chunks []ScoredChunk

	// NoContext is true when retrieval produced nothing usable.
	NoContext bool

	// Model is the answering model that produced Text.
	Model string

	// Duration covers retrieval and generation.
	Duration time.Duration
}

// Sources returns the distinct paths cited by the answer, in rank order.
func (a *Answer) Sources() []string {
	if a == nil {
		return nil
	}
	r := RetrievalResult{Hits: a.Chunks}
	return r.Paths()
}
