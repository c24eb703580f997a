// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// AnswerCompleted carries the answer to a submitted question.
type AnswerCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// RebuildStarted signals a rebuild began after filesystem changes.
type RebuildStarted struct {
	Changes int
}

// RebuildCompleted signals the corpus was rebuilt after filesystem changes.
type RebuildCompleted struct {
	Report *domain.IngestReport
	Err    error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
