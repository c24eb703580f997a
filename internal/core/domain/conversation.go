package domain

import (
	"strings"
	"sync"
	"time"
)

// Turn is one answered question.
type Turn struct {
	Question string
	Answer   string
	At       time.Time
}

// TruncationPolicy bounds how much history is handed to the answering model.
// Zero fields mean no limit.
type TruncationPolicy struct {
	// MaxTurns keeps only the most recent turns.
	MaxTurns int

	// MaxChars keeps the most recent turns whose rendered history fits.
	MaxChars int
}

// Conversation is the append-only log of a chat session.
// Only successful turns are appended; Reset clears it at session end.
type Conversation struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append records a completed turn.
func (c *Conversation) Append(t Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, t)
}

// Turns returns a copy of all turns, oldest first.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Reset drops every turn.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}

// Window returns the most recent turns allowed by the policy, oldest first.
// The log itself is never modified.
func (c *Conversation) Window(p TruncationPolicy) []Turn {
	turns := c.Turns()
	if p.MaxTurns > 0 && len(turns) > p.MaxTurns {
		turns = turns[len(turns)-p.MaxTurns:]
	}
	if p.MaxChars <= 0 {
		return turns
	}

	total := 0
	first := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		n := len(FormatTurn(turns[i]))
		if total+n > p.MaxChars {
			break
		}
		total += n
		first = i
	}
	return turns[first:]
}

// FormatTurn renders one turn the way it is shown to the answering model.
func FormatTurn(t Turn) string {
	return "Question: " + t.Question + "\nAnswer: " + t.Answer + "\n"
}

// FormatHistory renders turns oldest first.
func FormatHistory(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(FormatTurn(t))
	}
	return b.String()
}
