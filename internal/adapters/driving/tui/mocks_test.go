package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
)

// mockAnswerer implements driving.Answerer for testing.
type mockAnswerer struct {
	mu       sync.Mutex
	answer   *domain.Answer
	err      error
	calls    int
	lastConv *domain.Conversation
}

func (m *mockAnswerer) Ask(_ context.Context, question string, conv *domain.Conversation) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastConv = conv
	if m.err != nil {
		return nil, m.err
	}
	if conv != nil {
		conv.Append(domain.Turn{Question: question, Answer: m.answer.Text})
	}
	return m.answer, nil
}

// mockIngester implements driving.Ingester for testing.
type mockIngester struct {
	report *domain.IngestReport
}

func (m *mockIngester) Ingest(_ context.Context, _ driven.RepositorySource) (*domain.IngestReport, error) {
	return m.report, nil
}

func (m *mockIngester) LastReport() *domain.IngestReport {
	return m.report
}

// runCmd executes cmd and any batches it produces, returning every message.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}
