package status

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/keymap"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_ViewByState(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		want    string
	}{
		{"ready without corpus", StateReady, "", "Ready"},
		{"thinking", StateThinking, "", "Thinking..."},
		{"rebuilding", StateRebuilding, "", "Rebuilding index..."},
		{"error with message", StateError, "model timed out", "Error: model timed out"},
		{"error without message", StateError, "", "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestStatusBar_CorpusSummary(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)
	bar.SetCorpus("my-repo", 42)
	bar.SetModel("llama3.2")

	view := bar.View()

	assert.Contains(t, view, "my-repo")
	assert.Contains(t, view, "42 chunks")
	assert.Contains(t, view, "llama3.2")
	assert.NotContains(t, view, "Ready")
}

func TestStatusBar_Hints(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)

	assert.Contains(t, bar.View(), "enter: ask")

	bar.SetState(StateThinking)
	view := bar.View()
	assert.NotContains(t, view, "enter: ask")
	assert.Contains(t, view, "esc: quit")
}

func TestStatusBar_FitsOnOneLine(t *testing.T) {
	for _, width := range []int{80, 100, 120} {
		bar := NewBar(nil, nil)
		bar.SetWidth(width)
		bar.SetCorpus("demo-repo", 12)
		bar.SetModel("llama3.2")

		for _, state := range []State{StateReady, StateThinking, StateRebuilding} {
			bar.SetState(state)
			view := bar.View()

			assert.NotContains(t, view, "\n", "width %d state %s", width, state)
			assert.Equal(t, width, lipgloss.Width(view), "width %d state %s", width, state)
			assert.True(t, strings.Contains(view, "esc: quit"), "width %d state %s", width, state)
		}
	}
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetCorpus("repo", 3)
	bar.SetState(StateError)
	bar.SetMessage("boom")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Contains(t, bar.View(), "repo")
}
