package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/components/input"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/components/list"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/components/status"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/keymap"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/messages"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/styles"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// chrome is the number of lines taken by everything except the transcript:
// header, bordered input (3) and status bar.
const chrome = 5

type entryKind int

const (
	entryQuestion entryKind = iota
	entryAnswer
	entryError
	entryNote
	entryWarning
)

// entry is one block of the transcript. Entries are re-rendered on resize.
type entry struct {
	kind   entryKind
	text   string
	answer *domain.Answer
}

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	input    *input.QuestionInput
	bar      *status.Bar
	sources  *list.SourceList
	viewport viewport.Model
	spinner  spinner.Model

	// conv is the session's conversation, appended to by the answer service.
	conv *domain.Conversation

	// entries is the rendered transcript.
	entries []entry

	// rebuilds delivers watch rebuild events when --watch is on.
	rebuilds <-chan tea.Msg

	// thinking is true while a question is in flight.
	thinking bool

	// showHelp toggles the full keybinding help.
	showHelp bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its first window size.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{
		PageUp:   km.ScrollUp,
		PageDown: km.ScrollDown,
	}

	a := &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		keymap:   km,
		input:    input.NewQuestionInput(s),
		bar:      status.NewBar(s, km),
		sources:  list.NewSourceList(s),
		viewport: vp,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner)),
		conv:     domain.NewConversation(),
		width:    80,
		height:   24,
	}

	if ports.Ingester != nil {
		if report := ports.Ingester.LastReport(); report != nil {
			a.bar.SetCorpus(report.Name, report.Chunks)
		}
	}

	return a, nil
}

// WithContext sets the context for the app. Cancelling it aborts an
// in-flight question.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithModel shows the answering model name in the status bar.
func (a *App) WithModel(name string) *App {
	a.bar.SetModel(name)
	return a
}

// WithRebuilds subscribes the app to watch rebuild events. The channel
// carries messages.RebuildStarted and messages.RebuildCompleted values.
func (a *App) WithRebuilds(ch <-chan tea.Msg) *App {
	a.rebuilds = ch
	return a
}

// Conversation returns the session's conversation.
func (a *App) Conversation() *domain.Conversation {
	return a.conv
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("git-llm-analyzer"),
		a.input.Init(),
	}
	if a.rebuilds != nil {
		cmds = append(cmds, a.waitForRebuild())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.resize()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		if !a.thinking {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.AnswerCompleted:
		a.handleAnswer(msg)
		return a, a.input.Focus()

	case messages.RebuildStarted:
		if !a.thinking {
			a.bar.SetState(status.StateRebuilding)
		}
		return a, a.waitForRebuild()

	case messages.RebuildCompleted:
		a.handleRebuild(msg)
		return a, a.waitForRebuild()

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.bar.SetState(status.StateError)
		a.bar.SetMessage(msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, a.quit()
	}

	return a, nil
}

// handleKey routes key presses: global bindings first, then the input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, a.quit()

	case key.Matches(msg, a.keymap.Help):
		a.showHelp = !a.showHelp
		a.resize()
		return a, nil

	case key.Matches(msg, a.keymap.ScrollUp), key.Matches(msg, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	if a.thinking {
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keymap.Clear):
		a.conv.Reset()
		a.entries = nil
		a.err = nil
		a.bar.Clear()
		a.addEntry(entry{kind: entryNote, text: "Started a new conversation."})
		return a, nil

	case key.Matches(msg, a.keymap.Submit):
		return a, a.submit()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit sends the current input as a question.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" {
		return nil
	}
	if IsExitCommand(question) {
		return a.quit()
	}

	a.input.Remember(question)
	a.input.Reset()
	a.input.Blur()
	a.thinking = true
	a.err = nil
	a.bar.SetState(status.StateThinking)
	a.addEntry(entry{kind: entryQuestion, text: question})

	return tea.Batch(a.askCmd(question), a.spinner.Tick)
}

// askCmd runs the question through the answer service.
func (a *App) askCmd(question string) tea.Cmd {
	answerer := a.ports.Answerer
	ctx := a.ctx
	conv := a.conv
	return func() tea.Msg {
		answer, err := answerer.Ask(ctx, question, conv)
		return messages.AnswerCompleted{Question: question, Answer: answer, Err: err}
	}
}

func (a *App) handleAnswer(msg messages.AnswerCompleted) {
	a.thinking = false

	if msg.Err != nil {
		a.err = msg.Err
		a.bar.SetState(status.StateError)
		a.bar.SetMessage(shortError(msg.Err))

		text := "Error: " + msg.Err.Error()
		if domain.Retryable(msg.Err) {
			text += " (press enter on the same question to retry)"
			a.input.SetValue(msg.Question)
		}
		a.addEntry(entry{kind: entryError, text: text})
		return
	}

	a.bar.Clear()
	if msg.Answer.Model != "" {
		a.bar.SetModel(msg.Answer.Model)
	}
	a.addEntry(entry{kind: entryAnswer, answer: msg.Answer})
}

func (a *App) handleRebuild(msg messages.RebuildCompleted) {
	if !a.thinking {
		a.bar.Clear()
	}

	if msg.Err != nil {
		a.addEntry(entry{
			kind: entryWarning,
			text: fmt.Sprintf("Rebuild failed, keeping the previous index: %v", msg.Err),
		})
		return
	}
	if msg.Report == nil {
		return
	}

	a.bar.SetCorpus(msg.Report.Name, msg.Report.Chunks)
	a.addEntry(entry{
		kind: entryNote,
		text: fmt.Sprintf("Index rebuilt: %d files, %d chunks.", msg.Report.Documents(), msg.Report.Chunks),
	})
}

// waitForRebuild blocks on the next rebuild event.
func (a *App) waitForRebuild() tea.Cmd {
	ch := a.rebuilds
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return <-ch
	}
}

// quit ends the session. The conversation is discarded.
func (a *App) quit() tea.Cmd {
	a.conv.Reset()
	return tea.Quit
}

func (a *App) addEntry(e entry) {
	a.entries = append(a.entries, e)
	a.refresh()
}

// resize lays out the components for the current terminal size.
func (a *App) resize() {
	a.input.SetWidth(a.width)
	a.bar.SetWidth(a.width)
	a.sources.SetWidth(a.width)

	height := a.height - chrome
	if a.showHelp {
		height--
	}
	if height < 1 {
		height = 1
	}
	a.viewport.Width = a.width
	a.viewport.Height = height
	a.refresh()
}

// refresh re-renders the transcript and scrolls to the newest entry.
func (a *App) refresh() {
	blocks := make([]string, 0, len(a.entries))
	for i := range a.entries {
		blocks = append(blocks, a.renderEntry(&a.entries[i]))
	}
	a.viewport.SetContent(strings.Join(blocks, "\n\n"))
	a.viewport.GotoBottom()
}

func (a *App) renderEntry(e *entry) string {
	wrap := a.width - 2
	if wrap < 20 {
		wrap = 20
	}

	switch e.kind {
	case entryQuestion:
		return a.styles.Title.Render("> ") + a.styles.Question.Width(wrap).Render(e.text)
	case entryAnswer:
		text := a.styles.Answer.Width(wrap).Render(e.answer.Text)
		a.sources.SetSources(e.answer.Chunks)
		if sources := a.sources.View(); sources != "" {
			text += "\n" + sources
		}
		return text
	case entryError:
		return a.styles.Error.Width(wrap).Render(e.text)
	case entryWarning:
		return a.styles.Warning.Width(wrap).Render(e.text)
	default:
		return a.styles.Muted.Width(wrap).Render(e.text)
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	header := a.styles.Title.Render("git-llm-analyzer") +
		a.styles.Muted.Render(fmt.Sprintf("  %d turns", a.conv.Len()))

	var prompt string
	if a.thinking {
		// Match the bordered input height so the layout does not jump.
		prompt = "\n " + a.spinner.View() + a.styles.Muted.Render(" Thinking...") + "\n"
	} else {
		prompt = a.input.View()
	}

	parts := []string{header, a.viewport.View(), prompt, a.bar.View()}
	if a.showHelp {
		parts = append(parts, a.renderHelp())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderHelp() string {
	groups := a.keymap.FullHelp()
	hints := make([]string, 0, len(groups)*2)
	for _, group := range groups {
		for _, b := range group {
			h := b.Help()
			hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
		}
	}
	return a.styles.Help.Render(strings.Join(hints, " · "))
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Thinking reports whether a question is in flight.
func (a *App) Thinking() bool {
	return a.thinking
}

// shortError keeps the status bar to the outermost cause.
func shortError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "answering model timed out"
	case errors.Is(err, domain.ErrAnsweringModel):
		return "answering model failed"
	case errors.Is(err, domain.ErrIndexNotReady):
		return "index not ready"
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "no answering model configured"
	default:
		return err.Error()
	}
}
