package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui"
	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/messages"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
)

// maxQuestionBytes bounds one line read by the plain chat loop.
const maxQuestionBytes = 1 << 20

var (
	chatWatch bool
	chatPlain bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session",
	Long: `Indexes the repository and starts a conversation about it. Earlier
questions and answers are sent along as context for follow-ups.

In a terminal a full-screen chat UI is used; otherwise (or with --plain)
questions are read line by line from stdin. Type exit() to end the session.

Controls:
  Enter      - Ask
  ↑/↓        - Recall earlier questions
  PgUp/PgDn  - Scroll the transcript
  Ctrl+L     - Start a new conversation
  F1         - Toggle help
  Esc        - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatWatch, "watch", false, "rebuild the index when repository files change")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "read questions line by line instead of the chat UI")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, _, err := openRepository(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.Answerer == nil {
		return fmt.Errorf("%w: run 'git-llm-analyzer config check'", domain.ErrLLMUnavailable)
	}

	if !chatPlain && isTerminal(cmd) {
		return runChatTUI(cmd, svc)
	}
	return runChatLoop(cmd, svc)
}

// isTerminal reports whether both stdin and stdout are terminals.
func isTerminal(cmd *cobra.Command) bool {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	out, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}

func runChatTUI(cmd *cobra.Command, svc *Services) (err error) {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat UI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("chat UI crashed: %v", r)
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(svc.Answerer, svc.Ingester))
	if err != nil {
		return fmt.Errorf("failed to create chat UI: %w", err)
	}
	app.WithContext(cmd.Context()).WithModel(svc.Model)

	if chatWatch {
		events := make(chan tea.Msg, 8)
		// Never block the rebuilder once the UI has stopped reading.
		send := func(msg tea.Msg) {
			select {
			case events <- msg:
			default:
			}
		}
		stop, err := startWatch(cmd, svc, WatchHooks{
			OnStart: func(changes int) { send(messages.RebuildStarted{Changes: changes}) },
			OnDone: func(report *domain.IngestReport, err error) {
				send(messages.RebuildCompleted{Report: report, Err: err})
			},
		})
		if err != nil {
			return err
		}
		defer stop()
		app.WithRebuilds(events)
	}

	// Log lines would tear the alternate screen.
	if !logger.IsVerbose() {
		logger.SetOutput(io.Discard)
		defer logger.SetOutput(os.Stderr)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}

// runChatLoop reads one question per line until exit() or end of input.
func runChatLoop(cmd *cobra.Command, svc *Services) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if chatWatch {
		stop, err := startWatch(cmd, svc, WatchHooks{
			OnDone: func(report *domain.IngestReport, err error) {
				if err != nil {
					cmd.PrintErrf("[rebuild failed, keeping the previous index: %v]\n", err)
					return
				}
				cmd.PrintErrf("[index rebuilt: %d files, %d chunks]\n", report.Documents(), report.Chunks)
			},
		})
		if err != nil {
			return err
		}
		defer stop()
	}

	conv := domain.NewConversation()
	defer conv.Reset()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), maxQuestionBytes)

	cmd.Println("Ask a question about the repository. Type exit() to quit.")
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			break
		}

		line := scanner.Text()
		if tui.IsExitCommand(line) {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		answer, err := svc.Answerer.Ask(ctx, line, conv)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cmd.PrintErrln(describeAskError(err))
			continue
		}
		printAnswer(cmd, answer)
		cmd.Println()
	}

	return scanner.Err()
}
