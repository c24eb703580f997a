package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/components/list"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question about the repository",
	Long: `Indexes the repository, retrieves the most relevant chunks for the
question and asks the answering model. The answer is followed by the source
files and byte ranges it was grounded on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, _, err := openRepository(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.Answerer == nil {
		return fmt.Errorf("%w: run 'git-llm-analyzer config check'", domain.ErrLLMUnavailable)
	}

	answer, err := svc.Answerer.Ask(cmd.Context(), strings.Join(args, " "), nil)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	printAnswer(cmd, answer)
	return nil
}

// printAnswer writes the answer text followed by its sources.
func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	if len(answer.Chunks) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i := range answer.Chunks {
		cmd.Printf("  - %s\n", list.FormatSource(&answer.Chunks[i]))
	}
}

// describeAskError adds a hint for errors the user can act on.
func describeAskError(err error) string {
	switch {
	case domain.Retryable(err):
		return fmt.Sprintf("Error: %v (you can ask again)", err)
	case errors.Is(err, domain.ErrInvalidInput):
		return "Please enter a question."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
