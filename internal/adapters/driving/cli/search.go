package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/tui/components/list"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// previewLen bounds the chunk preview printed per result.
const previewLen = 160

var (
	searchLimit int
	searchMode  string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed repository",
	Long: `Retrieves the chunks most relevant to a query without asking the
answering model. Hybrid mode combines keyword (BM25) and semantic (vector)
scores with weighted fusion; lexical and semantic query one index each.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = retrieval.k)")
	searchCmd.Flags().StringVar(&searchMode, "mode", string(domain.RetrievalHybrid), "lexical, semantic or hybrid")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode := domain.RetrievalMode(searchMode)
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, searchMode)
	}

	svc, _, err := openRepository(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.Retriever.Search(cmd.Context(), args[0], searchLimit, mode)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	outputSearchTable(cmd, result)
	return nil
}

// hitJSON is the --json form of one hit.
type hitJSON struct {
	Path     string  `json:"path"`
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Score    float64 `json:"score"`
	Index    string  `json:"index"`
	Lexical  float64 `json:"lexical,omitempty"`
	Semantic float64 `json:"semantic,omitempty"`
	Content  string  `json:"content"`
}

func outputSearchJSON(cmd *cobra.Command, result *domain.RetrievalResult) error {
	hits := make([]hitJSON, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = hitJSON{
			Path:     h.Chunk.Path,
			Start:    h.Chunk.Start,
			End:      h.Chunk.End,
			Score:    h.Score,
			Index:    string(h.Tag),
			Lexical:  h.Lexical,
			Semantic: h.Semantic,
			Content:  h.Chunk.Content,
		}
	}

	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result *domain.RetrievalResult) {
	if result.IsEmpty() {
		cmd.Println("No results found.")
		return
	}

	cmd.Printf("Results (%s):\n", result.Mode)
	cmd.Println()
	for i := range result.Hits {
		hit := &result.Hits[i]
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, list.FormatSource(hit), hit.Score)
		if p := preview(hit.Chunk.Content); p != "" {
			cmd.Printf("      %s\n", p)
		}
		cmd.Println()
	}
}

// preview collapses whitespace and truncates content to one line.
func preview(content string) string {
	p := strings.Join(strings.Fields(content), " ")
	if r := []rune(p); len(r) > previewLen {
		p = string(r[:previewLen-3]) + "..."
	}
	return p
}
