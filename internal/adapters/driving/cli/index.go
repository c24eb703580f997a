package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

var (
	indexWarnings bool
	indexJSON     bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the repository and print the ingest report",
	Long: `Loads every supported file of the repository, chunks it and builds the
lexical (BM25) and semantic indexes, then prints what was loaded and skipped.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexWarnings, "warnings", false, "list every skipped file")
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	svc, report, err := openRepository(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if indexJSON {
		return outputReportJSON(cmd, report)
	}
	printReport(cmd, report, indexWarnings)
	return nil
}

// reportJSON is the --json form of an ingest report.
type reportJSON struct {
	Name          string         `json:"name"`
	URL           string         `json:"url,omitempty"`
	Files         []string       `json:"files"`
	Kinds         map[string]int `json:"kinds"`
	Chunks        int            `json:"chunks"`
	Skipped       []warningJSON  `json:"skipped"`
	CorpusVersion string         `json:"corpus_version"`
	DurationMS    int64          `json:"duration_ms"`
}

type warningJSON struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

func outputReportJSON(cmd *cobra.Command, report *domain.IngestReport) error {
	out := reportJSON{
		Name:          report.Name,
		URL:           report.URL,
		Files:         report.FileNames,
		Kinds:         make(map[string]int, len(report.KindCounts)),
		Chunks:        report.Chunks,
		Skipped:       make([]warningJSON, 0, len(report.Warnings)),
		CorpusVersion: report.CorpusVersion,
		DurationMS:    report.Duration.Milliseconds(),
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	for k, n := range report.KindCounts {
		out.Kinds[string(k)] = n
	}
	for _, w := range report.Warnings {
		wj := warningJSON{Path: w.Path, Reason: w.Reason}
		if w.Err != nil {
			wj.Error = w.Err.Error()
		}
		out.Skipped = append(out.Skipped, wj)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport, listWarnings bool) {
	cmd.Printf("Repository: %s\n", report.Name)
	if report.URL != "" {
		cmd.Printf("Location:   %s\n", report.URL)
	}
	cmd.Printf("Files:      %d", report.Documents())
	if counts := report.FileTypeCounts(); counts != "" {
		cmd.Printf(" (%s)", counts)
	}
	cmd.Println()
	cmd.Printf("Chunks:     %d\n", report.Chunks)
	cmd.Printf("Version:    %s\n", report.CorpusVersion)

	summary := report.WarningSummary()
	if len(summary) == 0 {
		return
	}
	reasons := make([]string, 0, len(summary))
	for r := range summary {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)

	cmd.Printf("Skipped:    %d files\n", len(report.Warnings))
	for _, r := range reasons {
		cmd.Printf("  %-12s %d\n", r, summary[r])
	}

	if listWarnings {
		cmd.Println()
		for _, w := range report.Warnings {
			cmd.Printf("  %s\n", w.String())
		}
	}
}
