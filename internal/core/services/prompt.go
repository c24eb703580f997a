package services

import (
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// NoContextMessage replaces the document list when retrieval found nothing.
const NoContextMessage = "no relevant context found"

// maxPromptFileNames caps the file list rendered into the prompt.
const maxPromptFileNames = 200

// promptData holds the fields available to the answer template.
type promptData struct {
	RepoName  string
	RepoURL   string
	History   string
	Documents string
	Question  string
	FileCount string
	FileNames string
}

// renderPrompt executes an answer template.
func renderPrompt(text string, data promptData) (string, error) {
	tmpl, err := template.New("answer").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse answer prompt: %w", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render answer prompt: %w", err)
	}
	return b.String(), nil
}

// NormaliseQuestion collapses runs of whitespace and trims the question.
func NormaliseQuestion(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// selectContext keeps hits in rank order while their content fits in budget
// characters. A hit that does not fit is skipped; later, smaller hits may
// still fit. A non-positive budget keeps everything.
func selectContext(hits []domain.ScoredChunk, budget int) []domain.ScoredChunk {
	if budget <= 0 {
		return hits
	}
	used := make([]domain.ScoredChunk, 0, len(hits))
	remaining := budget
	for _, h := range hits {
		n := utf8.RuneCountInString(h.Chunk.Content)
		if n > remaining {
			continue
		}
		remaining -= n
		used = append(used, h)
	}
	return used
}

// formatDocuments numbers the chunks as "i. path: content", one per line.
func formatDocuments(chunks []domain.ScoredChunk) string {
	if len(chunks) == 0 {
		return NoContextMessage
	}
	lines := make([]string, len(chunks))
	for i, c := range chunks {
		lines[i] = fmt.Sprintf("%d. %s: %s", i+1, c.Chunk.Path, c.Chunk.Content)
	}
	return strings.Join(lines, "\n")
}

// repositoryFields fills the repository part of the prompt from a report.
func repositoryFields(report *domain.IngestReport) (name, url, counts, names string) {
	if report == nil {
		return "", "", "", ""
	}
	url = report.URL
	if url == "" {
		url = report.Root
	}
	return report.Name, url, report.FileTypeCounts(), fileList(report.FileNames, maxPromptFileNames)
}

// fileList joins the distinct names in order, keeping at most limit of them
// and noting how many were left out.
func fileList(names []string, limit int) string {
	seen := make(map[string]bool, len(names))
	kept := make([]string, 0, min(len(names), limit))
	omitted := 0
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if len(kept) == limit {
			omitted++
			continue
		}
		kept = append(kept, n)
	}
	list := strings.Join(kept, ", ")
	if omitted > 0 {
		list += fmt.Sprintf(" (and %d more)", omitted)
	}
	return list
}
