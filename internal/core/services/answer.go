package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
	"github.com/avishayil/git-llm-analyzer/internal/metrics"
)

// Ensure AnswerService implements the interface.
var _ driving.Answerer = (*AnswerService)(nil)

// ReportProvider exposes the last ingest report, used to describe the
// repository in the prompt.
type ReportProvider interface {
	LastReport() *domain.IngestReport
}

// AnswerService answers questions from retrieved repository context.
type AnswerService struct {
	retriever driving.Retriever
	reports   ReportProvider
	llm       driven.LLMService
	prompts   driven.PromptStore
	k         int
	answer    domain.AnswerSettings
	llmOpts   driven.ChatOptions
	metrics   *metrics.Metrics
}

// NewAnswerService creates an answer service.
// llm may be nil, in which case Ask returns domain.ErrLLMUnavailable.
// reports and m may be nil.
func NewAnswerService(
	retriever driving.Retriever,
	reports ReportProvider,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.AppSettings,
	m *metrics.Metrics,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		reports:   reports,
		llm:       llm,
		prompts:   prompts,
		k:         settings.Retrieval.K,
		answer:    settings.Answer,
		llmOpts: driven.ChatOptions{
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
		},
		metrics: m,
	}
}

// Ask answers one question.
//
// The turn is appended to conv only when the answering model succeeds; on
// any error conv is left exactly as it was. Model failures and timeouts are
// returned as *domain.AnsweringModelError.
func (s *AnswerService) Ask(ctx context.Context, question string, conv *domain.Conversation) (*domain.Answer, error) {
	start := time.Now()

	q := NormaliseQuestion(question)
	if q == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		s.outcome("unavailable")
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Answer")
	logger.Debug("Question: %q", q)

	result, err := s.retriever.Retrieve(ctx, q, s.k)
	if err != nil {
		s.outcome("retrieval_error")
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	used := selectContext(result.Hits, s.answer.ContextBudget)
	if len(used) < len(result.Hits) {
		logger.Debug("Context budget kept %d of %d chunks", len(used), len(result.Hits))
	}

	messages, err := s.buildMessages(q, used, conv)
	if err != nil {
		s.outcome("prompt_error")
		return nil, err
	}

	callCtx := ctx
	if s.answer.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.answer.Timeout)
		defer cancel()
	}

	text, err := s.llm.Chat(callCtx, messages, s.llmOpts)
	if err != nil {
		modelErr := domain.NewAnsweringModelError(s.llm.ModelName(), err)
		switch {
		case modelErr.Timeout():
			s.outcome("timeout")
		case !modelErr.Retryable:
			s.outcome("canceled")
		default:
			s.outcome("error")
		}
		logger.Warn("Answering model failed: %v", err)
		return nil, modelErr
	}

	if conv != nil {
		conv.Append(domain.Turn{Question: q, Answer: text, At: time.Now()})
	}

	answer := &domain.Answer{
		Question:  q,
		Text:      text,
		Chunks:    used,
		NoContext: len(used) == 0,
		Model:     s.llm.ModelName(),
		Duration:  time.Since(start),
	}
	s.outcome("ok")
	if s.metrics != nil {
		s.metrics.AnswerDuration.Observe(answer.Duration.Seconds())
	}
	return answer, nil
}

// buildMessages renders the system and user messages.
func (s *AnswerService) buildMessages(q string, used []domain.ScoredChunk, conv *domain.Conversation) ([]driven.ChatMessage, error) {
	if s.prompts == nil {
		return nil, errors.New("no prompt store configured")
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return nil, fmt.Errorf("load answer prompt: %w", err)
	}

	var history string
	if conv != nil {
		history = domain.FormatHistory(conv.Window(s.answer.History))
	}

	var reportData *domain.IngestReport
	if s.reports != nil {
		reportData = s.reports.LastReport()
	}
	name, url, counts, names := repositoryFields(reportData)

	prompt, err := renderPrompt(tmpl, promptData{
		RepoName:  name,
		RepoURL:   url,
		History:   history,
		Documents: formatDocuments(used),
		Question:  q,
		FileCount: counts,
		FileNames: names,
	})
	if err != nil {
		return nil, err
	}

	var messages []driven.ChatMessage
	if system, err := s.prompts.Load(driven.PromptSystem); err == nil && system != "" {
		messages = append(messages, driven.ChatMessage{Role: "system", Content: system})
	}
	return append(messages, driven.ChatMessage{Role: "user", Content: prompt}), nil
}

func (s *AnswerService) outcome(label string) {
	if s.metrics != nil {
		s.metrics.Answers.WithLabelValues(label).Inc()
	}
}
