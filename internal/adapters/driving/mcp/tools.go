package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find code and documentation"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of chunks to return (default: configured k)"`
	Mode  string `json:"mode,omitempty" jsonschema:"lexical, semantic or hybrid (default hybrid)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results       []ChunkOutput `json:"results"`
	Count         int           `json:"count"`
	Mode          string        `json:"mode"`
	CorpusVersion string        `json:"corpus_version"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	ChunkID string  `json:"chunk_id"`
	Path    string  `json:"path"`
	Start   int     `json:"start"`
	End     int     `json:"end"`
	Score   float64 `json:"score"`
	Index   string  `json:"index"`
	Content string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"a question about the repository"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string        `json:"answer"`
	Model     string        `json:"model"`
	NoContext bool          `json:"no_context"`
	Sources   []ChunkOutput `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the indexed repository for relevant code and documentation chunks",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about the indexed repository using retrieved context",
	}, s.handleAsk)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	mode := domain.RetrievalHybrid
	if input.Mode != "" {
		mode = domain.RetrievalMode(input.Mode)
	}

	result, err := s.ports.Retriever.Search(ctx, input.Query, input.Limit, mode)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:       chunkOutputs(result.Hits),
		Count:         len(result.Hits),
		Mode:          result.Mode.String(),
		CorpusVersion: result.CorpusVersion,
	}
	return nil, output, nil
}

// handleAsk handles the ask tool invocation. Every call is single-shot.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Answerer == nil {
		return nil, AskOutput{}, fmt.Errorf("ask: %w", domain.ErrLLMUnavailable)
	}

	answer, err := s.ports.Answerer.Ask(ctx, input.Question, nil)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		Model:     answer.Model,
		NoContext: answer.NoContext,
		Sources:   chunkOutputs(answer.Chunks),
	}
	return nil, output, nil
}

func chunkOutputs(hits []domain.ScoredChunk) []ChunkOutput {
	out := make([]ChunkOutput, len(hits))
	for i := range hits {
		c := hits[i].Chunk
		out[i] = ChunkOutput{
			ChunkID: c.ID,
			Path:    c.Path,
			Start:   c.Start,
			End:     c.End,
			Score:   hits[i].Score,
			Index:   string(hits[i].Tag),
			Content: c.Content,
		}
	}
	return out
}
