package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLocal is the built-in hashing embedder. Embeddings only.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderNone disables the service.
	AIProviderNone AIProvider = "none"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Local (feature hashing, no network)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderNone:
		return "Disabled"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's known dimensionality. Zero keeps the default.
	Dimensions int

	// Concurrency bounds parallel embedding requests during a build.
	Concurrency int

	// CacheSize is the number of query embeddings kept in memory.
	CacheSize int

	// CachePath enables the persistent embedding cache when set.
	CachePath string

	// RequestsPerSecond throttles remote providers. Zero means unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds answering model configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// MaxTokens caps the answer length. Zero uses the provider default.
	MaxTokens int

	// Temperature controls randomness.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings configures the chunker.
type ChunkingSettings struct {
	// MaxChunkSize is the maximum chunk length in bytes.
	MaxChunkSize int

	// OverlapSize is the maximum overlap between consecutive chunks in bytes.
	OverlapSize int
}

// Validate checks the chunking bounds.
func (c ChunkingSettings) Validate() error {
	if c.MaxChunkSize < MinChunkSize {
		return fmt.Errorf("%w: max_chunk_size must be at least %d, got %d",
			ErrInvalidInput, MinChunkSize, c.MaxChunkSize)
	}
	if c.OverlapSize < 0 || c.OverlapSize >= c.MaxChunkSize {
		return fmt.Errorf("%w: overlap_size must be in [0, %d), got %d",
			ErrInvalidInput, c.MaxChunkSize, c.OverlapSize)
	}
	return nil
}

// MinChunkSize is the smallest usable chunk size in bytes.
// It leaves room for at least one multi-byte rune per chunk.
const MinChunkSize = 8

// RetrievalSettings configures the hybrid retriever.
type RetrievalSettings struct {
	// K is the number of chunks returned per query.
	K int

	// Fanout multiplies K for the per-index requests made before fusion.
	Fanout int

	// LexicalWeight scales the normalised BM25 score.
	LexicalWeight float64

	// SemanticWeight scales the normalised similarity score.
	SemanticWeight float64
}

// Validate checks the retrieval parameters.
func (r RetrievalSettings) Validate() error {
	if r.K <= 0 {
		return fmt.Errorf("%w: retrieval k must be positive, got %d", ErrInvalidInput, r.K)
	}
	if r.Fanout < 1 {
		return fmt.Errorf("%w: retrieval fanout must be at least 1, got %d", ErrInvalidInput, r.Fanout)
	}
	if r.LexicalWeight < 0 || r.SemanticWeight < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", ErrInvalidInput)
	}
	if r.LexicalWeight == 0 && r.SemanticWeight == 0 {
		return fmt.Errorf("%w: at least one fusion weight must be positive", ErrInvalidInput)
	}
	return nil
}

// AnswerSettings configures the answer orchestrator.
type AnswerSettings struct {
	// Timeout bounds one answering-model call.
	Timeout time.Duration

	// ContextBudget is the maximum number of characters of retrieved content
	// placed in the prompt.
	ContextBudget int

	// History is the truncation policy applied to the conversation.
	History TruncationPolicy
}

// SourceSettings configures repository walking.
type SourceSettings struct {
	// MaxFileSize skips larger files.
	MaxFileSize int64

	// SkipDirs are extra directory names never descended into.
	SkipDirs []string
}

// GitHubSettings configures the GitHub archive source.
type GitHubSettings struct {
	// Token is an optional personal access token.
	Token string

	// BaseURL points at a GitHub Enterprise API. Empty uses github.com.
	BaseURL string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Answer    AnswerSettings
	Source    SourceSettings
	GitHub    GitHubSettings
}

// Validate checks every section that has invariants.
func (s AppSettings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	return s.Retrieval.Validate()
}

// DefaultAppSettings returns settings with sensible defaults.
// The local embedder needs no network, so semantic retrieval works out of the box.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			MaxChunkSize: 3000,
			OverlapSize:  200,
		},
		Retrieval: RetrievalSettings{
			K:              5,
			Fanout:         2,
			LexicalWeight:  0.5,
			SemanticWeight: 0.5,
		},
		Embedding: EmbeddingSettings{
			Provider:    AIProviderLocal,
			Model:       "hashing-384",
			Concurrency: 4,
			CacheSize:   1024,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "llama3.2",
		},
		Answer: AnswerSettings{
			Timeout:       120 * time.Second,
			ContextBudget: 12000,
			History:       TruncationPolicy{MaxChars: 8000},
		},
		Source: SourceSettings{
			MaxFileSize: 1 << 20,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "hashing-384",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Built-in
		"hashing-384": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
