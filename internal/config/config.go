// Package config loads application settings from built-in defaults, the TOML
// config file and GLA_ environment variables, in that order of precedence.
package config

import (
	"time"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// Config mirrors the TOML file layout.
type Config struct {
	Chunking  ChunkingConfig  `koanf:"chunking"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	LLM       LLMConfig       `koanf:"llm"`
	Answer    AnswerConfig    `koanf:"answer"`
	Source    SourceConfig    `koanf:"source"`
	GitHub    GitHubConfig    `koanf:"github"`
}

// ChunkingConfig configures the chunker.
type ChunkingConfig struct {
	MaxChunkSize int `koanf:"max_chunk_size"`
	OverlapSize  int `koanf:"overlap_size"`
}

// RetrievalConfig configures the hybrid retriever.
type RetrievalConfig struct {
	K              int     `koanf:"k"`
	Fanout         int     `koanf:"fanout"`
	LexicalWeight  float64 `koanf:"lexical_weight"`
	SemanticWeight float64 `koanf:"semantic_weight"`
}

// EmbeddingConfig configures the embedding function.
type EmbeddingConfig struct {
	Provider          string  `koanf:"provider"`
	Model             string  `koanf:"model"`
	BaseURL           string  `koanf:"base_url"`
	APIKey            string  `koanf:"api_key"`
	Dimensions        int     `koanf:"dimensions"`
	Concurrency       int     `koanf:"concurrency"`
	CacheSize         int     `koanf:"cache_size"`
	CachePath         string  `koanf:"cache_path"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// LLMConfig configures the answering model.
type LLMConfig struct {
	Provider    string  `koanf:"provider"`
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
}

// AnswerConfig configures the answer orchestrator.
type AnswerConfig struct {
	Timeout         time.Duration `koanf:"timeout"`
	ContextBudget   int           `koanf:"context_budget"`
	MaxTurns        int           `koanf:"max_turns"`
	MaxHistoryChars int           `koanf:"max_history_chars"`
}

// SourceConfig configures repository walking.
type SourceConfig struct {
	MaxFileSize int64    `koanf:"max_file_size"`
	SkipDirs    []string `koanf:"skip_dirs"`
}

// GitHubConfig configures the GitHub archive source.
type GitHubConfig struct {
	Token   string `koanf:"token"`
	BaseURL string `koanf:"base_url"`
}

// Settings converts the file layout into domain settings.
func (c *Config) Settings() domain.AppSettings {
	return domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			MaxChunkSize: c.Chunking.MaxChunkSize,
			OverlapSize:  c.Chunking.OverlapSize,
		},
		Retrieval: domain.RetrievalSettings{
			K:              c.Retrieval.K,
			Fanout:         c.Retrieval.Fanout,
			LexicalWeight:  c.Retrieval.LexicalWeight,
			SemanticWeight: c.Retrieval.SemanticWeight,
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.AIProvider(c.Embedding.Provider),
			Model:             c.Embedding.Model,
			BaseURL:           c.Embedding.BaseURL,
			APIKey:            c.Embedding.APIKey,
			Dimensions:        c.Embedding.Dimensions,
			Concurrency:       c.Embedding.Concurrency,
			CacheSize:         c.Embedding.CacheSize,
			CachePath:         c.Embedding.CachePath,
			RequestsPerSecond: c.Embedding.RequestsPerSecond,
		},
		LLM: domain.LLMSettings{
			Provider:    domain.AIProvider(c.LLM.Provider),
			Model:       c.LLM.Model,
			BaseURL:     c.LLM.BaseURL,
			APIKey:      c.LLM.APIKey,
			MaxTokens:   c.LLM.MaxTokens,
			Temperature: c.LLM.Temperature,
		},
		Answer: domain.AnswerSettings{
			Timeout:       c.Answer.Timeout,
			ContextBudget: c.Answer.ContextBudget,
			History: domain.TruncationPolicy{
				MaxTurns: c.Answer.MaxTurns,
				MaxChars: c.Answer.MaxHistoryChars,
			},
		},
		Source: domain.SourceSettings{
			MaxFileSize: c.Source.MaxFileSize,
			SkipDirs:    c.Source.SkipDirs,
		},
		GitHub: domain.GitHubSettings{
			Token:   c.GitHub.Token,
			BaseURL: c.GitHub.BaseURL,
		},
	}
}
