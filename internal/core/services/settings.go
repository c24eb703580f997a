package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// valueKind is how a config key is parsed and stored.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
	kindList
	kindEmbeddingProvider
	kindLLMProvider
)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyMaxChunkSize   = "chunking.max_chunk_size"
	keyOverlapSize    = "chunking.overlap_size"
	keyRetrievalK     = "retrieval.k"
	keyFanout         = "retrieval.fanout"
	keyLexicalWeight  = "retrieval.lexical_weight"
	keySemanticWeight = "retrieval.semantic_weight"
	keyEmbedProvider  = "embedding.provider"
	keyEmbedAPIKey    = "embedding.api_key"
	keyLLMProvider    = "llm.provider"
	keyLLMAPIKey      = "llm.api_key"
	keyGitHubToken    = "github.token"
)

var settingKeys = map[string]valueKind{
	keyMaxChunkSize:                 kindInt,
	keyOverlapSize:                  kindInt,
	keyRetrievalK:                   kindInt,
	keyFanout:                       kindInt,
	keyLexicalWeight:                kindFloat,
	keySemanticWeight:               kindFloat,
	keyEmbedProvider:                kindEmbeddingProvider,
	"embedding.model":               kindString,
	"embedding.base_url":            kindString,
	keyEmbedAPIKey:                  kindString,
	"embedding.dimensions":          kindInt,
	"embedding.concurrency":         kindInt,
	"embedding.cache_size":          kindInt,
	"embedding.cache_path":          kindString,
	"embedding.requests_per_second": kindFloat,
	keyLLMProvider:                  kindLLMProvider,
	"llm.model":                     kindString,
	"llm.base_url":                  kindString,
	keyLLMAPIKey:                    kindString,
	"llm.max_tokens":                kindInt,
	"llm.temperature":               kindFloat,
	"answer.timeout":                kindDuration,
	"answer.context_budget":         kindInt,
	"answer.max_turns":              kindInt,
	"answer.max_history_chars":      kindInt,
	"source.max_file_size":          kindInt,
	"source.skip_dirs":              kindList,
	keyGitHubToken:                  kindString,
	"github.base_url":               kindString,
}

// secretKeys hold credentials and are masked when displayed.
var secretKeys = map[string]bool{
	keyEmbedAPIKey: true,
	keyLLMAPIKey:   true,
	keyGitHubToken: true,
}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	return secretKeys[key]
}

// SettingsService manages the keys of the config file.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Keys returns every supported key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the stored value of key, or its default when unset.
func (s *SettingsService) Get(key string) (string, bool, error) {
	kind, ok := settingKeys[key]
	if !ok {
		return "", false, unknownKey(key)
	}
	val, set := s.configStore.Get(key)
	if !set {
		return defaultValue(key), false, nil
	}
	if kind == kindList {
		return strings.Join(s.configStore.GetStringSlice(key), ","), true, nil
	}
	return fmt.Sprint(val), true, nil
}

// Set parses value for key, validates the resulting settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return unknownKey(key)
	}
	parsed, err := parseValue(kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := s.validateWith(key, parsed); err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return s.configStore.Save()
}

// Unset removes key so its default applies again.
func (s *SettingsService) Unset(key string) error {
	if _, ok := settingKeys[key]; !ok {
		return unknownKey(key)
	}
	if err := s.configStore.Delete(key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// IsSecret reports whether key holds a credential.
func (s *SettingsService) IsSecret(key string) bool {
	return IsSecret(key)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// validateWith checks the chunking and retrieval invariants as they would
// be after setting key to value.
func (s *SettingsService) validateWith(key string, value any) error {
	defaults := domain.DefaultAppSettings()

	intVal := func(k string, def int) int {
		if k == key {
			return int(value.(int64))
		}
		if _, ok := s.configStore.Get(k); !ok {
			return def
		}
		return s.configStore.GetInt(k)
	}
	floatVal := func(k string, def float64) float64 {
		if k == key {
			return value.(float64)
		}
		if _, ok := s.configStore.Get(k); !ok {
			return def
		}
		return s.configStore.GetFloat(k)
	}

	switch {
	case strings.HasPrefix(key, "chunking."):
		return domain.ChunkingSettings{
			MaxChunkSize: intVal(keyMaxChunkSize, defaults.Chunking.MaxChunkSize),
			OverlapSize:  intVal(keyOverlapSize, defaults.Chunking.OverlapSize),
		}.Validate()

	case strings.HasPrefix(key, "retrieval."):
		return domain.RetrievalSettings{
			K:              intVal(keyRetrievalK, defaults.Retrieval.K),
			Fanout:         intVal(keyFanout, defaults.Retrieval.Fanout),
			LexicalWeight:  floatVal(keyLexicalWeight, defaults.Retrieval.LexicalWeight),
			SemanticWeight: floatVal(keySemanticWeight, defaults.Retrieval.SemanticWeight),
		}.Validate()

	default:
		if kind := settingKeys[key]; kind == kindInt && value.(int64) < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, key)
		}
	}
	return nil
}

// parseValue converts a command-line value to the type stored in TOML.
func parseValue(kind valueKind, raw string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.ParseInt(raw, 10, 64)

	case kindFloat:
		return strconv.ParseFloat(raw, 64)

	case kindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("duration must not be negative")
		}
		return d.String(), nil

	case kindList:
		var out []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil

	case kindEmbeddingProvider:
		p := domain.AIProvider(raw)
		for _, valid := range domain.AllEmbeddingProviders() {
			if p == valid {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("unsupported embedding provider %q", raw)

	case kindLLMProvider:
		p := domain.AIProvider(raw)
		for _, valid := range domain.AllLLMProviders() {
			if p == valid {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("unsupported LLM provider %q", raw)

	default:
		return raw, nil
	}
}

// defaultValue renders the built-in default of key.
func defaultValue(key string) string {
	d := domain.DefaultAppSettings()
	switch key {
	case keyMaxChunkSize:
		return strconv.Itoa(d.Chunking.MaxChunkSize)
	case keyOverlapSize:
		return strconv.Itoa(d.Chunking.OverlapSize)
	case keyRetrievalK:
		return strconv.Itoa(d.Retrieval.K)
	case keyFanout:
		return strconv.Itoa(d.Retrieval.Fanout)
	case keyLexicalWeight:
		return strconv.FormatFloat(d.Retrieval.LexicalWeight, 'g', -1, 64)
	case keySemanticWeight:
		return strconv.FormatFloat(d.Retrieval.SemanticWeight, 'g', -1, 64)
	case keyEmbedProvider:
		return d.Embedding.Provider.String()
	case "embedding.model":
		return d.Embedding.Model
	case "embedding.concurrency":
		return strconv.Itoa(d.Embedding.Concurrency)
	case "embedding.cache_size":
		return strconv.Itoa(d.Embedding.CacheSize)
	case keyLLMProvider:
		return d.LLM.Provider.String()
	case "llm.model":
		return d.LLM.Model
	case "answer.timeout":
		return d.Answer.Timeout.String()
	case "answer.context_budget":
		return strconv.Itoa(d.Answer.ContextBudget)
	case "answer.max_history_chars":
		return strconv.Itoa(d.Answer.History.MaxChars)
	case "source.max_file_size":
		return strconv.FormatInt(d.Source.MaxFileSize, 10)
	}
	if settingKeys[key] == kindInt || settingKeys[key] == kindFloat {
		return "0"
	}
	return ""
}

func unknownKey(key string) error {
	return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
}
