package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

// EnvPrefix prefixes every environment override, e.g. GLA_RETRIEVAL_K.
const EnvPrefix = "GLA_"

// DirName is the config directory under the user's home.
const DirName = ".git-llm-analyzer"

// DefaultPath returns ~/.git-llm-analyzer/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName, "config.toml"), nil
}

// Load reads defaults, then the TOML file at path (if it exists), then
// environment overrides. An empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	parser := Parser()

	if err := k.Load(rawbytes.Provider([]byte(defaults)), parser); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// No config file yet; defaults and env apply.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// OLLAMA_MODEL is honoured when no GLA_ override names the model.
	if m := os.Getenv("OLLAMA_MODEL"); m != "" && os.Getenv(EnvPrefix+"LLM_MODEL") == "" {
		cfg.LLM.Model = m
	}

	if err := cfg.Settings().Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps GLA_SECTION_FIELD_NAME to section.field_name.
// Only the first underscore after the prefix separates section from field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

// LoadSettings is Load followed by conversion to domain settings.
func LoadSettings(path string) (domain.AppSettings, error) {
	cfg, err := Load(path)
	if err != nil {
		return domain.AppSettings{}, err
	}
	return cfg.Settings(), nil
}
