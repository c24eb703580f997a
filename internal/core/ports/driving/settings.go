package driving

import "github.com/avishayil/git-llm-analyzer/internal/core/domain"

// SettingsService reads and writes individual keys of the config file.
// Keys are dotted, e.g. "retrieval.k".
type SettingsService interface {
	// Keys returns every supported key in sorted order.
	Keys() []string

	// Get returns the stored value of key rendered as a string, or its
	// default when unset. set reports whether the file holds the key.
	Get(key string) (value string, set bool, err error)

	// Set parses value for key, validates it and persists it.
	Set(key, value string) error

	// Unset removes key from the file so its default applies again.
	Unset(key string) error

	// IsSecret reports whether key holds a credential that must be masked.
	IsSecret(key string) bool

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
