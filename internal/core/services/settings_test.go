package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driven/storage/memory"
	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

func TestSettingsService_GetDefaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	tests := []struct {
		key  string
		want string
	}{
		{"retrieval.k", "5"},
		{"retrieval.lexical_weight", "0.5"},
		{"chunking.max_chunk_size", "3000"},
		{"embedding.provider", "local"},
		{"answer.timeout", "2m0s"},
		{"llm.api_key", ""},
		{"embedding.dimensions", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, set, err := svc.Get(tt.key)
			require.NoError(t, err)
			assert.False(t, set)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_SetAndGet(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	require.NoError(t, svc.Set("retrieval.k", " 8 "))
	require.NoError(t, svc.Set("retrieval.semantic_weight", "0.7"))
	require.NoError(t, svc.Set("answer.timeout", "90s"))
	require.NoError(t, svc.Set("source.skip_dirs", "dist, build,,"))
	require.NoError(t, svc.Set("llm.provider", "anthropic"))

	got, set, err := svc.Get("retrieval.k")
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, "8", got)
	assert.Equal(t, 8, store.GetInt("retrieval.k"))

	assert.InDelta(t, 0.7, store.GetFloat("retrieval.semantic_weight"), 1e-9)
	assert.Equal(t, "1m30s", store.GetString("answer.timeout"))
	assert.Equal(t, []string{"dist", "build"}, store.GetStringSlice("source.skip_dirs"))

	got, _, err = svc.Get("source.skip_dirs")
	require.NoError(t, err)
	assert.Equal(t, "dist,build", got)
}

func TestSettingsService_SetRejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "retrieval.nope", "1"},
		{"not an int", "retrieval.k", "many"},
		{"zero k", "retrieval.k", "0"},
		{"zero fanout", "retrieval.fanout", "0"},
		{"negative weight", "retrieval.lexical_weight", "-0.1"},
		{"chunk too small", "chunking.max_chunk_size", "4"},
		{"overlap not below size", "chunking.overlap_size", "3000"},
		{"negative int", "answer.context_budget", "-1"},
		{"bad duration", "answer.timeout", "soon"},
		{"negative duration", "answer.timeout", "-5s"},
		{"unknown embedding provider", "embedding.provider", "anthropic"},
		{"unknown llm provider", "llm.provider", "local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			svc := NewSettingsService(store)

			err := svc.Set(tt.key, tt.value)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			_, set := store.Get(tt.key)
			assert.False(t, set)
		})
	}
}

func TestSettingsService_ValidatesAgainstStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	require.NoError(t, svc.Set("retrieval.semantic_weight", "0"))

	// Zeroing the other weight would leave no positive weight.
	err := svc.Set("retrieval.lexical_weight", "0")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// The default overlap is larger than the new size.
	assert.ErrorIs(t, svc.Set("chunking.max_chunk_size", "100"), domain.ErrInvalidInput)
	require.NoError(t, svc.Set("chunking.overlap_size", "50"))
	require.NoError(t, svc.Set("chunking.max_chunk_size", "100"))
	assert.ErrorIs(t, svc.Set("chunking.overlap_size", "100"), domain.ErrInvalidInput)
	assert.NoError(t, svc.Set("chunking.overlap_size", "99"))
}

func TestSettingsService_Unset(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	require.NoError(t, svc.Set("retrieval.k", "9"))
	require.NoError(t, svc.Unset("retrieval.k"))

	got, set, err := svc.Get("retrieval.k")
	require.NoError(t, err)
	assert.False(t, set)
	assert.Equal(t, "5", got)

	assert.ErrorIs(t, svc.Unset("bogus"), domain.ErrInvalidInput)
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore()).Keys()

	assert.Contains(t, keys, "retrieval.k")
	assert.Contains(t, keys, "github.token")
	assert.IsIncreasing(t, keys)
}

func TestIsSecret(t *testing.T) {
	assert.True(t, IsSecret("llm.api_key"))
	assert.True(t, IsSecret("github.token"))
	assert.False(t, IsSecret("llm.model"))
}
