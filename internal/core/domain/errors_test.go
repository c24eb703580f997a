package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrIndexNotReady", ErrIndexNotReady},
		{"ErrEmbeddingDimensionMismatch", ErrEmbeddingDimensionMismatch},
		{"ErrAnsweringModel", ErrAnsweringModel},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrSourceClosed", ErrSourceClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestDimensionMismatchError(t *testing.T) {
	t.Run("matches sentinel", func(t *testing.T) {
		err := &DimensionMismatchError{Expected: 384, Got: 256, ChunkID: "c1"}
		assert.ErrorIs(t, err, ErrEmbeddingDimensionMismatch)
		assert.False(t, errors.Is(err, ErrIndexNotReady))
	})

	t.Run("matches when wrapped", func(t *testing.T) {
		err := fmt.Errorf("build semantic index: %w", &DimensionMismatchError{Expected: 384, Got: 256})
		assert.ErrorIs(t, err, ErrEmbeddingDimensionMismatch)

		var dm *DimensionMismatchError
		assert.True(t, errors.As(err, &dm))
		assert.Equal(t, 384, dm.Expected)
		assert.Equal(t, 256, dm.Got)
	})

	t.Run("message includes chunk", func(t *testing.T) {
		err := &DimensionMismatchError{Expected: 384, Got: 256, ChunkID: "c1"}
		assert.Contains(t, err.Error(), "chunk c1")
		assert.Contains(t, err.Error(), "expected 384, got 256")
	})
}

func TestAnsweringModelError(t *testing.T) {
	t.Run("matches sentinel and cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewAnsweringModelError("llama3.2", cause)

		assert.ErrorIs(t, err, ErrAnsweringModel)
		assert.ErrorIs(t, err, cause)
		assert.True(t, Retryable(err))
		assert.False(t, err.Timeout())
		assert.Contains(t, err.Error(), "llama3.2")
	})

	t.Run("timeout stays matchable", func(t *testing.T) {
		err := error(NewAnsweringModelError("", context.DeadlineExceeded))

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		var ame *AnsweringModelError
		assert.True(t, errors.As(err, &ame))
		assert.True(t, ame.Timeout())
		assert.True(t, Retryable(err))
	})

	t.Run("cancellation is terminal", func(t *testing.T) {
		err := error(NewAnsweringModelError("llama3.2", fmt.Errorf("send request: %w", context.Canceled)))

		assert.ErrorIs(t, err, ErrAnsweringModel)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, Retryable(err))
		assert.False(t, Retryable(fmt.Errorf("ask: %w", err)))
	})

	t.Run("zero value is not retryable", func(t *testing.T) {
		assert.False(t, Retryable(&AnsweringModelError{Err: errors.New("boom")}))
	})

	t.Run("other errors are not retryable", func(t *testing.T) {
		assert.False(t, Retryable(ErrIndexNotReady))
		assert.False(t, Retryable(nil))
	})
}
