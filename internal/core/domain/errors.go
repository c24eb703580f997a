package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, source or normaliser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIndexNotReady indicates a query arrived before the first successful build.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrEmbeddingDimensionMismatch indicates an embedding whose length differs
	// from the declared dimensionality. Fatal for a build.
	ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrAnsweringModel indicates the answering model failed or timed out.
	// The caller may retry; conversation state is unchanged.
	ErrAnsweringModel = errors.New("answering model error")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSourceClosed indicates the repository source has been closed.
	ErrSourceClosed = errors.New("source closed")
)

// DimensionMismatchError carries the details of an embedding length mismatch.
type DimensionMismatchError struct {
	Expected int
	Got      int
	ChunkID  string
}

// Error implements the error interface.
func (e *DimensionMismatchError) Error() string {
	if e.ChunkID == "" {
		return fmt.Sprintf("%s: expected %d, got %d", ErrEmbeddingDimensionMismatch, e.Expected, e.Got)
	}
	return fmt.Sprintf("%s: chunk %s: expected %d, got %d",
		ErrEmbeddingDimensionMismatch, e.ChunkID, e.Expected, e.Got)
}

// Is matches ErrEmbeddingDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrEmbeddingDimensionMismatch
}

// AnsweringModelError wraps a failed answering-model call.
type AnsweringModelError struct {
	// Model is the model that failed.
	Model string

	// Err is the underlying cause.
	Err error

	// Retryable is false when asking again cannot help, such as after the
	// caller cancelled the request.
	Retryable bool
}

// NewAnsweringModelError wraps err. Cancellation is terminal; timeouts and
// upstream failures are retryable.
func NewAnsweringModelError(model string, err error) *AnsweringModelError {
	return &AnsweringModelError{
		Model:     model,
		Err:       err,
		Retryable: !errors.Is(err, context.Canceled),
	}
}

// Error implements the error interface.
func (e *AnsweringModelError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%s: %v", ErrAnsweringModel, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", ErrAnsweringModel, e.Model, e.Err)
}

// Unwrap returns the underlying cause so context errors stay matchable.
func (e *AnsweringModelError) Unwrap() error {
	return e.Err
}

// Is matches ErrAnsweringModel.
func (e *AnsweringModelError) Is(target error) bool {
	return target == ErrAnsweringModel
}

// Timeout reports whether the call ran out of time.
func (e *AnsweringModelError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Retryable reports whether err is worth retrying by the caller.
func Retryable(err error) bool {
	var modelErr *AnsweringModelError
	return errors.As(err, &modelErr) && modelErr.Retryable
}
