// Package local provides a feature-hashing embedding service that runs
// without a model server.
//
// Words and character trigrams are hashed into a fixed number of buckets
// with a sign bit, then the vector is L2-normalised. Texts that share
// vocabulary end up with positive cosine similarity, which is enough for the
// semantic side of hybrid retrieval when no model is configured.
package local

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-384"
	DefaultDimensions = 384

	// trigramWeight scales character trigram features relative to whole words.
	trigramWeight = 0.5
)

// emptyFeature stands in for text with no visible characters at all.
const emptyFeature = "\x00empty"

// Config holds configuration for the local embedding service.
type Config struct {
	// Model is reported by ModelName.
	Model string

	// Dimensions is the number of hash buckets.
	Dimensions int
}

// EmbeddingService hashes text into dense vectors.
type EmbeddingService struct {
	model      string
	dimensions int
}

// NewEmbeddingService creates a new local embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{model: cfg.Model, dimensions: cfg.Dimensions}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	for _, word := range words(text) {
		s.add(vec, word, 1)
		padded := " " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			s.add(vec, string(runes[i:i+3]), trigramWeight)
		}
	}

	norm := sumSquares(vec)
	if norm == 0 {
		// Punctuation-only text such as "{}" or "---" hashes its symbols
		// so every chunk still lands on the semantic side.
		for _, r := range text {
			if !unicode.IsSpace(r) {
				s.add(vec, string(r), 1)
			}
		}
		norm = sumSquares(vec)
	}
	if norm == 0 {
		s.add(vec, emptyFeature, 1)
		norm = sumSquares(vec)
	}
	norm = math.Sqrt(norm)

	out := make([]float32, s.dimensions)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (s *EmbeddingService) add(vec []float64, feature string, weight float64) {
	h := xxhash.Sum64String(feature)
	bucket := int(h % uint64(s.dimensions))
	if h>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func sumSquares(vec []float64) float64 {
	var n float64
	for _, v := range vec {
		n += v * v
	}
	return n
}

// words splits on anything that is not a letter or digit and lower-cases.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// EmbedBatch embeds each text in turn. Hashing is cheap enough that
// batching buys nothing.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the configured model label.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
