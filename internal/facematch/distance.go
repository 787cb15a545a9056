package facematch

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when two embeddings differ in length.
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
	// ErrEmptyEmbedding is returned for a zero-length embedding.
	ErrEmptyEmbedding = errors.New("embedding is empty")
	// ErrZeroNorm is returned when an embedding has no direction.
	ErrZeroNorm = errors.New("embedding has zero norm")
)

// CosineDistance computes 1 - cosine similarity between two embeddings.
// The result is clamped to [0, 2].
func CosineDistance(a, b Embedding) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyEmbedding
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroNorm
	}
	if math.IsNaN(dot) || math.IsInf(dot, 0) || math.IsInf(normA, 0) || math.IsInf(normB, 0) {
		return 0, fmt.Errorf("embedding contains non-finite values")
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	similarity = math.Max(-1, math.Min(1, similarity))

	return 1 - similarity, nil
}
