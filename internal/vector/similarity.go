// Package vector provides similarity math for embedding vectors: cosine
// similarity, vector validation, top-K ranking, and knowledge-base quality scans.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors (or a vector and a
// configured dimension) have different lengths.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Norm bounds for ValidateVector. Vectors outside this range are treated as
// corrupted upstream data.
const (
	minValidNorm = 1e-10
	maxValidNorm = 1e10
)

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1].
// Both operands must be non-empty and of equal length. If either operand is
// all-zero the similarity is 0 rather than a division by zero. The result is
// clamped to [-1, 1] to absorb floating-point drift.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: got %d and %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp(sim, -1, 1), nil
}

// ValidateVector reports whether v is a usable embedding: non-empty, free of
// NaN/Inf components, not all-zero, and with an L2 norm inside
// [1e-10, 1e10].
func ValidateVector(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	var sum float64
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		sum += f * f
	}
	if sum == 0 {
		return false
	}
	norm := math.Sqrt(sum)
	return norm >= minValidNorm && norm <= maxValidNorm
}

// L2Norm returns the L2 norm of x.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
