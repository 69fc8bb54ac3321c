// Package embedding provides the embedding-provider contract, an LRU
// embedding cache, and local ONNX / deterministic mock implementations.
package embedding

import (
	"context"
	"strings"
)

// Embedder produces vector embeddings for text. Implementations emit a fixed
// output dimension reported by Dimensions.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// NormalizeText lowercases and collapses whitespace so that trivially
// different spellings of the same query share one cache entry.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
