package embedding

import (
	"context"
	"sync/atomic"
)

// CachedEmbedder wraps an Embedder with a normalized-key LRU cache. The same
// text, ignoring case and whitespace, never hits the provider twice while its
// entry lives in the cache.
type CachedEmbedder struct {
	inner  Embedder
	cache  *Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedEmbedder wraps inner with a cache of the given size.
func NewCachedEmbedder(inner Embedder, cacheSize int) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: NewCache(cacheSize),
	}
}

// Embed returns the cached embedding for text, or generates and caches one.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := NormalizeText(text)
	if v, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		return v, nil
	}
	e.misses.Add(1)
	v, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, v)
	return v, nil
}

// EmbedBatch serves cached entries and forwards only the misses to the
// provider in one batch call.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		key := NormalizeText(text)
		if v, ok := e.cache.Get(key); ok {
			e.hits.Add(1)
			out[i] = v
			continue
		}
		e.misses.Add(1)
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	embedded, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = embedded[j]
		e.cache.Set(NormalizeText(texts[i]), embedded[j])
	}
	return out, nil
}

// Dimensions returns the wrapped provider's output dimension.
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Close closes the wrapped provider.
func (e *CachedEmbedder) Close() error {
	return e.inner.Close()
}

// CacheStats returns running hit and miss counts.
func (e *CachedEmbedder) CacheStats() (hits, misses uint64) {
	return e.hits.Load(), e.misses.Load()
}
