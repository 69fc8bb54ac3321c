// Package cache implements the per-tenant in-memory vector knowledge cache:
// a capacity-bounded, LRU-evicted store of embedding vectors searched by
// cosine similarity.
package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/caldera-ai/recall/internal/models"
	"github.com/caldera-ai/recall/internal/vector"
)

// ErrCacheNotReady is returned by Search before initialization has completed.
var ErrCacheNotReady = errors.New("knowledge cache not ready")

// State is the cache lifecycle state. Search succeeds only in StateReady.
type State int32

const (
	StateEmpty State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Config bounds a knowledge cache. Zero values take defaults from
// ApplyDefaults via New.
type Config struct {
	// Dimensions is the required embedding length for every record.
	Dimensions int
	// MaxVectors bounds the record count.
	MaxVectors int
	// MaxMemoryKB bounds the estimated memory footprint.
	MaxMemoryKB int
	// EvictionBatchSize is how many LRU records one eviction pass removes
	// at most before re-checking the bounds.
	EvictionBatchSize int
}

const (
	defaultMaxVectors        = 10000
	defaultMaxMemoryKB       = 262144 // 256 MiB
	defaultEvictionBatchSize = 64
)

// SearchOptions filter and bound a cache search.
type SearchOptions struct {
	// Threshold is the minimum similarity for a hit.
	Threshold float64
	// Limit is the maximum number of hits returned.
	Limit int
	// Category, when set, restricts candidates to records with that category.
	Category string
	// SourceType, when set, restricts candidates to records with that source type.
	SourceType string
}

// Hit is a single search result: the cached record and its similarity to the query.
type Hit struct {
	Record     *VectorRecord
	Similarity float64
}

// KnowledgeCache is a capacity-bounded in-memory store of embedding vectors
// for one tenant. It is created empty, populated once by an Initializer, and
// read concurrently by many searches. A single RWMutex guards the record map
// and the recency list together so readers never observe them out of sync.
type KnowledgeCache struct {
	cfg Config

	mu          sync.RWMutex
	state       State
	records     map[string]*VectorRecord
	recency     *recencyList
	memoryBytes int
	nextSeq     uint64

	lookups uint64
	hits    uint64
}

// New creates an empty knowledge cache. Dimensions must be positive; the
// capacity bounds default when zero.
func New(cfg Config) (*KnowledgeCache, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("cache dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.MaxVectors <= 0 {
		cfg.MaxVectors = defaultMaxVectors
	}
	if cfg.MaxMemoryKB <= 0 {
		cfg.MaxMemoryKB = defaultMaxMemoryKB
	}
	if cfg.EvictionBatchSize <= 0 {
		cfg.EvictionBatchSize = defaultEvictionBatchSize
	}
	return &KnowledgeCache{
		cfg:     cfg,
		records: make(map[string]*VectorRecord),
		recency: newRecencyList(),
	}, nil
}

// Dimensions returns the configured embedding dimension.
func (c *KnowledgeCache) Dimensions() int {
	return c.cfg.Dimensions
}

// State returns the current lifecycle state.
func (c *KnowledgeCache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsReady reports whether Search may be called.
func (c *KnowledgeCache) IsReady() bool {
	return c.State() == StateReady
}

// MarkInitializing transitions Empty -> Initializing so concurrent searches
// observe the right state while the backing store load is in flight. Called
// by the initializer before fetching records.
func (c *KnowledgeCache) MarkInitializing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateEmpty {
		c.state = StateInitializing
	}
}

// Reset returns a non-Ready cache to Empty after a failed initialization so
// a later attempt may retry. A Ready cache is left untouched.
func (c *KnowledgeCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		c.state = StateEmpty
	}
}

// Invalidate clears all records and returns the cache to Empty. Used by the
// explicit refresh path after bulk content changes.
func (c *KnowledgeCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]*VectorRecord)
	c.recency = newRecencyList()
	c.memoryBytes = 0
	c.state = StateEmpty
}

// Initialize bulk-loads records and transitions the cache to Ready. Records
// whose embedding dimension differs from the configured dimension are
// rejected and counted, not fatal: partial success is surfaced in the
// result. Initializing an already-Ready cache is a no-op that returns
// current stats.
func (c *KnowledgeCache) Initialize(records []*models.KnowledgeRecord) (*models.InitResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateReady {
		return &models.InitResult{
			VectorsLoaded: len(c.records),
			MemoryUsageKB: c.memoryBytes / 1024,
		}, nil
	}

	rejected := 0
	for _, rec := range records {
		if len(rec.Embedding) != c.cfg.Dimensions {
			rejected++
			continue
		}
		c.upsertLocked(rec)
	}
	c.evictIfNeededLocked()
	c.state = StateReady

	return &models.InitResult{
		VectorsLoaded:   len(c.records),
		VectorsRejected: rejected,
		MemoryUsageKB:   c.memoryBytes / 1024,
	}, nil
}

// Insert adds or replaces a single record by ID, evicting as needed before
// returning. The record's dimension must match the cache configuration.
func (c *KnowledgeCache) Insert(rec *models.KnowledgeRecord) error {
	if len(rec.Embedding) != c.cfg.Dimensions {
		return fmt.Errorf("%w: record %s has %d dimensions, cache expects %d",
			vector.ErrDimensionMismatch, rec.ID, len(rec.Embedding), c.cfg.Dimensions)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(rec)
	c.evictIfNeededLocked()
	return nil
}

// BulkInsert adds or replaces records, skipping and counting any with a
// mismatched dimension, then evicts as needed. Returns (inserted, rejected).
func (c *KnowledgeCache) BulkInsert(records []*models.KnowledgeRecord) (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inserted, rejected := 0, 0
	for _, rec := range records {
		if len(rec.Embedding) != c.cfg.Dimensions {
			rejected++
			continue
		}
		c.upsertLocked(rec)
		inserted++
	}
	c.evictIfNeededLocked()
	return inserted, rejected
}

// Get returns the record for id, bumping its recency. It does not count
// toward the search hit rate.
func (c *KnowledgeCache) Get(id string) (*VectorRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	if !ok {
		return nil, false
	}
	c.recency.Touch(id)
	return rec, true
}

// Search ranks the cached records against query by cosine similarity after
// applying the option filters. The cache must be Ready and the query
// dimension must match the configured dimension. Recency is updated for
// every returned hit, and the running hit rate counts searches that produce
// at least one hit above the threshold.
func (c *KnowledgeCache) Search(query []float32, opts SearchOptions) ([]*Hit, error) {
	c.mu.RLock()
	if c.state != StateReady {
		state := c.state
		c.mu.RUnlock()
		return nil, fmt.Errorf("%w: state is %s", ErrCacheNotReady, state)
	}
	if len(query) != c.cfg.Dimensions {
		c.mu.RUnlock()
		return nil, fmt.Errorf("%w: query has %d dimensions, cache expects %d",
			vector.ErrDimensionMismatch, len(query), c.cfg.Dimensions)
	}

	// Candidate order must be deterministic for stable tie-breaking, so
	// records are ranked in insertion order rather than map order.
	filtered := make([]*VectorRecord, 0, len(c.records))
	for _, rec := range c.records {
		if opts.Category != "" && rec.Metadata.Category != opts.Category {
			continue
		}
		if opts.SourceType != "" && rec.Metadata.SourceType != opts.SourceType {
			continue
		}
		filtered = append(filtered, rec)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].seq < filtered[j].seq })

	candidates := make([]vector.Candidate, len(filtered))
	for i, rec := range filtered {
		candidates[i] = vector.Candidate{ID: rec.ID, Embedding: rec.Embedding}
	}
	matches, err := vector.FindMostSimilar(query, candidates, opts.Limit, opts.Threshold)
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	hits := make([]*Hit, len(matches))
	for i, m := range matches {
		hits[i] = &Hit{Record: filtered[m.Index], Similarity: m.Similarity}
	}

	c.mu.Lock()
	c.lookups++
	if len(hits) > 0 {
		c.hits++
	}
	for _, h := range hits {
		// A hit may have been evicted between the read and write section;
		// Touch would resurrect its id in the recency list, so re-check.
		if _, ok := c.records[h.Record.ID]; ok {
			c.recency.Touch(h.Record.ID)
		}
	}
	c.mu.Unlock()

	return hits, nil
}

// Stats returns a read-only snapshot of the cache.
func (c *KnowledgeCache) Stats() models.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hitRate := 0.0
	if c.lookups > 0 {
		hitRate = float64(c.hits) / float64(c.lookups)
	}
	return models.CacheStats{
		TotalVectors:  len(c.records),
		MemoryUsageKB: c.memoryBytes / 1024,
		HitRate:       hitRate,
		State:         c.state.String(),
	}
}

func (c *KnowledgeCache) upsertLocked(rec *models.KnowledgeRecord) {
	if old, ok := c.records[rec.ID]; ok {
		c.memoryBytes -= old.estimatedBytes()
	}
	emb := make([]float32, len(rec.Embedding))
	copy(emb, rec.Embedding)
	vr := &VectorRecord{
		ID:        rec.ID,
		Embedding: emb,
		Metadata:  rec.Metadata,
		seq:       c.nextSeq,
	}
	c.nextSeq++
	c.records[rec.ID] = vr
	c.memoryBytes += vr.estimatedBytes()
	c.recency.Touch(rec.ID)
}

// evictIfNeededLocked removes least-recently-used records in batches of
// EvictionBatchSize until both the count and memory bounds hold, stopping
// mid-batch as soon as they do so it never evicts more than necessary.
func (c *KnowledgeCache) evictIfNeededLocked() int {
	evicted := 0
	for c.overBoundsLocked() {
		for i := 0; i < c.cfg.EvictionBatchSize && c.overBoundsLocked(); i++ {
			id, ok := c.recency.Oldest()
			if !ok {
				return evicted
			}
			if rec, exists := c.records[id]; exists {
				c.memoryBytes -= rec.estimatedBytes()
				delete(c.records, id)
			}
			c.recency.Remove(id)
			evicted++
		}
	}
	return evicted
}

func (c *KnowledgeCache) overBoundsLocked() bool {
	return len(c.records) > c.cfg.MaxVectors || c.memoryBytes/1024 > c.cfg.MaxMemoryKB
}
