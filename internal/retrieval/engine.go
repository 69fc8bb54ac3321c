// Package retrieval implements the knowledge retrieval orchestrator: query
// validation, cold-start cache initialization, query embedding, cache search,
// and result validation.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/caldera-ai/recall/internal/cache"
	"github.com/caldera-ai/recall/internal/config"
	"github.com/caldera-ai/recall/internal/embedding"
	"github.com/caldera-ai/recall/internal/models"
)

// Request validation bounds and fallback defaults; the per-engine defaults
// come from config.SearchConfig.
const (
	MaxQueryLength   = 1000
	MaxResultLimit   = 50
	DefaultThreshold = 0.15
	DefaultLimit     = 5
)

// Engine orchestrates knowledge search for one tenant. It never mutates the
// cache outside the initialization/refresh path.
type Engine struct {
	tenant      string
	cache       *cache.KnowledgeCache
	initializer *cache.Initializer
	embedder    embedding.Embedder
	logger      *zap.Logger

	defaultThreshold float64
	defaultLimit     int
	slowQuery        time.Duration
}

// NewEngine creates a retrieval engine. cfg supplies the default similarity
// threshold, the default result limit, and the soft latency budget
// (SlowQueryMs; zero disables the slow-query warning). A nil cfg uses the
// package fallbacks.
func NewEngine(
	tenant string,
	c *cache.KnowledgeCache,
	init *cache.Initializer,
	embedder embedding.Embedder,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		tenant:           tenant,
		cache:            c,
		initializer:      init,
		embedder:         embedder,
		logger:           logger,
		defaultThreshold: DefaultThreshold,
		defaultLimit:     DefaultLimit,
	}
	if cfg != nil {
		if cfg.DefaultThreshold != 0 {
			e.defaultThreshold = cfg.DefaultThreshold
		}
		if cfg.DefaultLimit > 0 {
			e.defaultLimit = cfg.DefaultLimit
		}
		e.slowQuery = time.Duration(cfg.SlowQueryMs) * time.Millisecond
	}
	return e
}

// SearchKnowledge validates the query, ensures the cache is initialized
// (first caller pays the cold start, concurrent callers share it), embeds
// the query, searches the cache, and returns ranked knowledge items.
//
// Relevance scores are clamped to [0, 1] at this boundary: negative cosine
// similarity is a valid "not relevant" signal and is floored to 0 rather
// than rejected. A score outside [0, 1] after clamping is a defect,
// surfaced as ErrInvalidRelevanceScore.
func (e *Engine) SearchKnowledge(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()

	trimmed := strings.TrimSpace(query.Query)
	if trimmed == "" {
		return nil, ErrEmptyQuery
	}
	if n := utf8.RuneCountInString(trimmed); n > MaxQueryLength {
		return nil, fmt.Errorf("%w: %d > %d characters", ErrQueryTooLong, n, MaxQueryLength)
	}
	if query.Limit > MaxResultLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, query.Limit, MaxResultLimit)
	}

	threshold := query.Threshold
	if threshold == 0 {
		threshold = e.defaultThreshold
	}
	limit := query.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	if !e.cache.IsReady() {
		if _, err := e.initializer.Ensure(ctx); err != nil {
			return nil, err
		}
	}

	queryVector, err := e.embedder.Embed(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	hits, err := e.cache.Search(queryVector, cache.SearchOptions{
		Threshold:  threshold,
		Limit:      limit,
		Category:   query.Category,
		SourceType: query.SourceType,
	})
	if err != nil {
		return nil, err
	}

	items := make([]*models.SearchResult, 0, len(hits))
	for i, h := range hits {
		score := h.Similarity
		if score < -1 || score > 1 {
			return nil, fmt.Errorf("%w: %s scored %v", ErrInvalidRelevanceScore, h.Record.ID, score)
		}
		if score < 0 {
			score = 0
		}
		items = append(items, &models.SearchResult{
			ID:         h.Record.ID,
			Metadata:   h.Record.Metadata,
			Similarity: score,
			Rank:       i + 1,
		})
	}

	elapsed := time.Since(start)
	if e.slowQuery > 0 && elapsed > e.slowQuery {
		e.logger.Warn("search exceeded latency budget",
			zap.String("tenant", e.tenant),
			zap.Duration("elapsed", elapsed),
			zap.Duration("budget", e.slowQuery),
			zap.Int("results", len(items)),
		)
	}

	return &models.SearchResponse{
		Items:        items,
		TotalFound:   len(items),
		SearchTimeMs: elapsed.Milliseconds(),
		Query:        trimmed,
	}, nil
}

// Refresh invalidates the cache and reloads it from the backing store. Used
// by the management path after bulk content changes; the cache never learns
// about writes on its own.
func (e *Engine) Refresh(ctx context.Context) (*models.InitResult, error) {
	e.cache.Invalidate()
	return e.initializer.Ensure(ctx)
}

// Stats returns the cache snapshot for the management path.
func (e *Engine) Stats() models.CacheStats {
	return e.cache.Stats()
}

// IsReady reports whether the tenant's cache can serve searches.
func (e *Engine) IsReady() bool {
	return e.cache.IsReady()
}

// Tenant returns the tenant this engine serves.
func (e *Engine) Tenant() string {
	return e.tenant
}
