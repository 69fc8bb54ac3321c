// Package warmer pre-heats the embedding cache with likely first queries so
// cold tenants do not pay provider round-trips on their opening turns. It
// warms the embedding-generation cache, not the vector knowledge cache.
package warmer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/caldera-ai/recall/internal/embedding"
	"github.com/caldera-ai/recall/internal/models"
	"github.com/caldera-ai/recall/internal/store"
)

// MaxPatterns caps the synthesized question set per warmup pass.
const MaxPatterns = 20

var categoryTemplates = []string{
	"what is %s",
	"tell me about %s",
	"how does %s work",
}

var genericPhrases = []string{
	"what do you offer",
	"how much does it cost",
	"how do I get started",
	"tell me more about your services",
	"do you offer support",
}

// Warmer is a best-effort background routine. Per-item failures are logged
// and skipped; a pass never aborts early and always returns a summary.
type Warmer struct {
	store    store.VectorStore
	embedder embedding.Embedder
	logger   *zap.Logger
}

// New creates a warmer over the given store and (ideally cached) embedder.
func New(st store.VectorStore, embedder embedding.Embedder, logger *zap.Logger) *Warmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Warmer{store: st, embedder: embedder, logger: logger}
}

// Warm embeds the tenant's item titles and a bounded set of synthesized
// common questions so later identical queries hit the embedding cache.
func (w *Warmer) Warm(ctx context.Context, tenant string) *models.WarmupSummary {
	start := time.Now()
	summary := &models.WarmupSummary{}

	records, err := w.store.GetAllVectors(ctx, tenant)
	if err != nil {
		w.logger.Warn("warmup: failed to load tenant content, warming generic patterns only",
			zap.String("tenant", tenant), zap.Error(err))
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		title := rec.Metadata.Title
		if title == "" {
			continue
		}
		if _, err := w.embedder.Embed(ctx, title); err != nil {
			w.logger.Debug("warmup: item skipped",
				zap.String("tenant", tenant), zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		summary.ItemsWarmed++
	}

	for _, pattern := range buildPatterns(records) {
		if ctx.Err() != nil {
			break
		}
		if _, err := w.embedder.Embed(ctx, pattern); err != nil {
			w.logger.Debug("warmup: pattern skipped",
				zap.String("tenant", tenant), zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		summary.PatternsWarmed++
	}

	summary.TimeMs = time.Since(start).Milliseconds()
	w.logger.Info("warmup complete",
		zap.String("tenant", tenant),
		zap.Int("items_warmed", summary.ItemsWarmed),
		zap.Int("patterns_warmed", summary.PatternsWarmed),
		zap.Int64("time_ms", summary.TimeMs),
	)
	return summary
}

// buildPatterns synthesizes per-category template questions plus generic
// fallback phrases, capped at MaxPatterns.
func buildPatterns(records []*models.KnowledgeRecord) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, rec := range records {
		c := rec.Metadata.Category
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
	}

	patterns := make([]string, 0, MaxPatterns)
	for _, c := range categories {
		for _, tmpl := range categoryTemplates {
			if len(patterns) >= MaxPatterns {
				return patterns
			}
			patterns = append(patterns, fmt.Sprintf(tmpl, c))
		}
	}
	for _, p := range genericPhrases {
		if len(patterns) >= MaxPatterns {
			break
		}
		patterns = append(patterns, p)
	}
	return patterns
}
