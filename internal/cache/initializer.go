package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/caldera-ai/recall/internal/models"
	"github.com/caldera-ai/recall/internal/store"
)

// Initializer loads a tenant's vectors from the backing store into a
// knowledge cache exactly once. Concurrent callers share a single in-flight
// load and its outcome via singleflight; on failure the cache returns to
// Empty so a later call may retry.
type Initializer struct {
	tenant string
	store  store.VectorStore
	cache  *KnowledgeCache
	group  singleflight.Group
	logger *zap.Logger
}

// NewInitializer creates an initializer bound to one tenant and one cache.
func NewInitializer(tenant string, st store.VectorStore, c *KnowledgeCache, logger *zap.Logger) *Initializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Initializer{
		tenant: tenant,
		store:  st,
		cache:  c,
		logger: logger,
	}
}

// Ensure initializes the cache if it is not Ready, otherwise returns current
// stats. The backing-store load honors ctx cancellation. At most one load
// runs at a time per cache; concurrent callers block on it and receive the
// same result or error.
func (i *Initializer) Ensure(ctx context.Context) (*models.InitResult, error) {
	if i.cache.IsReady() {
		stats := i.cache.Stats()
		return &models.InitResult{
			VectorsLoaded: stats.TotalVectors,
			MemoryUsageKB: stats.MemoryUsageKB,
		}, nil
	}

	v, err, _ := i.group.Do(i.tenant, func() (interface{}, error) {
		// A caller that lost the race for the previous flight sees Ready here.
		if i.cache.IsReady() {
			stats := i.cache.Stats()
			return &models.InitResult{
				VectorsLoaded: stats.TotalVectors,
				MemoryUsageKB: stats.MemoryUsageKB,
			}, nil
		}
		return i.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.InitResult), nil
}

func (i *Initializer) load(ctx context.Context) (*models.InitResult, error) {
	i.cache.MarkInitializing()

	records, err := i.store.GetAllVectors(ctx, i.tenant)
	if err != nil {
		i.cache.Reset()
		return nil, fmt.Errorf("failed to load vectors for tenant %s: %w", i.tenant, err)
	}

	if len(records) == 0 {
		// Distinguish a genuinely empty knowledge base from a store that
		// returned nothing despite holding rows.
		count, countErr := i.store.CountVectors(ctx, i.tenant)
		if countErr == nil && count > 0 {
			i.cache.Reset()
			return nil, fmt.Errorf("backing store holds %d vectors for tenant %s but returned none", count, i.tenant)
		}
	}

	result, err := i.cache.Initialize(records)
	if err != nil {
		i.cache.Reset()
		return nil, fmt.Errorf("failed to initialize cache for tenant %s: %w", i.tenant, err)
	}

	i.logger.Info("knowledge cache initialized",
		zap.String("tenant", i.tenant),
		zap.Int("vectors_loaded", result.VectorsLoaded),
		zap.Int("vectors_rejected", result.VectorsRejected),
		zap.Int("memory_usage_kb", result.MemoryUsageKB),
	)
	return result, nil
}
