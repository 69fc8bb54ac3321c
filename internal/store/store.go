// Package store defines the durable backing store for knowledge vectors and
// provides its SQLite implementation.
package store

import (
	"context"

	"github.com/caldera-ai/recall/internal/models"
)

// VectorStore persists knowledge records and their embeddings per tenant.
// The cache initializer calls GetAllVectors once per cache lifetime; the
// write path uses StoreVectors and DeleteBySource and then triggers an
// explicit cache refresh (the cache never learns about writes on its own).
type VectorStore interface {
	GetAllVectors(ctx context.Context, tenant string) ([]*models.KnowledgeRecord, error)
	StoreVectors(ctx context.Context, tenant string, records []*models.KnowledgeRecord) error
	DeleteBySource(ctx context.Context, tenant, sourceURL string) (int64, error)
	CountVectors(ctx context.Context, tenant string) (int64, error)
	Close() error
}
