package cache

import "github.com/caldera-ai/recall/internal/models"

// VectorRecord is an immutable cached knowledge item: embedding plus opaque
// metadata. Recency bookkeeping lives in the cache's recency list, keyed by ID.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Metadata  models.KnowledgeMetadata

	// seq is the insertion sequence number, used to keep ranking ties
	// deterministic across map iteration order.
	seq uint64
}

// recordOverheadBytes approximates per-record bookkeeping cost (map entry,
// list element, struct headers) for the memory-bound estimate.
const recordOverheadBytes = 128

// estimatedBytes returns the record's contribution to the cache memory
// estimate: embedding payload plus metadata text plus fixed overhead.
func (r *VectorRecord) estimatedBytes() int {
	m := &r.Metadata
	return len(r.Embedding)*4 +
		len(r.ID) +
		len(m.Title) + len(m.Content) + len(m.Category) + len(m.SourceType) + len(m.SourceURL) +
		recordOverheadBytes
}
