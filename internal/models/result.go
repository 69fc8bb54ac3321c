package models

// SearchResult is a single ranked knowledge hit.
type SearchResult struct {
	ID         string            `json:"id"`
	Metadata   KnowledgeMetadata `json:"metadata"`
	Similarity float64           `json:"similarity"`
	Rank       int               `json:"rank"`
}

// SearchResponse is the response for a knowledge search request.
type SearchResponse struct {
	Items        []*SearchResult `json:"items"`
	TotalFound   int             `json:"total_found"`
	SearchTimeMs int64           `json:"search_time_ms"`
	Query        string          `json:"query"`
}

// CacheStats is a read-only snapshot of a knowledge cache.
type CacheStats struct {
	TotalVectors  int     `json:"total_vectors"`
	MemoryUsageKB int     `json:"memory_usage_kb"`
	HitRate       float64 `json:"hit_rate"`
	State         string  `json:"state"`
}

// InitResult reports the outcome of a cache initialization. Rejected counts
// records whose embedding dimension did not match the cache configuration;
// a partial load is a success, not a failure.
type InitResult struct {
	VectorsLoaded   int `json:"vectors_loaded"`
	VectorsRejected int `json:"vectors_rejected"`
	MemoryUsageKB   int `json:"memory_usage_kb"`
}

// WarmupSummary reports the outcome of an embedding-cache warmup pass.
type WarmupSummary struct {
	ItemsWarmed    int   `json:"items_warmed"`
	PatternsWarmed int   `json:"patterns_warmed"`
	TimeMs         int64 `json:"time_ms"`
}
