package models

// SearchQuery represents a knowledge search request with optional filters.
// Zero values for Threshold and Limit mean "use the configured defaults";
// validation and defaulting happen in the retrieval engine.
type SearchQuery struct {
	Query string `json:"query"`
	// Threshold is the minimum similarity for a hit. 0 selects the
	// configured default, so an exact threshold of 0 cannot be requested;
	// pass a negative value (similarity is in [-1, 1]) to include every
	// match down to that bound.
	Threshold  float64 `json:"threshold,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	Category   string  `json:"category,omitempty"`
	SourceType string  `json:"source_type,omitempty"`
}
