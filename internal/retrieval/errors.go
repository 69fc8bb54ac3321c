package retrieval

import "errors"

// Sentinel errors for the retrieval path. Input-validation errors are
// returned before the cache or the embedding provider is touched;
// ErrEmbeddingFailed wraps provider failures so callers can tell bad input
// from a dependency being down; ErrInvalidRelevanceScore signals an internal
// invariant breach, not a user-facing condition.
var (
	ErrEmptyQuery            = errors.New("query is empty")
	ErrQueryTooLong          = errors.New("query exceeds maximum length")
	ErrLimitExceeded         = errors.New("result limit exceeds maximum")
	ErrEmbeddingFailed       = errors.New("embedding generation failed")
	ErrInvalidRelevanceScore = errors.New("relevance score outside [0, 1]")
)
