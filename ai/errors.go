package ai

import "errors"

var (
	// ErrNoCredentials is returned when a rotating embedder is constructed
	// with an empty pool.
	ErrNoCredentials = errors.New("credential pool is empty")

	// ErrInvalidRotateAfter is returned for a rotation threshold below 1.
	ErrInvalidRotateAfter = errors.New("rotation threshold must be at least 1")

	// ErrEmbeddingFailed wraps errors reported by the embedding provider.
	ErrEmbeddingFailed = errors.New("embedding provider failure")
)
