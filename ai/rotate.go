package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// RotatingEmbedder cycles a pool of per-credential embedders round-robin,
// bounding how many consecutive calls any one credential serves. This is a
// throttle, not a rate limiter: it spreads usage across credentials but does
// not back off on provider-reported rate-limit errors (the retry policy in
// the ingestion pipeline handles those).
//
// The rotation state (current index plus per-credential usage counts) is a
// single mutex-guarded resource so the threshold is observed consistently
// when embedding calls run concurrently.
type RotatingEmbedder struct {
	embedders   []Embedder
	rotateAfter int
	logger      *slog.Logger

	mu      sync.Mutex
	current int
	counts  []int
}

var _ Embedder = (*RotatingEmbedder)(nil)

// NewRotatingEmbedder creates a rotating embedder over the given pool.
// Rotation starts at credential 0; after rotateAfter calls on the current
// credential, the pool advances to the next one (wrapping around) and resets
// that credential's counter before resuming.
func NewRotatingEmbedder(embedders []Embedder, rotateAfter int) (*RotatingEmbedder, error) {
	if len(embedders) == 0 {
		return nil, ErrNoCredentials
	}
	if rotateAfter < 1 {
		return nil, ErrInvalidRotateAfter
	}

	return &RotatingEmbedder{
		embedders:   embedders,
		rotateAfter: rotateAfter,
		counts:      make([]int, len(embedders)),
		logger:      slog.Default().With("component", "rotating-embedder"),
	}, nil
}

// next picks the embedder for the upcoming call and charges its counter.
func (r *RotatingEmbedder) next() (Embedder, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.counts[r.current] >= r.rotateAfter {
		r.current = (r.current + 1) % len(r.embedders)
		r.counts[r.current] = 0
		r.logger.Debug("rotated embedding credential", "credential", r.current)
	}
	r.counts[r.current]++
	return r.embedders[r.current], r.current
}

// EmbedText generates an embedding using the current credential, rotating
// per the pool's threshold.
func (r *RotatingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	embedder, credential := r.next()
	vector, err := embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: credential %d: %w", ErrEmbeddingFailed, credential, err)
	}
	return vector, nil
}

// EmbedTexts embeds texts one at a time so that each call is charged against
// the rotation threshold individually, exactly as single-text calls are.
func (r *RotatingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vector, err := r.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// PoolSize returns the number of credentials in the pool.
func (r *RotatingEmbedder) PoolSize() int {
	return len(r.embedders)
}

// UsageCounts returns a snapshot of the per-credential usage counters.
// Counters are ephemeral, process-local state; they reset on rotation and
// are never persisted.
func (r *RotatingEmbedder) UsageCounts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make([]int, len(r.counts))
	copy(counts, r.counts)
	return counts
}
