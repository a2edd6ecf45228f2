package ai

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder records that it was called and can be made to fail.
type stubEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newStubPool(n int) ([]Embedder, []*stubEmbedder) {
	pool := make([]Embedder, n)
	stubs := make([]*stubEmbedder, n)
	for i := range pool {
		stub := &stubEmbedder{}
		pool[i] = stub
		stubs[i] = stub
	}
	return pool, stubs
}

func TestNewRotatingEmbedder(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		_, err := NewRotatingEmbedder(nil, 3)
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		pool, _ := newStubPool(1)
		_, err := NewRotatingEmbedder(pool, 0)
		assert.ErrorIs(t, err, ErrInvalidRotateAfter)
	})

	t.Run("valid pool", func(t *testing.T) {
		pool, _ := newStubPool(2)
		r, err := NewRotatingEmbedder(pool, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, r.PoolSize())
	})
}

func TestRotatingEmbedder_RoundRobin(t *testing.T) {
	pool, stubs := newStubPool(3)
	r, err := NewRotatingEmbedder(pool, 3)
	require.NoError(t, err)

	ctx := context.Background()

	// 10 calls across 3 credentials with a threshold of 3:
	// credential 0 serves calls 1-3, credential 1 calls 4-6,
	// credential 2 calls 7-9, then the pool wraps back to credential 0.
	for i := 0; i < 10; i++ {
		_, err := r.EmbedText(ctx, "text")
		require.NoError(t, err)
	}

	assert.Equal(t, 4, stubs[0].callCount())
	assert.Equal(t, 3, stubs[1].callCount())
	assert.Equal(t, 3, stubs[2].callCount())
}

func TestRotatingEmbedder_WrapResetsCounter(t *testing.T) {
	pool, stubs := newStubPool(2)
	r, err := NewRotatingEmbedder(pool, 2)
	require.NoError(t, err)

	ctx := context.Background()

	// Two full cycles: 0,0,1,1,0,0,1,1
	for i := 0; i < 8; i++ {
		_, err := r.EmbedText(ctx, "text")
		require.NoError(t, err)
	}

	assert.Equal(t, 4, stubs[0].callCount())
	assert.Equal(t, 4, stubs[1].callCount())
}

func TestRotatingEmbedder_SingleCredential(t *testing.T) {
	pool, stubs := newStubPool(1)
	r, err := NewRotatingEmbedder(pool, 3)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := r.EmbedText(ctx, "text")
		require.NoError(t, err)
	}

	// Rotation with one credential wraps back to itself.
	assert.Equal(t, 7, stubs[0].callCount())
}

func TestRotatingEmbedder_EmbedTexts_RotatesPerText(t *testing.T) {
	pool, stubs := newStubPool(2)
	r, err := NewRotatingEmbedder(pool, 3)
	require.NoError(t, err)

	vectors, err := r.EmbedTexts(context.Background(), []string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)
	assert.Len(t, vectors, 6)

	// Each text is charged individually: 3 on credential 0, 3 on credential 1.
	assert.Equal(t, 3, stubs[0].callCount())
	assert.Equal(t, 3, stubs[1].callCount())
}

func TestRotatingEmbedder_WrapsProviderError(t *testing.T) {
	pool, stubs := newStubPool(1)
	stubs[0].err = errors.New("boom")

	r, err := NewRotatingEmbedder(pool, 3)
	require.NoError(t, err)

	_, err = r.EmbedText(context.Background(), "text")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestRotatingEmbedder_ConcurrentUse(t *testing.T) {
	pool, stubs := newStubPool(3)
	r, err := NewRotatingEmbedder(pool, 3)
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.EmbedText(ctx, "text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total := stubs[0].callCount() + stubs[1].callCount() + stubs[2].callCount()
	assert.Equal(t, 30, total)
}
