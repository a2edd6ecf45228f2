package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
)

// NodeIndexer accepts fully-embedded nodes for indexing. Implemented by
// index.Manager.
type NodeIndexer interface {
	AddNodes(ctx context.Context, nodes ...*core.Node) error
}

// Pipeline orchestrates document ingestion: normalization, chunking,
// embedding and indexing. Documents in a batch are processed concurrently;
// a failure in one document never blocks the others.
type Pipeline struct {
	indexer  NodeIndexer
	embedder ai.Embedder
	chunker  *Chunker
	pool     *ants.Pool

	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(chunker *Chunker) Option {
	return func(p *Pipeline) error {
		if chunker == nil {
			return ErrInvalidChunking
		}
		p.chunker = chunker
		return nil
	}
}

// WithRetry sets the embedding retry policy.
// Default is 3 attempts starting at one second.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.baseDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(indexer NodeIndexer, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		indexer:     indexer,
		embedder:    embedder,
		chunker:     NewDefaultChunker(),
		pool:        pool,
		maxAttempts: 3,
		baseDelay:   time.Second,
		logger:      slog.Default().With("component", "ingestion-pipeline"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Process normalizes, chunks, embeds and indexes the given documents.
// Documents run concurrently on the worker pool; the call returns when every
// document has either been fully indexed or failed. The returned slice holds
// the normalized documents that were indexed successfully. When some
// documents fail, their errors are joined and returned alongside the
// successes.
func (p *Pipeline) Process(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		processed []*core.Document
		errs      []error
	)

	for _, doc := range docs {
		normalized := Normalize(doc)
		if err := core.ValidateDocument(normalized); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrDocumentFailed, doc.Source, err))
			mu.Unlock()
			continue
		}

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			err := p.processDocument(ctx, normalized)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s: %w", ErrDocumentFailed, normalized.Source, err))
				return
			}
			processed = append(processed, normalized)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrDocumentFailed, normalized.Source, submitErr))
			mu.Unlock()
		}
	}

	wg.Wait()
	return processed, errors.Join(errs...)
}

// processDocument chunks one document and embeds and indexes its nodes in
// sequence order. Embedding calls retry with exponential backoff; if a node
// still fails after the retries, the whole document fails and nothing further
// is indexed for it.
func (p *Pipeline) processDocument(ctx context.Context, doc *core.Document) error {
	nodes := p.chunker.Split(doc)
	if len(nodes) == 0 {
		return core.ErrEmptyText
	}

	p.logger.Debug("processing document", "source", doc.Source, "doc", doc.Id, "nodes", len(nodes))

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}

		var vector []float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vector, embedErr = p.embedder.EmbedText(ctx, node.EmbedText())
			return embedErr
		}, p.maxAttempts, p.baseDelay)
		if err != nil {
			p.logger.Error("embedding failed", "source", doc.Source, "node", node.Id, "err", err)
			return err
		}

		node.Vector = ai.NormalizeVector(vector)
	}

	if err := p.indexer.AddNodes(ctx, nodes...); err != nil {
		p.logger.Error("indexing failed", "source", doc.Source, "doc", doc.Id, "err", err)
		return err
	}

	p.logger.Info("document indexed", "source", doc.Source, "doc", doc.Id, "nodes", len(nodes))
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
