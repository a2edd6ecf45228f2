// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/openai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/reader"
	"github.com/poiesic/corpus/search"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
)

// DefaultEmbeddingDim is the dimensionality recorded in the index manifest
// when none is configured. It matches OpenAI's text-embedding models.
const DefaultEmbeddingDim = 1536

// KnowledgeBase is the top-level handle over the corpus: it wires the reader
// dispatch, the ingestion pipeline, the index manager and the searcher over
// a shared data directory.
type KnowledgeBase struct {
	backend    *badger.Backend
	manager    *index.Manager
	artifacts  *reader.ArtifactStore
	dispatcher *reader.Dispatcher
	pipeline   *ingestion.Pipeline
	searcher   *search.Searcher
	embedder   ai.Embedder

	maxFileSize int
	logger      *slog.Logger
}

// KnowledgeBaseOption configures a KnowledgeBase.
type KnowledgeBaseOption func(*knowledgeBaseOptions)

type knowledgeBaseOptions struct {
	aiConfig     *ai.Config
	vectors      storage.VectorStore
	embedder     ai.Embedder
	maxFileSize  int
	chunkSize    int
	chunkOverlap int
	poolSize     int
	embedDim     int
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.aiConfig = cfg
	}
}

// WithVectorStore replaces the embedded vector store with an external one,
// such as a Qdrant collection.
func WithVectorStore(vectors storage.VectorStore) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.vectors = vectors
	}
}

// WithEmbedder replaces the default rotating OpenAI embedder.
func WithEmbedder(embedder ai.Embedder) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.embedder = embedder
	}
}

// WithMaxFileSize bounds the raw size of ingested files in bytes.
// Default is reader.DefaultMaxFileSize.
func WithMaxFileSize(size int) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.maxFileSize = size
	}
}

// WithChunking sets the chunk size and overlap in runes.
func WithChunking(size, overlap int) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.chunkSize = size
		o.chunkOverlap = overlap
	}
}

// WithPoolSize sets the ingestion worker pool size.
func WithPoolSize(size int) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.poolSize = size
	}
}

// WithEmbeddingDim sets the embedding dimensionality recorded in the index
// manifest.
func WithEmbeddingDim(dim int) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.embedDim = dim
	}
}

// Open opens (or creates) a knowledge base under dataDir. The embedded index
// lives in dataDir/index and raw ingested files in dataDir/artifacts. On an
// existing data directory the index is reconciled before use.
func Open(ctx context.Context, dataDir string, opts ...KnowledgeBaseOption) (*KnowledgeBase, error) {
	options := &knowledgeBaseOptions{
		aiConfig:     ai.DefaultConfig(),
		maxFileSize:  reader.DefaultMaxFileSize,
		chunkSize:    ingestion.DefaultChunkSize,
		chunkOverlap: ingestion.DefaultChunkOverlap,
		embedDim:     DefaultEmbeddingDim,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "index"), false)
	if err != nil {
		return nil, err
	}

	docs := badger.NewNodeStore(backend)
	manifests := badger.NewManifestStore(backend)

	vectors := options.vectors
	if vectors == nil {
		vectors = badger.NewVectorStore(backend)
	}

	artifacts, err := reader.NewArtifactStore(filepath.Join(dataDir, "artifacts"))
	if err != nil {
		backend.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewRotatingEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	manager, err := index.NewManager(docs, vectors, manifests, index.WithArtifactStore(artifacts))
	if err != nil {
		backend.Close()
		return nil, err
	}
	if _, err := manager.GetOrCreate(ctx, options.embedDim); err != nil {
		backend.Close()
		return nil, err
	}

	chunker, err := ingestion.NewChunker(options.chunkSize, options.chunkOverlap)
	if err != nil {
		backend.Close()
		return nil, err
	}

	pipelineOpts := []ingestion.Option{ingestion.WithChunker(chunker)}
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(options.poolSize))
	}
	pipeline, err := ingestion.NewPipeline(manager, embedder, pipelineOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(docs, vectors, embedder)
	if err != nil {
		pipeline.Release()
		backend.Close()
		return nil, err
	}

	return &KnowledgeBase{
		backend:     backend,
		manager:     manager,
		artifacts:   artifacts,
		dispatcher:  reader.NewDispatcher(),
		pipeline:    pipeline,
		searcher:    searcher,
		embedder:    embedder,
		maxFileSize: options.maxFileSize,
		logger:      slog.Default().With("component", "knowledgebase"),
	}, nil
}

// IngestFile indexes an uploaded file. The filename is the source identity:
// a second upload with the same name fails with reader.ErrDuplicateInput
// until the source is deleted. The raw bytes are kept as an artifact before
// any extraction runs; if extraction yields nothing the artifact is removed
// again so the name is free to retry.
func (kb *KnowledgeBase) IngestFile(ctx context.Context, name string, content []byte) ([]*core.Document, error) {
	if !reader.AllowedFile(name) {
		return nil, fmt.Errorf("%w: %s", reader.ErrUnsupportedInput, name)
	}
	if len(content) > kb.maxFileSize {
		return nil, fmt.Errorf("%w: %s: %d bytes", reader.ErrInputTooLarge, name, len(content))
	}

	if err := kb.artifacts.Save(name, content); err != nil {
		return nil, err
	}

	docs, err := kb.dispatcher.ReadFile(ctx, name, content)
	if err != nil {
		if _, delErr := kb.artifacts.Delete(name); delErr != nil {
			kb.logger.Warn("failed to remove artifact after extraction failure", "name", name, "err", delErr)
		}
		return nil, err
	}

	return kb.pipeline.Process(ctx, docs...)
}

// IngestURL fetches and indexes a URL. URLs carry no artifact record:
// re-ingesting the same URL is an idempotent upsert, since unchanged content
// produces the same node identities.
func (kb *KnowledgeBase) IngestURL(ctx context.Context, url string) ([]*core.Document, error) {
	docs, err := kb.dispatcher.ReadURL(ctx, url)
	if err != nil {
		return nil, err
	}
	return kb.pipeline.Process(ctx, docs...)
}

// Query returns up to topK indexed nodes ranked by similarity to the query.
func (kb *KnowledgeBase) Query(ctx context.Context, query string, topK int) ([]*core.ScoredNode, error) {
	return kb.searcher.Query(ctx, query, topK)
}

// Sources lists the distinct sources currently indexed.
func (kb *KnowledgeBase) Sources(ctx context.Context) ([]string, error) {
	return kb.manager.Sources(ctx)
}

// DeleteSource removes everything indexed for one source, including its
// stored artifact. Returns the IDs of the nodes removed.
func (kb *KnowledgeBase) DeleteSource(ctx context.Context, source string) ([]core.ID, error) {
	return kb.manager.DeleteBySource(ctx, source)
}

// DeleteAll removes every indexed source and all stored artifacts. Returns
// the sources removed.
func (kb *KnowledgeBase) DeleteAll(ctx context.Context) ([]string, error) {
	return kb.manager.DeleteAll(ctx)
}

// Manager exposes the index manager for direct store access.
func (kb *KnowledgeBase) Manager() *index.Manager {
	return kb.manager
}

// Searcher exposes the searcher, for callers that need monitored queries.
func (kb *KnowledgeBase) Searcher() *search.Searcher {
	return kb.searcher
}

// Close releases the worker pool and closes the stores.
// The knowledge base should not be used after calling Close.
func (kb *KnowledgeBase) Close() error {
	kb.pipeline.Release()
	return errors.Join(kb.manager.Close(), kb.backend.Close())
}
