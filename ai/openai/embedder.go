package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/corpus/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
// Each Embedder is bound to a single API credential; credential rotation is
// handled by ai.RotatingEmbedder, which owns a pool of these.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// NewRotatingEmbedder uses it to build one client per credential.
func newEmbedder(config *ai.Config, apiKey string) (*Embedder, error) {
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a single-credential embedder using the provided
// configuration. The first API key in the config is used; if the config
// carries none, "none" is sent, which local OpenAI-compatible services
// (Ollama, LocalAI, vLLM) accept.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	key := "none"
	if len(config.APIKeys) > 0 {
		key = config.APIKeys[0]
	}
	return newEmbedder(config, key)
}

// NewRotatingEmbedder builds one embedding client per configured API key and
// wraps the pool in an ai.RotatingEmbedder so consecutive calls are spread
// across credentials. A config with no keys yields a single unauthenticated
// client, which keeps local services working without configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewRotatingEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	keys := config.APIKeys
	if len(keys) == 0 {
		keys = []string{"none"}
	}

	pool := make([]ai.Embedder, 0, len(keys))
	for _, key := range keys {
		embedder, err := newEmbedder(config, key)
		if err != nil {
			return nil, err
		}
		pool = append(pool, embedder)
	}

	return ai.NewRotatingEmbedder(pool, config.RotateAfter)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	embeddings, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(embeddings) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}

	return embeddings[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	embeddings, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	return embeddings, nil
}
