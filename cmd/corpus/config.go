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


package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	corpus "github.com/poiesic/corpus"
	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/storage/qdrant"
	"gopkg.in/yaml.v3"
)

// apiKeysEnv holds a comma-separated list of embedding API keys. Multiple
// keys enable credential rotation.
const apiKeysEnv = "OPENAI_API_KEY_EMBEDDINGS"

// Config is the YAML configuration for the corpus CLI.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Qdrant    *QdrantConfig   `yaml:"qdrant,omitempty"`
}

type EmbeddingConfig struct {
	Host        string `yaml:"host"`
	Model       string `yaml:"model"`
	RotateAfter int    `yaml:"rotate_after"`
	Dim         int    `yaml:"dim"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// QdrantConfig switches the vector store from the embedded index to a
// Qdrant collection.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

func defaultCLIConfig() *Config {
	return &Config{
		DataDir: "./data",
		Embedding: EmbeddingConfig{
			Host:        "http://localhost:11434/v1",
			Model:       "embeddinggemma",
			RotateAfter: ai.DefaultRotateAfter,
			Dim:         corpus.DefaultEmbeddingDim,
		},
	}
}

// loadConfig reads the YAML config file at path, falling back to defaults
// when path is empty or the file does not exist.
func loadConfig(path string) (*Config, error) {
	cfg := defaultCLIConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// apiKeys returns the embedding credentials from the environment,
// comma-separated, with whitespace trimmed and empty entries dropped.
func apiKeys() []string {
	raw := os.Getenv(apiKeysEnv)
	if raw == "" {
		return nil
	}
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// openKnowledgeBase wires a KnowledgeBase from the CLI config.
func openKnowledgeBase(ctx context.Context, cfg *Config) (*corpus.KnowledgeBase, error) {
	aiCfg := ai.NewConfig(
		ai.WithHost(cfg.Embedding.Host),
		ai.WithModel(cfg.Embedding.Model),
		ai.WithAPIKeys(apiKeys()...),
	)
	if cfg.Embedding.RotateAfter > 0 {
		ai.WithRotateAfter(cfg.Embedding.RotateAfter)(aiCfg)
	}

	opts := []corpus.KnowledgeBaseOption{
		corpus.WithAIConfig(aiCfg),
	}
	if cfg.Embedding.Dim > 0 {
		opts = append(opts, corpus.WithEmbeddingDim(cfg.Embedding.Dim))
	}
	if cfg.Chunking.Size > 0 {
		opts = append(opts, corpus.WithChunking(cfg.Chunking.Size, cfg.Chunking.Overlap))
	}

	if cfg.Qdrant != nil {
		collection := cfg.Qdrant.Collection
		if collection == "" {
			collection = "corpus"
		}
		dim := cfg.Embedding.Dim
		if dim <= 0 {
			dim = corpus.DefaultEmbeddingDim
		}
		store, err := qdrant.New(ctx, qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: collection,
			Dimension:  dim,
			Timeout:    30 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
		}
		opts = append(opts, corpus.WithVectorStore(store))
	}

	return corpus.Open(ctx, cfg.DataDir, opts...)
}
