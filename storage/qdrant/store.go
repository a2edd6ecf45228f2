// Package qdrant provides a storage.VectorStore backed by a remote Qdrant
// collection, accessed over its REST API. It assumes cosine distance and
// creates the collection if missing.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

const defaultTimeout = 15 * time.Second

// Config configures the Qdrant client.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// Store is a minimal REST client to Qdrant implementing storage.VectorStore.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

var _ storage.VectorStore = (*Store)(nil)

// New creates a Store and ensures the collection exists with the configured
// dimensionality. Qdrant returns 200 for an existing collection with the
// same schema.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: url and collection are required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("qdrant: invalid dimension %d", cfg.Dimension)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	s := &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     cfg.Dimension,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
		return nil, err
	}
	return s, nil
}

// Close is a no-op; the store holds no persistent connections.
func (s *Store) Close() error {
	return nil
}

// Upsert writes vector entries as Qdrant points keyed by node ID.
func (s *Store) Upsert(ctx context.Context, entries ...*core.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]map[string]any, len(entries))
	for i, entry := range entries {
		points[i] = map[string]any{
			"id":      uint64(entry.Id),
			"vector":  entry.Vector,
			"payload": entry.Metadata,
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil)
}

// Delete removes points by node ID. Missing IDs are ignored by Qdrant.
func (s *Store) Delete(ctx context.Context, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}

	points := make([]uint64, len(ids))
	for i, id := range ids {
		points[i] = uint64(id)
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"), body, nil)
}

// Search returns up to topK points most similar to the given vector.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]*storage.VectorMatch, error) {
	if topK <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": false,
	}
	var resp struct {
		Result []struct {
			Id    uint64  `json:"id"`
			Score float32 `json:"score"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), body, &resp); err != nil {
		return nil, err
	}

	matches := make([]*storage.VectorMatch, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, &storage.VectorMatch{
			Id:    core.ID(r.Id),
			Score: r.Score,
		})
	}
	return matches, nil
}

// IDs returns the node IDs of every stored point, paging with the scroll API.
func (s *Store) IDs(ctx context.Context) ([]core.ID, error) {
	var (
		ids    []core.ID
		offset any
	)

	for {
		body := map[string]any{
			"limit":        1024,
			"with_payload": false,
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					Id uint64 `json:"id"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), body, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Result.Points {
			ids = append(ids, core.ID(p.Id))
		}
		if resp.Result.NextPageOffset == nil {
			return ids, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (s *Store) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Store) do(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
