package storage

import (
	"context"

	"github.com/poiesic/corpus/core"
)

// VectorMatch is a similarity search hit: a node ID with its score.
// Results carry IDs only; callers hydrate full nodes from the DocumentStore.
type VectorMatch struct {
	Id    core.ID
	Score float32
}

// DocumentStore holds indexed nodes keyed by node ID and supports
// metadata-driven lookups by source. Implementations must be thread-safe
// and support concurrent access.
type DocumentStore interface {
	// AddNodes writes nodes to the store, keyed by node ID. Writing an
	// existing ID replaces the stored node (upsert). Sets InsertedAt and
	// UpdatedAt timestamps.
	AddNodes(ctx context.Context, nodes ...*core.Node) ([]*core.Node, error)

	// GetNode retrieves a single node by ID.
	// Returns ErrNotFound if the node doesn't exist.
	GetNode(ctx context.Context, id core.ID) (*core.Node, error)

	// GetNodes retrieves multiple nodes by their IDs.
	// Returns only the nodes that exist (no error for missing nodes).
	GetNodes(ctx context.Context, ids ...core.ID) ([]*core.Node, error)

	// DeleteNodes removes nodes by their IDs, including source index entries.
	// Returns ErrNotFound if any node doesn't exist.
	DeleteNodes(ctx context.Context, ids ...core.ID) error

	// NodeIDs returns the IDs of every stored node.
	NodeIDs(ctx context.Context) ([]core.ID, error)

	// NodeIDsBySource returns the IDs of all nodes whose source matches.
	NodeIDsBySource(ctx context.Context, source string) ([]core.ID, error)

	// NodesBySource returns all nodes whose source matches, ordered by
	// document and sequence position.
	NodesBySource(ctx context.Context, source string) ([]*core.Node, error)

	// Sources returns the distinct source values across all stored nodes.
	Sources(ctx context.Context) ([]string, error)

	// Close closes the store and releases resources.
	Close() error
}

// VectorStore holds embeddings keyed by node ID and supports top-k
// similarity search. Implementations must be thread-safe.
type VectorStore interface {
	// Upsert writes vector entries, replacing any existing entry with the
	// same ID.
	Upsert(ctx context.Context, entries ...*core.VectorEntry) error

	// Delete removes entries by node ID. Deleting a missing ID is not an
	// error; reconciliation relies on Delete being idempotent.
	Delete(ctx context.Context, ids ...core.ID) error

	// Search returns up to topK entries most similar to the given vector,
	// ordered by descending similarity score.
	Search(ctx context.Context, vector []float32, topK int) ([]*VectorMatch, error)

	// IDs returns the node IDs of every stored entry.
	IDs(ctx context.Context) ([]core.ID, error)

	// Close closes the store and releases resources.
	Close() error
}

// IndexStore holds the single manifest record describing the active index.
type IndexStore interface {
	// Manifest reads the active index manifest.
	// Returns ErrNotFound if no index has been created yet.
	Manifest(ctx context.Context) (*core.IndexManifest, error)

	// SaveManifest writes the manifest, replacing any existing record.
	SaveManifest(ctx context.Context, manifest *core.IndexManifest) error

	// Close closes the store and releases resources.
	Close() error
}
