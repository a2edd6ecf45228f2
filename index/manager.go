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


package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/reader"
	"github.com/poiesic/corpus/storage"
)

// IndexID names the single index this manager maintains.
const IndexID = "corpus-index"

// Manager owns the document, vector and manifest stores and keeps them
// paired: every indexed node has exactly one record in the document store and
// one entry in the vector store, both keyed by the node's ID. All writes and
// deletes go through the manager so the pairing invariant has a single owner.
type Manager struct {
	docs      storage.DocumentStore
	vectors   storage.VectorStore
	manifests storage.IndexStore
	artifacts *reader.ArtifactStore
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithArtifactStore attaches the artifact store so source deletion also
// removes the stored raw file.
func WithArtifactStore(artifacts *reader.ArtifactStore) Option {
	return func(m *Manager) {
		m.artifacts = artifacts
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
	}
}

// NewManager creates an index manager over the given stores.
func NewManager(docs storage.DocumentStore, vectors storage.VectorStore, manifests storage.IndexStore, opts ...Option) (*Manager, error) {
	if docs == nil {
		return nil, ErrDocumentStoreRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if manifests == nil {
		return nil, ErrIndexStoreRequired
	}

	m := &Manager{
		docs:      docs,
		vectors:   vectors,
		manifests: manifests,
		logger:    slog.Default().With("component", "index-manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// GetOrCreate loads the index manifest, creating it on first run. On resume
// it reconciles the stores: vector entries with no document-store
// counterpart are deleted, and nodes with no vector entry are reported so
// the source can be re-ingested. GetOrCreate is idempotent; calling it on an
// already-consistent index changes nothing.
func (m *Manager) GetOrCreate(ctx context.Context, embedDim int) (*core.IndexManifest, error) {
	manifest, err := m.manifests.Manifest(ctx)
	if err == nil {
		if reconcileErr := m.reconcile(ctx); reconcileErr != nil {
			return nil, reconcileErr
		}
		return manifest, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	manifest = &core.IndexManifest{
		IndexId:  IndexID,
		EmbedDim: embedDim,
		// Serialization stores timestamps at microsecond precision; truncate
		// so the manifest returned here matches the one read back on resume.
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := m.manifests.SaveManifest(ctx, manifest); err != nil {
		return nil, err
	}

	m.logger.Info("created index", "index", IndexID, "dim", embedDim)
	return manifest, nil
}

// reconcile removes vector entries whose node no longer exists in the
// document store. The reverse asymmetry (a node without a vector entry) is
// logged but left alone: the node's text is intact and re-ingesting the
// source restores its embedding.
func (m *Manager) reconcile(ctx context.Context) error {
	nodeIDs, err := m.docs.NodeIDs(ctx)
	if err != nil {
		return err
	}
	vectorIDs, err := m.vectors.IDs(ctx)
	if err != nil {
		return err
	}

	known := make(map[core.ID]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		known[id] = struct{}{}
	}

	var orphaned []core.ID
	for _, id := range vectorIDs {
		if _, ok := known[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	if len(orphaned) > 0 {
		if err := m.vectors.Delete(ctx, orphaned...); err != nil {
			return fmt.Errorf("%w: failed to remove orphaned vectors: %w", storage.ErrInconsistent, err)
		}
		m.logger.Warn("removed orphaned vector entries", "count", len(orphaned))
	}

	embedded := make(map[core.ID]struct{}, len(vectorIDs))
	for _, id := range vectorIDs {
		embedded[id] = struct{}{}
	}
	missing := 0
	for _, id := range nodeIDs {
		if _, ok := embedded[id]; !ok {
			missing++
		}
	}
	if missing > 0 {
		m.logger.Warn("nodes without vector entries; re-ingest their sources to restore search coverage", "count", missing)
	}

	return nil
}

// AddNodes indexes embedded nodes. Each node is written to the document
// store first and then to the vector store so a crash between the two writes
// leaves only the recoverable asymmetry (a node missing its vector entry,
// restored by re-ingestion). Nodes must carry their embeddings.
func (m *Manager) AddNodes(ctx context.Context, nodes ...*core.Node) error {
	for _, node := range nodes {
		if err := core.ValidateNode(node); err != nil {
			return err
		}
		if len(node.Vector) == 0 {
			return fmt.Errorf("%w: node %s", ErrMissingVector, node.Id)
		}
	}

	for _, node := range nodes {
		if _, err := m.docs.AddNodes(ctx, node); err != nil {
			return err
		}
		entry := &core.VectorEntry{
			Id:       node.Id,
			Vector:   node.Vector,
			Metadata: node.Metadata,
		}
		if err := m.vectors.Upsert(ctx, entry); err != nil {
			return fmt.Errorf("%w: node %s stored without vector entry: %w", storage.ErrInconsistent, node.Id, err)
		}
	}

	return nil
}

// Sources returns the distinct sources currently indexed.
func (m *Manager) Sources(ctx context.Context) ([]string, error) {
	return m.docs.Sources(ctx)
}

// NodesBySource returns a source's nodes ordered by document and sequence.
func (m *Manager) NodesBySource(ctx context.Context, source string) ([]*core.Node, error) {
	return m.docs.NodesBySource(ctx, source)
}

// DeleteBySource removes everything indexed for one source: each node's
// vector entry first, then the node record, then the stored artifact if one
// exists. Deletion is scoped exactly to the source; on a mid-way failure it
// stops and returns the node IDs removed so far, leaving other sources
// untouched. Returns ErrUnknownSource when nothing is indexed for the source.
func (m *Manager) DeleteBySource(ctx context.Context, source string) ([]core.ID, error) {
	ids, err := m.docs.NodeIDsBySource(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}

	deleted := make([]core.ID, 0, len(ids))
	for _, id := range ids {
		if err := m.vectors.Delete(ctx, id); err != nil {
			return deleted, err
		}
		if err := m.docs.DeleteNodes(ctx, id); err != nil {
			return deleted, err
		}
		deleted = append(deleted, id)
	}

	// Only file uploads have artifacts. A URL source must not be resolved
	// against the artifact directory: its base name could collide with an
	// unrelated uploaded file and remove that file's duplicate guard.
	if m.artifacts != nil && !remoteSource(source) {
		if _, err := m.artifacts.Delete(source); err != nil {
			m.logger.Warn("failed to remove artifact", "source", source, "err", err)
		}
	}

	m.logger.Info("deleted source", "source", source, "nodes", len(deleted))
	return deleted, nil
}

// remoteSource reports whether the source identifies fetched remote content
// rather than an uploaded file.
func remoteSource(source string) bool {
	u, err := url.Parse(source)
	return err == nil && u.IsAbs()
}

// DeleteAll removes every indexed source and any stored artifacts. Returns
// the sources removed.
func (m *Manager) DeleteAll(ctx context.Context) ([]string, error) {
	sources, err := m.docs.Sources(ctx)
	if err != nil {
		return nil, err
	}

	deleted := make([]string, 0, len(sources))
	for _, source := range sources {
		if _, err := m.DeleteBySource(ctx, source); err != nil {
			return deleted, err
		}
		deleted = append(deleted, source)
	}

	// Artifacts for sources that never made it into the index.
	if m.artifacts != nil {
		names, err := m.artifacts.List()
		if err != nil {
			return deleted, err
		}
		for _, name := range names {
			if _, err := m.artifacts.Delete(name); err != nil {
				return deleted, err
			}
		}
	}

	return deleted, nil
}

// Close closes all three stores.
func (m *Manager) Close() error {
	return errors.Join(m.docs.Close(), m.vectors.Close(), m.manifests.Close())
}
