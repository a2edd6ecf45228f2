package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// ManifestStore implements storage.IndexStore for BadgerDB.
// It holds the single record describing the active index identity.
type ManifestStore struct {
	backend *Backend
}

var _ storage.IndexStore = (*ManifestStore)(nil)

// NewManifestStore creates a new ManifestStore on the given backend.
func NewManifestStore(backend *Backend) *ManifestStore {
	return &ManifestStore{backend: backend}
}

// Close is a no-op; the shared backend owns the database handle.
func (s *ManifestStore) Close() error {
	return nil
}

// Manifest reads the active index manifest.
func (s *ManifestStore) Manifest(ctx context.Context) (*core.IndexManifest, error) {
	var manifest *core.IndexManifest
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(manifestRecordKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			manifest, err = storage.UnmarshalManifest(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

// SaveManifest writes the manifest, replacing any existing record.
func (s *ManifestStore) SaveManifest(ctx context.Context, manifest *core.IndexManifest) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(manifestRecordKey), storage.MarshalManifest(manifest)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
