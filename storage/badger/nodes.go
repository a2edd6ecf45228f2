package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// NodeStore implements storage.DocumentStore for BadgerDB.
// Each node is written twice: the primary record keyed by node ID and a
// source index entry used for source-scoped listing and deletion.
type NodeStore struct {
	backend *Backend
}

var _ storage.DocumentStore = (*NodeStore)(nil)

// NewNodeStore creates a new NodeStore on the given backend.
func NewNodeStore(backend *Backend) *NodeStore {
	return &NodeStore{backend: backend}
}

// Close is a no-op; the shared backend owns the database handle.
func (s *NodeStore) Close() error {
	return nil
}

// AddNodes writes nodes to the store, keyed by node ID.
// Writing an existing ID replaces the stored node.
func (s *NodeStore) AddNodes(ctx context.Context, nodes ...*core.Node) ([]*core.Node, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, node := range nodes {
			if err := core.ValidateNode(node); err != nil {
				return err
			}

			node.InsertedAt = time.Now().UTC()
			node.UpdatedAt = node.InsertedAt

			key := makeNodeKey(node.Id)
			value := storage.MarshalNode(node)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			srcKey := makeSourceKey(node.Source, node.Id)
			if err := tx.Set(srcKey, storage.MarshalID(node.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return nodes, err
}

// GetNode retrieves a single node by ID.
func (s *NodeStore) GetNode(ctx context.Context, id core.ID) (*core.Node, error) {
	var node *core.Node
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		node, err = s.readNode(tx, makeNodeKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, storage.ErrNotFound
	}
	return node, nil
}

// GetNodes retrieves multiple nodes by their IDs.
// Missing nodes are skipped rather than reported as errors.
func (s *NodeStore) GetNodes(ctx context.Context, ids ...core.ID) ([]*core.Node, error) {
	nodes := make([]*core.Node, 0, len(ids))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			node, err := s.readNode(tx, makeNodeKey(id))
			if err != nil {
				return err
			}
			if node != nil {
				nodes = append(nodes, node)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// DeleteNodes removes nodes by their IDs, including source index entries.
func (s *NodeStore) DeleteNodes(ctx context.Context, ids ...core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeNodeKey(id)

			// Read record to get the source for index cleanup
			node, err := s.readNode(tx, key)
			if err != nil {
				return err
			}
			if node == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeSourceKey(node.Source, node.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// NodeIDs returns the IDs of every stored node.
func (s *NodeStore) NodeIDs(ctx context.Context) ([]core.ID, error) {
	var ids []core.ID
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(nodeRecordPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id, err := parseIDKey(iter.Item().Key(), nodeRecordPrefix)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// NodeIDsBySource returns the IDs of all nodes whose source matches.
func (s *NodeStore) NodeIDsBySource(ctx context.Context, source string) ([]core.ID, error) {
	var ids []core.ID
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialSourceKey(source)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			_, id, ok := splitSourceKey(iter.Item().Key())
			if !ok {
				continue
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// NodesBySource returns all nodes whose source matches, ordered by document
// and sequence position.
func (s *NodeStore) NodesBySource(ctx context.Context, source string) ([]*core.Node, error) {
	ids, err := s.NodeIDsBySource(ctx, source)
	if err != nil {
		return nil, err
	}

	nodes, err := s.GetNodes(ctx, ids...)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(nodes, func(a, b *core.Node) int {
		if a.DocId != b.DocId {
			if a.DocId < b.DocId {
				return -1
			}
			return 1
		}
		return a.Seq - b.Seq
	})
	return nodes, nil
}

// Sources returns the distinct source values across all stored nodes.
func (s *NodeStore) Sources(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var sources []string

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(nodeSourcePrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			source, _, ok := splitSourceKey(iter.Item().Key())
			if !ok {
				continue
			}
			if !seen[source] {
				seen[source] = true
				sources = append(sources, source)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(sources, strings.Compare)
	return sources, nil
}

// readNode reads and unmarshals a node, returning nil if the key is absent.
func (s *NodeStore) readNode(tx *badger.Txn, key []byte) (*core.Node, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var node *core.Node
	err = item.Value(func(val []byte) error {
		var err error
		node, err = storage.UnmarshalNode(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}
