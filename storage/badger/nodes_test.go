package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

func testNode(source string, seq int, text string) *core.Node {
	docID := core.DocumentID(source, "parent document text")
	return &core.Node{
		Id:     core.NodeID(docID, seq, text),
		DocId:  docID,
		Seq:    seq,
		Text:   text,
		Source: source,
		Start:  seq * 10,
		End:    seq*10 + len(text),
		Metadata: map[string]string{
			core.MetaSource: source,
		},
		Vector: []float32{0.1, 0.2},
	}
}

func TestNodeStoreBasics(t *testing.T) {
	docs, _, _, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	node := testNode("notes.txt", 0, "Hello, world!")
	added, err := docs.AddNodes(ctx, node)
	if err != nil {
		t.Fatalf("Failed to add node: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(added))
	}
	if added[0].InsertedAt.IsZero() || added[0].UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be set")
	}

	retrieved, err := docs.GetNode(ctx, node.Id)
	if err != nil {
		t.Fatalf("Failed to get node: %v", err)
	}
	if retrieved.Text != "Hello, world!" {
		t.Fatalf("Expected 'Hello, world!', got '%s'", retrieved.Text)
	}
	if retrieved.Source != "notes.txt" {
		t.Fatalf("Expected source 'notes.txt', got '%s'", retrieved.Source)
	}
}

func TestNodeStore_GetNode_NotFound(t *testing.T) {
	docs, _, _, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer backend.Close()

	_, err = docs.GetNode(context.Background(), core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestNodeStore_Upsert(t *testing.T) {
	docs, _, _, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	node := testNode("notes.txt", 0, "original")

	if _, err := docs.AddNodes(ctx, node); err != nil {
		t.Fatalf("Failed to add node: %v", err)
	}

	// Same ID written again replaces the stored node.
	node.Metadata["title"] = "updated"
	if _, err := docs.AddNodes(ctx, node); err != nil {
		t.Fatalf("Failed to re-add node: %v", err)
	}

	ids, err := docs.NodeIDs(ctx)
	if err != nil {
		t.Fatalf("Failed to list IDs: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("Expected 1 node after upsert, got %d", len(ids))
	}

	retrieved, err := docs.GetNode(ctx, node.Id)
	if err != nil {
		t.Fatalf("Failed to get node: %v", err)
	}
	if retrieved.Metadata["title"] != "updated" {
		t.Fatal("Expected upsert to replace metadata")
	}
}

func TestNodeStore_SourceIndex(t *testing.T) {
	docs, _, _, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	a0 := testNode("a.txt", 0, "first chunk of a")
	a1 := testNode("a.txt", 1, "second chunk of a")
	b0 := testNode("b.txt", 0, "only chunk of b")

	if _, err := docs.AddNodes(ctx, a0, a1, b0); err != nil {
		t.Fatalf("Failed to add nodes: %v", err)
	}

	ids, err := docs.NodeIDsBySource(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Failed to list by source: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 nodes for a.txt, got %d", len(ids))
	}

	nodes, err := docs.NodesBySource(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Failed to get nodes by source: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].Seq > nodes[1].Seq {
		t.Fatal("Expected nodes ordered by sequence")
	}

	sources, err := docs.Sources(ctx)
	if err != nil {
		t.Fatalf("Failed to list sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}

	// Unknown source yields an empty result, not an error.
	ids, err = docs.NodeIDsBySource(ctx, "missing.txt")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("Expected no nodes for unknown source, got %d", len(ids))
	}
}

func TestNodeStore_DeleteNodes(t *testing.T) {
	docs, _, _, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	node := testNode("a.txt", 0, "to be deleted")
	keep := testNode("b.txt", 0, "to be kept")
	if _, err := docs.AddNodes(ctx, node, keep); err != nil {
		t.Fatalf("Failed to add nodes: %v", err)
	}

	if err := docs.DeleteNodes(ctx, node.Id); err != nil {
		t.Fatalf("Failed to delete node: %v", err)
	}

	if _, err := docs.GetNode(ctx, node.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	// Source index entry is cleaned up with the node.
	ids, err := docs.NodeIDsBySource(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatal("Expected source index entry to be removed")
	}

	// Other sources untouched.
	if _, err := docs.GetNode(ctx, keep.Id); err != nil {
		t.Fatalf("Expected kept node to survive, got %v", err)
	}

	// Deleting a missing node is an error.
	if err := docs.DeleteNodes(ctx, node.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestNodeStore_GetNodes_SkipsMissing(t *testing.T) {
	docs, _, _, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	node := testNode("a.txt", 0, "present")
	if _, err := docs.AddNodes(ctx, node); err != nil {
		t.Fatalf("Failed to add node: %v", err)
	}

	nodes, err := docs.GetNodes(ctx, node.Id, core.ID(424242))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
}
