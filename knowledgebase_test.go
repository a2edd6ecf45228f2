package corpus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/ai/mock"
	"github.com/poiesic/corpus/reader"
)

func openTestKB(t *testing.T) *KnowledgeBase {
	t.Helper()

	kb, err := Open(context.Background(), t.TempDir(),
		WithEmbedder(mock.NewMockEmbedder()),
		WithEmbeddingDim(384),
		WithChunking(200, 40),
		WithPoolSize(2),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, kb.Close())
	})
	return kb
}

func TestKnowledgeBase_IngestFileAndQuery(t *testing.T) {
	kb := openTestKB(t)
	ctx := context.Background()

	content := []byte("The aurora borealis appears when solar wind strikes the atmosphere. " +
		"Charged particles collide with oxygen and nitrogen. " +
		"The collisions release light in green and red hues.")

	docs, err := kb.IngestFile(ctx, "aurora.txt", content)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "aurora.txt", docs[0].Source)

	results, err := kb.Query(ctx, "aurora borealis solar wind", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "aurora.txt", results[0].Node.Source)

	sources, err := kb.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"aurora.txt"}, sources)
}

func TestKnowledgeBase_SingleChunkFile(t *testing.T) {
	kb := openTestKB(t)
	ctx := context.Background()

	_, err := kb.IngestFile(ctx, "notes.txt", []byte("Hello world.\n\nThis is a test."))
	require.NoError(t, err)

	nodes, err := kb.Manager().NodesBySource(ctx, "notes.txt")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Hello world.\nThis is a test.", nodes[0].Text)
	assert.Equal(t, "notes.txt", nodes[0].Metadata["source"])
}

func TestKnowledgeBase_DuplicateFileRejected(t *testing.T) {
	kb := openTestKB(t)
	ctx := context.Background()

	_, err := kb.IngestFile(ctx, "notes.txt", []byte("first version of the notes."))
	require.NoError(t, err)

	_, err = kb.IngestFile(ctx, "notes.txt", []byte("second version of the notes."))
	assert.ErrorIs(t, err, reader.ErrDuplicateInput)
}

func TestKnowledgeBase_UnsupportedExtension(t *testing.T) {
	kb := openTestKB(t)

	_, err := kb.IngestFile(context.Background(), "archive.zip", []byte("binary"))
	assert.ErrorIs(t, err, reader.ErrUnsupportedInput)
}

func TestKnowledgeBase_FileTooLarge(t *testing.T) {
	kb, err := Open(context.Background(), t.TempDir(),
		WithEmbedder(mock.NewMockEmbedder()),
		WithEmbeddingDim(384),
		WithMaxFileSize(16),
	)
	require.NoError(t, err)
	defer kb.Close()

	_, err = kb.IngestFile(context.Background(), "big.txt", []byte("this content exceeds the configured limit"))
	assert.ErrorIs(t, err, reader.ErrInputTooLarge)
}

func TestKnowledgeBase_ExtractionFailureFreesName(t *testing.T) {
	kb := openTestKB(t)
	ctx := context.Background()

	// Whitespace-only content extracts to nothing.
	_, err := kb.IngestFile(ctx, "empty.txt", []byte("   \n "))
	require.ErrorIs(t, err, reader.ErrExtractionFailed)

	// The artifact was removed, so the name can be retried.
	_, err = kb.IngestFile(ctx, "empty.txt", []byte("real content this time."))
	assert.NoError(t, err)
}

func TestKnowledgeBase_IngestURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("A page about migratory birds crossing the continent each autumn."))
	}))
	defer server.Close()

	kb := openTestKB(t)
	ctx := context.Background()

	url := server.URL + "/birds"
	docs, err := kb.IngestURL(ctx, url)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, url, docs[0].Source)

	before, err := kb.Manager().NodesBySource(ctx, url)
	require.NoError(t, err)
	require.Len(t, before, 1)

	// Re-ingesting the same unchanged URL is an idempotent upsert: content-
	// derived IDs rewrite the same records, so the indexed node set is
	// unchanged.
	again, err := kb.IngestURL(ctx, url)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, docs[0].Id, again[0].Id)

	after, err := kb.Manager().NodesBySource(ctx, url)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].Id, after[0].Id)
}

func TestKnowledgeBase_DeleteSource(t *testing.T) {
	kb := openTestKB(t)
	ctx := context.Background()

	_, err := kb.IngestFile(ctx, "keep.txt", []byte("this source stays in the index."))
	require.NoError(t, err)
	_, err = kb.IngestFile(ctx, "drop.txt", []byte("this source gets removed."))
	require.NoError(t, err)

	removed, err := kb.DeleteSource(ctx, "drop.txt")
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	sources, err := kb.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.txt"}, sources)

	// Deleting the source frees the filename for re-upload.
	_, err = kb.IngestFile(ctx, "drop.txt", []byte("uploaded again after deletion."))
	assert.NoError(t, err)
}

func TestKnowledgeBase_DeleteAll(t *testing.T) {
	kb := openTestKB(t)
	ctx := context.Background()

	_, err := kb.IngestFile(ctx, "one.txt", []byte("first document body."))
	require.NoError(t, err)
	_, err = kb.IngestFile(ctx, "two.txt", []byte("second document body."))
	require.NoError(t, err)

	removed, err := kb.DeleteAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one.txt", "two.txt"}, removed)

	sources, err := kb.Sources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	results, err := kb.Query(ctx, "document body", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
