package ingestion

import (
	"strings"
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkDoc(text string) *core.Document {
	return Normalize(&core.Document{Text: text, Source: "test.txt"})
}

func TestNewChunker(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		c, err := NewChunker(100, 20)
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("zero size", func(t *testing.T) {
		_, err := NewChunker(0, 0)
		assert.ErrorIs(t, err, ErrInvalidChunking)
	})

	t.Run("overlap not below size", func(t *testing.T) {
		_, err := NewChunker(100, 100)
		assert.ErrorIs(t, err, ErrInvalidChunking)
	})

	t.Run("negative overlap", func(t *testing.T) {
		_, err := NewChunker(100, -1)
		assert.ErrorIs(t, err, ErrInvalidChunking)
	})
}

func TestChunker_SingleChunk(t *testing.T) {
	c, err := NewChunker(1024, 200)
	require.NoError(t, err)

	doc := chunkDoc("A short document. It fits in one chunk.")
	nodes := c.Split(doc)

	require.Len(t, nodes, 1)
	assert.Equal(t, doc.Text, nodes[0].Text)
	assert.Equal(t, 0, nodes[0].Seq)
	assert.Equal(t, 0, nodes[0].Start)
	assert.Equal(t, len([]rune(doc.Text)), nodes[0].End)
	assert.Equal(t, doc.Id, nodes[0].DocId)
	assert.Equal(t, "0", nodes[0].Metadata[core.MetaSeq])
}

func TestChunker_EmptyDocument(t *testing.T) {
	c, err := NewChunker(100, 20)
	require.NoError(t, err)

	nodes := c.Split(&core.Document{Text: "", Source: "empty.txt"})
	assert.Empty(t, nodes)
}

func TestChunker_OffsetsIndexIntoDocument(t *testing.T) {
	c, err := NewChunker(60, 20)
	require.NoError(t, err)

	doc := chunkDoc(strings.Repeat("One sentence here. Another sentence follows. ", 10))
	nodes := c.Split(doc)
	require.Greater(t, len(nodes), 1)

	runes := []rune(doc.Text)
	for _, node := range nodes {
		require.GreaterOrEqual(t, node.Start, 0)
		require.LessOrEqual(t, node.End, len(runes))
		assert.Equal(t, string(runes[node.Start:node.End]), node.Text,
			"node %d text must equal the document slice at its offsets", node.Seq)
	}
}

func TestChunker_Reconstruction(t *testing.T) {
	c, err := NewChunker(60, 20)
	require.NoError(t, err)

	doc := chunkDoc(strings.Repeat("Alpha beta gamma delta. Epsilon zeta eta theta. ", 8))
	nodes := c.Split(doc)
	require.Greater(t, len(nodes), 1)

	// Chunks cover the document without gaps: each chunk begins at or before
	// the previous chunk's end, and together they span the whole text.
	assert.Equal(t, 0, nodes[0].Start)
	for i := 1; i < len(nodes); i++ {
		assert.LessOrEqual(t, nodes[i].Start, nodes[i-1].End, "gap before node %d", i)
		assert.Greater(t, nodes[i].End, nodes[i-1].End, "node %d does not advance", i)
	}
	assert.Equal(t, len([]rune(doc.Text)), nodes[len(nodes)-1].End)

	// Concatenating the non-overlapping portions reconstructs the text.
	runes := []rune(doc.Text)
	var sb strings.Builder
	prevEnd := 0
	for _, node := range nodes {
		start := node.Start
		if start < prevEnd {
			start = prevEnd
		}
		sb.WriteString(string(runes[start:node.End]))
		prevEnd = node.End
	}
	assert.Equal(t, doc.Text, sb.String())
}

func TestChunker_RespectsSizeAndOverlap(t *testing.T) {
	const size, overlap = 80, 30
	c, err := NewChunker(size, overlap)
	require.NoError(t, err)

	doc := chunkDoc(strings.Repeat("Short sentence one. Short sentence two. Short sentence three. ", 6))
	nodes := c.Split(doc)
	require.Greater(t, len(nodes), 1)

	for i, node := range nodes {
		assert.LessOrEqual(t, node.End-node.Start, size, "node %d exceeds chunk size", i)
		if i > 0 {
			assert.LessOrEqual(t, nodes[i-1].End-node.Start, overlap, "node %d overlap too large", i)
		}
	}
}

func TestChunker_LongSentenceGetsCut(t *testing.T) {
	c, err := NewChunker(50, 10)
	require.NoError(t, err)

	// No sentence boundaries at all, longer than the chunk size.
	doc := chunkDoc(strings.Repeat("word ", 40))
	nodes := c.Split(doc)
	require.Greater(t, len(nodes), 1)

	for i, node := range nodes {
		assert.LessOrEqual(t, node.End-node.Start, 50, "node %d exceeds chunk size", i)
	}
	assert.Equal(t, len([]rune(doc.Text)), nodes[len(nodes)-1].End)
}

func TestChunker_StableNodeIdentity(t *testing.T) {
	c, err := NewChunker(60, 20)
	require.NoError(t, err)

	doc := chunkDoc(strings.Repeat("Stable content sentence. ", 10))

	first := c.Split(doc)
	second := c.Split(doc)
	require.Equal(t, len(first), len(second))

	for i := range first {
		assert.Equal(t, first[i].Id, second[i].Id, "node %d identity changed", i)
	}
}
