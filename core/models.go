package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Metadata keys stamped on every Document and Node during ingestion.
// Lookups by source and parent document resolve through these keys.
const (
	MetaDocID  = "doc_id"
	MetaSource = "source"
	MetaSeq    = "seq"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so that identical content
// produces identical IDs across re-ingestion.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String returns the decimal representation of the ID, used when an ID is
// stamped into string-valued metadata.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// DocumentID derives the ID for a document from its source and normalized
// text. Re-ingesting identical content from the same source yields the same
// document ID, which makes re-ingestion an upsert rather than a duplicate.
func DocumentID(source, text string) ID {
	return IDFromContent(source + "\x1f" + text)
}

// NodeID derives the ID for a chunk from its parent document, position,
// and text.
func NodeID(docID ID, seq int, text string) ID {
	return IDFromContent(docID.String() + ":" + strconv.Itoa(seq) + ":" + text)
}

// Document represents a whole ingested unit of content: one uploaded file or
// one URL fetch. Documents are produced by the reader dispatch, cleaned and
// stamped by the normalizer, and immutable afterwards.
type Document struct {
	Id         ID
	Text       string
	Source     string            // filename for uploads, URL for remote content
	Metadata   map[string]string // provenance fields, stamped by the normalizer
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Node is a chunk of a document's text, the unit that is embedded and
// indexed. Start and End are rune offsets into the parent document's
// normalized text; consecutive nodes overlap, and the offsets recover the
// exact source passage for citation.
type Node struct {
	Id         ID
	DocId      ID
	Seq        int // position within the parent document, 0-based
	Text       string
	Source     string
	Start      int
	End        int
	Metadata   map[string]string
	Vector     []float32 // populated by the embedding stage, empty until then
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// EmbedText returns the text submitted to the embedding provider for this
// node: metadata fields first, then the chunk body. Including provenance
// metadata lets retrieval match on source and position as well as content.
func (n *Node) EmbedText() string {
	if len(n.Metadata) == 0 {
		return n.Text
	}

	keys := make([]string, 0, len(n.Metadata))
	for k := range n.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(n.Metadata[k])
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(n.Text)
	return b.String()
}

// VectorEntry is the record stored in the vector store: a node's ID, its
// embedding, and the provenance metadata needed for source-scoped lookups.
type VectorEntry struct {
	Id       ID
	Vector   []float32
	Metadata map[string]string
}

// IndexManifest identifies the active index. Exactly one manifest lives in
// the index metadata store; its presence distinguishes "resume existing
// index" from "create new index" at bootstrap.
type IndexManifest struct {
	IndexId   string
	EmbedDim  int
	CreatedAt time.Time
}

// ScoredNode is a retrieval result: a node with its similarity score.
type ScoredNode struct {
	Node  *Node
	Score float32
}
