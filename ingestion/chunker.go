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


package ingestion

import (
	"strconv"
	"unicode"

	"github.com/poiesic/corpus/core"
)

const (
	// DefaultChunkSize is the maximum chunk length in runes.
	DefaultChunkSize = 1024

	// DefaultChunkOverlap is the maximum overlap between consecutive chunks
	// in runes.
	DefaultChunkOverlap = 200
)

// span is a half-open rune range [start, end) into the document text.
type span struct {
	start, end int
}

// Chunker splits normalized documents into overlapping nodes along sentence
// boundaries. Sentence spans tile the document text completely, so every
// node's Start/End offsets index directly into the parent document and
// concatenating non-overlapping portions reconstructs the full text.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Size is the maximum chunk length in runes,
// overlap the maximum carry-over between consecutive chunks. Overlap must be
// smaller than size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, ErrInvalidChunking
	}
	return &Chunker{chunkSize: size, overlap: overlap}, nil
}

// NewDefaultChunker creates a chunker with the default size and overlap.
func NewDefaultChunker() *Chunker {
	c, _ := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	return c
}

// Split breaks a document into nodes. Each node covers one or more whole
// sentence spans, never exceeds the chunk size, and overlaps its predecessor
// by at most the configured overlap. The document must already be normalized
// and carry its content-derived Id.
func (c *Chunker) Split(doc *core.Document) []*core.Node {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}

	spans := c.sentenceSpans(runes)

	var nodes []*core.Node
	i := 0
	for i < len(spans) {
		// Greedily extend the window with whole spans up to the size limit.
		j := i + 1
		for j < len(spans) && spans[j].end-spans[i].start <= c.chunkSize {
			j++
		}

		start, end := spans[i].start, spans[j-1].end
		nodes = append(nodes, c.newNode(doc, len(nodes), runes, start, end))

		if j == len(spans) {
			break
		}

		// Start the next window at the latest span boundary that keeps the
		// overlap within the limit, always advancing at least one span.
		next := j
		for next > i+1 && end-spans[next-1].start <= c.overlap {
			next--
		}
		i = next
	}

	return nodes
}

func (c *Chunker) newNode(doc *core.Document, seq int, runes []rune, start, end int) *core.Node {
	text := string(runes[start:end])

	meta := make(map[string]string, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta[core.MetaSeq] = strconv.Itoa(seq)

	return &core.Node{
		Id:       core.NodeID(doc.Id, seq, text),
		DocId:    doc.Id,
		Seq:      seq,
		Text:     text,
		Source:   doc.Source,
		Start:    start,
		End:      end,
		Metadata: meta,
	}
}

// sentenceSpans tiles the text into sentence-sized spans. A span ends after
// terminal punctuation followed by whitespace, or after a newline; trailing
// whitespace belongs to the preceding span so the spans cover every rune.
// Spans longer than the chunk size are cut into chunk-size pieces.
func (c *Chunker) sentenceSpans(runes []rune) []span {
	var spans []span
	start := 0
	for i := 0; i < len(runes); i++ {
		boundary := false
		switch runes[i] {
		case '\n':
			boundary = true
		case '.', '!', '?':
			boundary = i+1 == len(runes) || unicode.IsSpace(runes[i+1])
		}
		if !boundary {
			continue
		}

		end := i + 1
		for end < len(runes) && unicode.IsSpace(runes[end]) {
			end++
		}
		spans = append(spans, span{start, end})
		i = end - 1
		start = end
	}
	if start < len(runes) {
		spans = append(spans, span{start, len(runes)})
	}

	// Cut spans that exceed the chunk size on their own.
	out := make([]span, 0, len(spans))
	for _, s := range spans {
		for s.end-s.start > c.chunkSize {
			out = append(out, span{s.start, s.start + c.chunkSize})
			s.start += c.chunkSize
		}
		if s.end > s.start {
			out = append(out, s)
		}
	}
	return out
}
