package ingestion

import (
	"regexp"
	"strings"

	"github.com/poiesic/corpus/core"
)

var newlineRuns = regexp.MustCompile(`\s*\n\s*`)

// Normalize collapses whitespace around newlines, trims the text, and stamps
// the document's content-derived identity. Each newline run (with any
// surrounding spaces or tabs) becomes a single newline. Normalize is
// idempotent: applying it to an already-normalized document changes nothing.
func Normalize(doc *core.Document) *core.Document {
	text := newlineRuns.ReplaceAllString(doc.Text, "\n")
	text = strings.TrimSpace(text)

	out := &core.Document{
		Text:       text,
		Source:     doc.Source,
		InsertedAt: doc.InsertedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	out.Id = core.DocumentID(out.Source, out.Text)

	out.Metadata = make(map[string]string, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		out.Metadata[k] = v
	}
	out.Metadata[core.MetaDocID] = out.Id.String()
	out.Metadata[core.MetaSource] = out.Source

	return out
}
