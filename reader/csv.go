package reader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/poiesic/corpus/core"
)

// CSVExtractor renders each data row as "header: value" lines, one document
// per file, so row structure survives into the embedded text.
type CSVExtractor struct{}

var _ Extractor = (*CSVExtractor)(nil)

func (e *CSVExtractor) Extract(ctx context.Context, source string, content []byte) ([]*core.Document, error) {
	r := csv.NewReader(bytes.NewReader(stripBOM(content)))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrExtractionFailed
	}

	header := records[0]
	var sb strings.Builder
	for _, row := range records[1:] {
		for i, field := range row {
			if i < len(header) {
				fmt.Fprintf(&sb, "%s: %s\n", header[i], field)
			} else {
				fmt.Fprintf(&sb, "%s\n", field)
			}
		}
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		// Header-only file: embed the header row itself.
		text = strings.Join(header, ", ")
	}
	return []*core.Document{{Text: text, Source: source}}, nil
}
