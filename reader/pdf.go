package reader

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/corpus/core"
)

// PDFExtractor pulls the plain-text layer out of a PDF.
type PDFExtractor struct{}

var _ Extractor = (*PDFExtractor)(nil)

func (e *PDFExtractor) Extract(ctx context.Context, source string, content []byte) ([]*core.Document, error) {
	rdr, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	b, err := rdr.GetPlainText()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return nil, ErrExtractionFailed
	}
	return []*core.Document{{Text: text, Source: source}}, nil
}
