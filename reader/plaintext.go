package reader

import (
	"context"
	"strings"

	"github.com/poiesic/corpus/core"
)

// PlainTextExtractor reads the input bytes as UTF-8 text, unmodified.
type PlainTextExtractor struct{}

var _ Extractor = (*PlainTextExtractor)(nil)

func (e *PlainTextExtractor) Extract(ctx context.Context, source string, content []byte) ([]*core.Document, error) {
	text := strings.TrimSpace(string(stripBOM(content)))
	if text == "" {
		return nil, ErrExtractionFailed
	}
	return []*core.Document{{Text: text, Source: source}}, nil
}
