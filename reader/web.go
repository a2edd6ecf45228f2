package reader

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/poiesic/corpus/core"
)

// WebExtractor pulls a page's main content out of its HTML using readability
// extraction, discarding navigation, ads and boilerplate.
type WebExtractor struct{}

var _ Extractor = (*WebExtractor)(nil)

func (e *WebExtractor) Extract(ctx context.Context, source string, content []byte) ([]*core.Document, error) {
	pageURL, err := url.Parse(source)
	if err != nil {
		pageURL = &url.URL{}
	}

	article, err := readability.FromReader(bytes.NewReader(content), pageURL)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, ErrExtractionFailed
	}

	doc := &core.Document{Text: text, Source: source}
	if article.Title != "" {
		doc.Metadata = map[string]string{"title": article.Title}
	}
	return []*core.Document{doc}, nil
}
