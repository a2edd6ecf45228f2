package reader

import (
	"context"
	"regexp"
	"strings"

	"github.com/poiesic/corpus/core"
)

// MarkdownExtractor reads markdown as text with light markup stripped so the
// embedded text reflects prose rather than syntax.
type MarkdownExtractor struct{}

var _ Extractor = (*MarkdownExtractor)(nil)

var (
	mdCodeFence = regexp.MustCompile("(?s)```.*?```")
	mdInline    = regexp.MustCompile("`([^`]*)`")
	mdHeading   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis  = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
	mdLink      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdImage     = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdListItem  = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	mdRule      = regexp.MustCompile(`(?m)^(\*{3,}|-{3,}|_{3,})\s*$`)
)

func (e *MarkdownExtractor) Extract(ctx context.Context, source string, content []byte) ([]*core.Document, error) {
	text := string(stripBOM(content))

	// Fenced code blocks are kept verbatim minus the fences.
	text = mdCodeFence.ReplaceAllStringFunc(text, func(block string) string {
		return strings.Trim(block, "`\n")
	})
	text = mdImage.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdEmphasis.ReplaceAllString(text, "$2")
	text = mdInline.ReplaceAllString(text, "$1")
	text = mdListItem.ReplaceAllString(text, "")
	text = mdRule.ReplaceAllString(text, "")

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrExtractionFailed
	}
	return []*core.Document{{Text: text, Source: source}}, nil
}
