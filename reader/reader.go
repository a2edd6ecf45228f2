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


package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/corpus/core"
)

// Extractor converts raw input bytes into documents. The source argument is
// the stable identifier recorded on each produced document (a filename or a
// URL); content is the raw payload to extract from.
type Extractor interface {
	Extract(ctx context.Context, source string, content []byte) ([]*core.Document, error)
}

// DefaultMaxFileSize bounds the raw size of an ingested file.
const DefaultMaxFileSize = 10 << 20 // 10 MiB

// userAgent is sent on URL fetches. Some sites refuse requests that carry no
// browser-looking agent at all.
const userAgent = "Magic Browser"

// fileExtensions maps known file extensions to the extractor kind that
// handles them. Unknown extensions fall back to plain text.
var fileExtensions = map[string]string{
	".txt":      "plaintext",
	".text":     "plaintext",
	".log":      "plaintext",
	".md":       "markdown",
	".markdown": "markdown",
	".csv":      "csv",
	".pdf":      "pdf",
	".html":     "web",
	".htm":      "web",
}

// AllowedFile reports whether the filename carries an ingestible extension.
// Files with no extension are accepted and read as plain text.
func AllowedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return true
	}
	_, ok := fileExtensions[ext]
	return ok
}

// Dispatcher routes inputs to format-specific extractors. File inputs are
// routed by extension; URL inputs are classified by probing the remote
// resource (YouTube link, plain-text response, downloadable document, or a
// regular web page).
type Dispatcher struct {
	client     *http.Client
	extractors map[string]Extractor
	transcript *TranscriptExtractor
	logger     *slog.Logger
}

// NewDispatcher creates a dispatcher with the full extractor set registered.
func NewDispatcher() *Dispatcher {
	client := &http.Client{Timeout: 60 * time.Second}
	return &Dispatcher{
		client: client,
		extractors: map[string]Extractor{
			"plaintext": &PlainTextExtractor{},
			"markdown":  &MarkdownExtractor{},
			"csv":       &CSVExtractor{},
			"pdf":       &PDFExtractor{},
			"web":       &WebExtractor{},
		},
		transcript: NewTranscriptExtractor(client),
		logger:     slog.Default().With("component", "reader"),
	}
}

// ReadFile extracts documents from an uploaded file. The extractor is chosen
// by the file's extension; unknown extensions are read as plain text.
func (d *Dispatcher) ReadFile(ctx context.Context, name string, content []byte) ([]*core.Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	kind, ok := fileExtensions[ext]
	if !ok {
		kind = "plaintext"
	}

	d.logger.Debug("reading file", "name", name, "extractor", kind, "bytes", len(content))

	docs, err := d.extractors[kind].Extract(ctx, name, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, name, err)
	}
	return docs, nil
}

// ReadURL fetches a URL and extracts documents from it. Classification
// happens in order: YouTube links get their transcript, text/plain responses
// are taken verbatim, links to known document types are downloaded and routed
// through the matching file extractor, and everything else goes through
// readability extraction of the page's main content.
func (d *Dispatcher) ReadURL(ctx context.Context, url string) ([]*core.Document, error) {
	if IsYouTubeURL(url) {
		docs, err := d.transcript.Extract(ctx, url, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, url, err)
		}
		return docs, nil
	}

	body, contentType, err := d.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, url, err)
	}

	kind := "web"
	switch {
	case strings.HasPrefix(contentType, "text/plain"):
		kind = "plaintext"
		body = stripBOM(body)
	case isFileLink(url):
		kind = fileExtensions[strings.ToLower(filepath.Ext(urlPath(url)))]
	}

	d.logger.Debug("reading url", "url", url, "extractor", kind, "bytes", len(body))

	docs, err := d.extractors[kind].Extract(ctx, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, url, err)
	}
	return docs, nil
}

func (d *Dispatcher) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxFileSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(body) > DefaultMaxFileSize {
		return nil, "", ErrInputTooLarge
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// isFileLink reports whether the URL path ends in a known document extension,
// meaning the link points at a downloadable file rather than a web page.
func isFileLink(url string) bool {
	ext := strings.ToLower(filepath.Ext(urlPath(url)))
	if ext == "" || ext == ".html" || ext == ".htm" {
		return false
	}
	_, ok := fileExtensions[ext]
	return ok
}

func urlPath(url string) string {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}
