package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"notes.txt", true},
		{"NOTES.TXT", true},
		{"readme.md", true},
		{"doc.markdown", true},
		{"data.csv", true},
		{"paper.pdf", true},
		{"page.html", true},
		{"page.htm", true},
		{"server.log", true},
		{"no-extension", true},
		{"archive.zip", false},
		{"image.png", false},
		{"binary.exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedFile(tt.name))
		})
	}
}

func TestDispatcher_ReadFile_PlainText(t *testing.T) {
	d := NewDispatcher()

	docs, err := d.ReadFile(context.Background(), "notes.txt", []byte("  some note text  "))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "some note text", docs[0].Text)
	assert.Equal(t, "notes.txt", docs[0].Source)
}

func TestDispatcher_ReadFile_StripsBOM(t *testing.T) {
	d := NewDispatcher()

	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("bom text")...)
	docs, err := d.ReadFile(context.Background(), "notes.txt", content)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "bom text", docs[0].Text)
}

func TestDispatcher_ReadFile_UnknownExtensionFallsBack(t *testing.T) {
	d := NewDispatcher()

	docs, err := d.ReadFile(context.Background(), "notes.unknown", []byte("fallback text"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fallback text", docs[0].Text)
}

func TestDispatcher_ReadFile_Markdown(t *testing.T) {
	d := NewDispatcher()

	md := "# Title\n\nSome **bold** text with a [link](https://example.com).\n\n- item one\n- item two\n"
	docs, err := d.ReadFile(context.Background(), "doc.md", []byte(md))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	text := docs[0].Text
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "](")
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "bold")
	assert.Contains(t, text, "link")
	assert.Contains(t, text, "item one")
}

func TestDispatcher_ReadFile_CSV(t *testing.T) {
	d := NewDispatcher()

	csv := "name,role\nAda,engineer\nLin,designer\n"
	docs, err := d.ReadFile(context.Background(), "people.csv", []byte(csv))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	text := docs[0].Text
	assert.Contains(t, text, "name: Ada")
	assert.Contains(t, text, "role: engineer")
	assert.Contains(t, text, "name: Lin")
}

func TestDispatcher_ReadFile_EmptyContent(t *testing.T) {
	d := NewDispatcher()

	_, err := d.ReadFile(context.Background(), "empty.txt", []byte("   "))
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestDispatcher_ReadURL_PlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Magic Browser", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("plain response body"))
	}))
	defer server.Close()

	d := NewDispatcher()
	docs, err := d.ReadURL(context.Background(), server.URL+"/file")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "plain response body", docs[0].Text)
	assert.Equal(t, server.URL+"/file", docs[0].Source)
}

func TestDispatcher_ReadURL_WebPage(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
<nav>menu menu menu</nav>
<article>
<h1>Test Article</h1>
<p>This is the first paragraph of the main article content. It carries enough
text for the readability pass to keep the article body.</p>
<p>The second paragraph continues with more meaningful content so extraction
has something substantial to work with.</p>
</article>
</body>
</html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer server.Close()

	d := NewDispatcher()
	docs, err := d.ReadURL(context.Background(), server.URL+"/article")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Text, "first paragraph of the main article")
}

func TestDispatcher_ReadURL_FileLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("name,role\nAda,engineer\n"))
	}))
	defer server.Close()

	d := NewDispatcher()
	docs, err := d.ReadURL(context.Background(), server.URL+"/export.csv")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Text, "name: Ada")
}

func TestDispatcher_ReadURL_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	d := NewDispatcher()
	_, err := d.ReadURL(context.Background(), server.URL+"/missing")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestIsFileLink(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/report.pdf", true},
		{"https://example.com/data.csv?version=2", true},
		{"https://example.com/notes.txt#section", true},
		{"https://example.com/page.html", false},
		{"https://example.com/article", false},
		{"https://example.com/", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, isFileLink(tt.url))
		})
	}
}
