package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsYouTubeURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=30", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"https://example.com/watch?v=dQw4w9WgXcQ", false},
		{"https://www.youtube.com/", false},
		{"https://example.com/article", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsYouTubeURL(tt.url))
		})
	}
}

func TestVideoID(t *testing.T) {
	id, ok := VideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.True(t, ok)
	assert.Equal(t, "dQw4w9WgXcQ", id)

	id, ok = VideoID("https://youtu.be/abcdefghijk?t=12")
	require.True(t, ok)
	assert.Equal(t, "abcdefghijk", id)

	_, ok = VideoID("https://www.youtube.com/")
	assert.False(t, ok)
}

func TestTranscriptExtractor_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("v"))
		if r.URL.Query().Get("lang") != "en" {
			w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?><transcript></transcript>`))
			return
		}
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">first caption line</text>
  <text start="2.5" dur="3.0">second &amp; third</text>
  <text start="5.5" dur="1.0">  </text>
</transcript>`))
	}))
	defer server.Close()

	e := &TranscriptExtractor{client: server.Client(), baseURL: server.URL}

	source := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	docs, err := e.Extract(context.Background(), source, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "first caption line second & third", docs[0].Text)
	assert.Equal(t, source, docs[0].Source)
	assert.Equal(t, "dQw4w9WgXcQ", docs[0].Metadata["video_id"])
	assert.Equal(t, "en", docs[0].Metadata["language"])
}

func TestTranscriptExtractor_FallbackLanguage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") == "vi" {
			w.Write([]byte(`<transcript><text>xin chao</text></transcript>`))
			return
		}
		w.Write([]byte(`<transcript></transcript>`))
	}))
	defer server.Close()

	e := &TranscriptExtractor{client: server.Client(), baseURL: server.URL}

	docs, err := e.Extract(context.Background(), "https://youtu.be/abcdefghijk", nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "xin chao", docs[0].Text)
	assert.Equal(t, "vi", docs[0].Metadata["language"])
}

func TestTranscriptExtractor_NoTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<transcript></transcript>`))
	}))
	defer server.Close()

	e := &TranscriptExtractor{client: server.Client(), baseURL: server.URL}

	_, err := e.Extract(context.Background(), "https://youtu.be/abcdefghijk", nil)
	assert.Error(t, err)
}

func TestTranscriptExtractor_InvalidURL(t *testing.T) {
	e := NewTranscriptExtractor(http.DefaultClient)

	_, err := e.Extract(context.Background(), "https://www.youtube.com/", nil)
	assert.Error(t, err)
}
