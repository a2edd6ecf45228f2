package reader

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/poiesic/corpus/core"
)

// transcriptLanguages is tried in order until one yields captions.
var transcriptLanguages = []string{"en", "vi"}

var youtubeIDPattern = regexp.MustCompile(
	`(?:v=|\/)([0-9A-Za-z_-]{11})(?:[&?\/]|$)`,
)

// IsYouTubeURL reports whether the URL points at a YouTube video.
func IsYouTubeURL(rawURL string) bool {
	return (strings.Contains(rawURL, "youtube.com") || strings.Contains(rawURL, "youtu.be")) &&
		youtubeIDPattern.MatchString(rawURL)
}

// VideoID extracts the 11-character video identifier from a YouTube URL.
func VideoID(rawURL string) (string, bool) {
	m := youtubeIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// TranscriptExtractor fetches a YouTube video's caption track via the
// timedtext endpoint and joins the caption lines into one document.
type TranscriptExtractor struct {
	client  *http.Client
	baseURL string
}

var _ Extractor = (*TranscriptExtractor)(nil)

// NewTranscriptExtractor creates a transcript extractor using the given HTTP
// client.
func NewTranscriptExtractor(client *http.Client) *TranscriptExtractor {
	return &TranscriptExtractor{
		client:  client,
		baseURL: "https://www.youtube.com/api/timedtext",
	}
}

type timedText struct {
	Lines []struct {
		Content string `xml:",chardata"`
	} `xml:"text"`
}

// Extract ignores content and fetches captions for the video the source URL
// names, trying each configured language until one has a track.
func (e *TranscriptExtractor) Extract(ctx context.Context, source string, _ []byte) ([]*core.Document, error) {
	videoID, ok := VideoID(source)
	if !ok {
		return nil, fmt.Errorf("no video id in %q", source)
	}

	for _, lang := range transcriptLanguages {
		text, err := e.fetchTrack(ctx, videoID, lang)
		if err != nil {
			return nil, err
		}
		if text == "" {
			continue
		}
		return []*core.Document{{
			Text:     text,
			Source:   source,
			Metadata: map[string]string{"video_id": videoID, "language": lang},
		}}, nil
	}

	return nil, fmt.Errorf("no transcript available for video %s", videoID)
}

func (e *TranscriptExtractor) fetchTrack(ctx context.Context, videoID, lang string) (string, error) {
	u := fmt.Sprintf("%s?lang=%s&v=%s", e.baseURL, lang, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var track timedText
	if err := xml.Unmarshal(body, &track); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(track.Lines))
	for _, line := range track.Lines {
		content := strings.TrimSpace(html.UnescapeString(line.Content))
		if content != "" {
			lines = append(lines, content)
		}
	}
	return strings.Join(lines, " "), nil
}
