// Package provider resolves YouTube URLs submitted with a song into video
// ids and display metadata. Metadata lookup is best effort: the queue works
// fine with the placeholder values when YouTube is unreachable.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&\n?#]+)`),
}

// ExtractVideoID pulls the video id out of the usual YouTube URL shapes.
// Returns "" when the URL is not recognizable.
func ExtractVideoID(rawURL string) string {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

func IsValidURL(rawURL string) bool {
	return ExtractVideoID(rawURL) != ""
}

func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}

func EmbedURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s", videoID)
}

// Metadata is what the lookup can learn about a video. Duration is not part
// of the oEmbed response, so it stays at the zero placeholder unless a
// richer source is wired in.
type Metadata struct {
	Title    string
	Channel  string
	Duration string
}

// PlaceholderMetadata is used when the lookup fails or is disabled.
func PlaceholderMetadata() Metadata {
	return Metadata{
		Title:    "Unknown Title",
		Channel:  "Unknown Channel",
		Duration: "00:00:00",
	}
}

type Client struct {
	oembedURL string
	http      *http.Client
}

func NewClient(oembedURL string) *Client {
	if oembedURL == "" {
		oembedURL = "https://www.youtube.com/oembed"
	}
	return &Client{
		oembedURL: oembedURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// Lookup fetches title and channel for a video via the keyless oEmbed
// endpoint. On any failure the caller should fall back to
// PlaceholderMetadata.
func (c *Client) Lookup(ctx context.Context, videoID string) (Metadata, error) {
	val := url.Values{}
	val.Set("url", "https://www.youtube.com/watch?v="+videoID)
	val.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.oembedURL+"?"+val.Encode(), nil)
	if err != nil {
		return Metadata{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("youtube oembed status %d", resp.StatusCode)
	}

	var body oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Metadata{}, err
	}

	meta := PlaceholderMetadata()
	if body.Title != "" {
		meta.Title = body.Title
	}
	if body.AuthorName != "" {
		meta.Channel = body.AuthorName
	}
	return meta, nil
}
