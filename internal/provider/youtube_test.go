package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=abc123&t=42", "abc123"},
		{"https://youtu.be/abc123", "abc123"},
		{"https://www.youtube.com/embed/abc123", "abc123"},
		{"https://www.youtube.com/v/abc123", "abc123"},
		{"https://example.com/watch?v=abc123", ""},
		{"not a url", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ExtractVideoID(tt.url); got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q; want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsValidURL(t *testing.T) {
	if !IsValidURL("https://youtu.be/abc123") {
		t.Error("expected short URL to be valid")
	}
	if IsValidURL("https://vimeo.com/12345") {
		t.Error("expected non-YouTube URL to be invalid")
	}
}

func TestURLHelpers(t *testing.T) {
	if got := ThumbnailURL("abc"); got != "https://img.youtube.com/vi/abc/maxresdefault.jpg" {
		t.Errorf("ThumbnailURL = %q", got)
	}
	if got := EmbedURL("abc"); got != "https://www.youtube.com/embed/abc" {
		t.Errorf("EmbedURL = %q", got)
	}
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("expected format=json, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"My Song","author_name":"My Channel"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	meta, err := c.Lookup(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if meta.Title != "My Song" || meta.Channel != "My Channel" {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	// Duration is not part of oEmbed; the placeholder stays.
	if meta.Duration != "00:00:00" {
		t.Errorf("expected placeholder duration, got %q", meta.Duration)
	}
}

func TestLookup_ErrorFallsBackToPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Lookup(context.Background(), "abc123"); err == nil {
		t.Fatal("expected error on non-200")
	}

	meta := PlaceholderMetadata()
	if meta.Title != "Unknown Title" || meta.Channel != "Unknown Channel" || meta.Duration != "00:00:00" {
		t.Errorf("placeholder mismatch: %+v", meta)
	}
}
