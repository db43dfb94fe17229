package models

import (
	"time"
)

// Song statuses. Transitions are forward-only: queued -> playing -> played
// (or the song is deleted while still queued).
const (
	StatusQueued  = "queued"
	StatusPlaying = "playing"
	StatusPlayed  = "played"
)

// Song is one submitted karaoke entry. It is stored as a Redis hash with a
// 24h expiry, so every field is a string; consumers must treat a missing
// hash as "song gone", not as an error.
type Song struct {
	ID              string `json:"id" redis:"id"`
	YouTubeID       string `json:"youtube_id" redis:"youtube_id"`
	Title           string `json:"title" redis:"title"`
	Channel         string `json:"channel" redis:"channel"`
	Duration        string `json:"duration" redis:"duration"` // "HH:MM:SS" or "MM:SS"
	ThumbnailURL    string `json:"thumbnail_url" redis:"thumbnail_url"`
	YouTubeURL      string `json:"youtube_url" redis:"youtube_url"`
	AddedBy         string `json:"added_by" redis:"added_by"`
	UserFingerprint string `json:"user_fingerprint" redis:"user_fingerprint"`
	AddedAt         string `json:"added_at" redis:"added_at"` // RFC3339
	Status          string `json:"status" redis:"status"`
}

// QueueState is the derived read-model of the queue: head of the pending
// list is the current song. It is never persisted.
//
// CurrentSongStartedAt is always null in this core; there is no playback
// timer layered on yet.
type QueueState struct {
	CurrentSong          *string  `json:"current_song"`
	CurrentSongStartedAt *string  `json:"current_song_started_at"`
	Queue                []string `json:"queue"`
	TotalSongs           int      `json:"total_songs"`
	QueueDuration        string   `json:"queue_duration"`
}

// Snapshot is the full-state payload pushed to every subscribed observer.
// Always the whole picture, never a delta.
type Snapshot struct {
	QueueState QueueState `json:"queueState"`
	Songs      []Song     `json:"songs"`
	Timestamp  string     `json:"timestamp"`
}

// NowRFC3339 is the timestamp format used across song records and snapshots.
func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
