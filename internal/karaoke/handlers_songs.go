package karaoke

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"karaoke-service/internal/models"
	"karaoke-service/internal/provider"
	"karaoke-service/internal/queue"
)

// handleAddSong submits a song to the queue.
// POST /songs
func (s *Server) handleAddSong(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		YouTubeURL      string `json:"youtube_url"`
		Title           string `json:"title"`
		AddedBy         string `json:"added_by"`
		UserFingerprint string `json:"user_fingerprint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.YouTubeURL = strings.TrimSpace(body.YouTubeURL)
	body.Title = strings.TrimSpace(body.Title)
	body.AddedBy = strings.TrimSpace(body.AddedBy)
	body.UserFingerprint = strings.TrimSpace(body.UserFingerprint)

	if body.YouTubeURL == "" {
		writeError(w, http.StatusBadRequest, "youtube_url is required")
		return
	}
	if len(body.Title) > 200 {
		writeError(w, http.StatusBadRequest, "title must be at most 200 characters")
		return
	}

	videoID := provider.ExtractVideoID(body.YouTubeURL)
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "invalid YouTube URL")
		return
	}

	meta := provider.PlaceholderMetadata()
	if s.yt != nil {
		if m, err := s.yt.Lookup(ctx, videoID); err == nil {
			meta = m
		} else {
			log.Printf("karaoke-service: youtube lookup %s: %v", videoID, err)
		}
	}

	title := body.Title
	if title == "" {
		title = meta.Title
	}
	addedBy := body.AddedBy
	if addedBy == "" {
		addedBy = "anonymous"
	}

	song := &models.Song{
		ID:              uuid.NewString(),
		YouTubeID:       videoID,
		Title:           title,
		Channel:         meta.Channel,
		Duration:        meta.Duration,
		ThumbnailURL:    provider.ThumbnailURL(videoID),
		YouTubeURL:      body.YouTubeURL,
		AddedBy:         addedBy,
		UserFingerprint: body.UserFingerprint,
		AddedAt:         models.NowRFC3339(),
		Status:          models.StatusQueued,
	}

	if err := s.engine.AddSong(ctx, song); err != nil {
		log.Printf("karaoke-service: add song: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	s.publishEvent(ctx, "song.added", song)

	writeData(w, http.StatusCreated, song, "Song added to queue successfully")
}

// handleGetQueue returns the derived queue state.
// GET /songs/queue
func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.GetQueueState(r.Context())
	if err != nil {
		log.Printf("karaoke-service: get queue state: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeData(w, http.StatusOK, state, "")
}

// handleGetAllSongs returns every resolvable song in queue order.
// GET /songs
func (s *Server) handleGetAllSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.engine.GetAllSongs(r.Context())
	if err != nil {
		log.Printf("karaoke-service: get all songs: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeData(w, http.StatusOK, songs, "")
}

// handleGetSong returns a single queued song.
// GET /songs/{id}
func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	songs, err := s.engine.GetAllSongs(r.Context())
	if err != nil {
		log.Printf("karaoke-service: get song: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	for i := range songs {
		if songs[i].ID == id {
			writeData(w, http.StatusOK, songs[i], "")
			return
		}
	}
	writeError(w, http.StatusNotFound, "song not found")
}

// handleRemoveSong removes a song without a host key. Deliberately open:
// any participant may withdraw a song; the host-gated removal lives under
// /host/songs/{songId}.
// DELETE /songs/{id}
func (s *Server) handleRemoveSong(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := s.engine.RemoveSong(ctx, id); err != nil {
		log.Printf("karaoke-service: remove song: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	s.publishEvent(ctx, "song.removed", map[string]any{"songId": id})

	writeData(w, http.StatusOK, nil, "Song removed from queue")
}

// handleMoveSong reorders a song within the queue (concurrency-sensitive).
// PATCH /songs/{id}/position
func (s *Server) handleMoveSong(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var body struct {
		NewPosition int `json:"newPosition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.NewPosition < 0 {
		writeError(w, http.StatusBadRequest, "newPosition must be >= 0")
		return
	}

	moved, err := s.engine.ReorderQueue(ctx, id, body.NewPosition)
	if errors.Is(err, queue.ErrConflict) {
		writeError(w, http.StatusConflict, "queue is busy, try again")
		return
	}
	if err != nil {
		log.Printf("karaoke-service: move song: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	if !moved {
		writeError(w, http.StatusNotFound, "song not in queue or position out of range")
		return
	}

	s.publishEvent(ctx, "queue.reordered", map[string]any{
		"songId":   id,
		"position": body.NewPosition,
	})

	writeData(w, http.StatusOK, map[string]any{
		"songId":   id,
		"position": body.NewPosition,
	}, "")
}
