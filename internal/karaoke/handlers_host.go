package karaoke

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// hostKeyHeader carries the host key on privileged requests.
const hostKeyHeader = "X-Host-Key"

// requireHostKey gates a privileged mutation. It writes the failure response
// itself and reports whether the caller may proceed.
func (s *Server) requireHostKey(w http.ResponseWriter, r *http.Request) bool {
	key := strings.TrimSpace(r.Header.Get(hostKeyHeader))
	if key == "" {
		writeError(w, http.StatusUnauthorized, "missing host key")
		return false
	}
	valid, err := s.host.ValidateKey(r.Context(), key)
	if err != nil {
		log.Printf("karaoke-service: validate host key: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return false
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "invalid host key")
		return false
	}
	return true
}

// handleGenerateKey mints a new host key, replacing any active one.
// POST /host/key
func (s *Server) handleGenerateKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.host.CreateKey(r.Context(), s.keyTTL)
	if err != nil {
		log.Printf("karaoke-service: generate host key: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeData(w, http.StatusCreated, map[string]string{"key": key}, "Host key generated successfully")
}

// handleGetKey returns the active host key.
// GET /host/key
func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.host.CurrentKey(r.Context())
	if err != nil {
		log.Printf("karaoke-service: get host key: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	if key == "" {
		writeError(w, http.StatusNotFound, "no active host key")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"key": key}, "")
}

// handleRenewKey extends the active key's TTL. Renewal never mints a key.
// PUT /host/key
func (s *Server) handleRenewKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.host.RenewKey(r.Context(), s.keyTTL)
	if err != nil {
		log.Printf("karaoke-service: renew host key: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	if key == "" {
		writeError(w, http.StatusNotFound, "no active host key to renew")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"key": key}, "Host key renewed successfully")
}

// handleValidateKey checks a candidate key without granting anything.
// POST /host/validate
func (s *Server) handleValidateKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	body.Key = strings.TrimSpace(body.Key)
	if body.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	valid, err := s.host.ValidateKey(r.Context(), body.Key)
	if err != nil {
		log.Printf("karaoke-service: validate host key: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	msg := "Invalid host key"
	if valid {
		msg = "Valid host key"
	}
	writeData(w, http.StatusOK, map[string]bool{"valid": valid}, msg)
}

// handleHostSkip removes the current song and reports the next one.
// POST /host/skip
func (s *Server) handleHostSkip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.requireHostKey(w, r) {
		return
	}

	next, err := s.engine.SkipCurrentSong(ctx)
	if err != nil {
		log.Printf("karaoke-service: skip song: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	s.publishEvent(ctx, "queue.skipped", map[string]any{"nextSong": next})

	writeData(w, http.StatusOK, map[string]any{"next_song": next}, "Song skipped successfully")
}

// handleHostRemoveSong is the host-gated removal path.
// DELETE /host/songs/{songId}
func (s *Server) handleHostRemoveSong(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.requireHostKey(w, r) {
		return
	}

	id := chi.URLParam(r, "songId")
	if err := s.engine.RemoveSong(ctx, id); err != nil {
		log.Printf("karaoke-service: host remove song: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	s.publishEvent(ctx, "song.removed", map[string]any{"songId": id})

	writeData(w, http.StatusOK, nil, "Song removed successfully")
}

// handleHostClearQueue wipes the queue and all song metadata.
// DELETE /host/queue
func (s *Server) handleHostClearQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.requireHostKey(w, r) {
		return
	}

	if err := s.engine.ClearQueue(ctx); err != nil {
		log.Printf("karaoke-service: clear queue: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	s.publishEvent(ctx, "queue.cleared", map[string]any{})

	writeData(w, http.StatusOK, nil, "Queue cleared")
}
