// Package karaoke is the HTTP surface of the service: song submission and
// queue reads for everyone, playback control for the host-key holder.
package karaoke

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"karaoke-service/internal/host"
	"karaoke-service/internal/provider"
	"karaoke-service/internal/queue"
	"karaoke-service/internal/store"
)

type Server struct {
	engine  *queue.Engine
	host    *host.Service
	yt      *provider.Client
	store   *store.Store
	rdb     *redis.Client
	keyTTL  time.Duration
}

func NewServer(engine *queue.Engine, hostSvc *host.Service, yt *provider.Client, st *store.Store, rdb *redis.Client, keyTTL time.Duration) *Server {
	if keyTTL <= 0 {
		keyTTL = host.DefaultTTL
	}
	return &Server{
		engine: engine,
		host:   hostSvc,
		yt:     yt,
		store:  st,
		rdb:    rdb,
		keyTTL: keyTTL,
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/songs", func(r chi.Router) {
		r.Post("/", s.handleAddSong)
		r.Get("/", s.handleGetAllSongs)
		r.Get("/queue", s.handleGetQueue)
		r.Get("/{id}", s.handleGetSong)
		r.Delete("/{id}", s.handleRemoveSong)
		r.Patch("/{id}/position", s.handleMoveSong)
	})

	r.Route("/host", func(r chi.Router) {
		r.Post("/key", s.handleGenerateKey)
		r.Get("/key", s.handleGetKey)
		r.Put("/key", s.handleRenewKey)
		r.Post("/validate", s.handleValidateKey)
		r.Post("/skip", s.handleHostSkip)
		r.Delete("/songs/{songId}", s.handleHostRemoveSong)
		r.Delete("/queue", s.handleHostClearQueue)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		log.Printf("karaoke-service: health ping: %v", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "karaoke-service",
	})
}

// publishEvent notifies the broadcast channel after a committed mutation.
// A failed publish is logged and never fails the mutation itself.
func (s *Server) publishEvent(ctx context.Context, eventType string, payload any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("karaoke-service: marshal event: %v", err)
		return
	}
	if err := s.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("karaoke-service: publish event: %v", err)
	}
}
