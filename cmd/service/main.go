package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"karaoke-service/internal/host"
	"karaoke-service/internal/karaoke"
	"karaoke-service/internal/provider"
	"karaoke-service/internal/queue"
	"karaoke-service/internal/realtime"
	"karaoke-service/internal/store"
)

func main() {
	ctx := context.Background()

	port := getenv("PORT", "3001")
	redisURL := getenv("REDIS_URL", "redis://localhost:6379")
	corsOrigin := getenv("CORS_ORIGIN", "http://localhost:3000")
	keyTTL := getenvSeconds("HOST_KEY_TTL_SECONDS", host.DefaultTTL)

	// Redis: one shared client across the repository, host authority and
	// pub/sub.
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("karaoke-service: invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	st := store.New(rdb)
	engine := queue.New(st)
	hostSvc := host.New(st)
	yt := provider.NewClient("")

	apiSrv := karaoke.NewServer(engine, hostSvc, yt, st, rdb, keyTTL)

	hub := realtime.NewHub()
	rtSrv := realtime.NewServer(hub, engine, rdb, ctx, corsOrigin)

	go hub.Run()
	go rtSrv.RunSubscriber()

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	r.Mount("/api", apiSrv.Router())
	r.Get("/ws", rtSrv.HandleWS)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{corsOrigin},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}).Handler(r)

	log.Printf("karaoke-service listening on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("karaoke-service: %v", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvSeconds(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("karaoke-service: ignoring invalid %s=%q", k, v)
		return def
	}
	return time.Duration(n) * time.Second
}
