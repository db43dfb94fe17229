// Package realtime pushes full queue snapshots to every subscribed websocket
// observer. Change notifications travel through the Redis "broadcast"
// channel, so HTTP mutations and ws-originated triggers share one fan-out
// path and multiple instances stay in sync.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"karaoke-service/internal/models"
	"karaoke-service/internal/queue"
)

type Server struct {
	hub           *Hub
	engine        *queue.Engine
	rdb           *redis.Client
	ctx           context.Context
	allowedOrigin string
	upgrader      websocket.Upgrader
}

func NewServer(hub *Hub, engine *queue.Engine, rdb *redis.Client, ctx context.Context, allowedOrigin string) *Server {
	s := &Server{
		hub:           hub,
		engine:        engine,
		rdb:           rdb,
		ctx:           ctx,
		allowedOrigin: allowedOrigin,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if s.allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == s.allowedOrigin
		},
	}
	return s
}

// HandleWS upgrades the connection and starts the pumps. The client is
// Connected but not yet Subscribed; it sees no queue updates until it sends
// "join".
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("karaoke-service: ws upgrade: %v", err)
		return
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}
	s.hub.register <- client

	welcome := map[string]any{
		"type": "welcome",
		"now":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.Marshal(welcome); err == nil {
		client.send <- b
	}

	go client.writePump()
	go client.readPump()
}

// RunSubscriber listens on the Redis broadcast channel; every event, whatever
// its type, means "the queue changed" and triggers a fresh snapshot push.
// It returns when the subscription closes (context cancelled or connection
// lost).
func (s *Server) RunSubscriber() {
	sub := s.rdb.Subscribe(s.ctx, "broadcast")
	defer sub.Close()

	for range sub.Channel() {
		s.BroadcastSnapshot()
	}
}

// BroadcastSnapshot recomputes the full state and hands it to the hub.
// Failures are logged and swallowed: a push must never affect the mutation
// that triggered it.
func (s *Server) BroadcastSnapshot() {
	snap, err := s.snapshot(s.ctx)
	if err != nil {
		log.Printf("karaoke-service: snapshot: %v", err)
		return
	}
	b, err := json.Marshal(map[string]any{
		"type":    "queue-update",
		"payload": snap,
	})
	if err != nil {
		log.Printf("karaoke-service: marshal snapshot: %v", err)
		return
	}
	s.hub.broadcast <- b
}

func (s *Server) snapshot(ctx context.Context) (*models.Snapshot, error) {
	state, err := s.engine.GetQueueState(ctx)
	if err != nil {
		return nil, err
	}
	songs, err := s.engine.GetAllSongs(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{
		QueueState: *state,
		Songs:      songs,
		Timestamp:  models.NowRFC3339(),
	}, nil
}

type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// handleClientMessage dispatches one inbound frame.
//
// "join" subscribes the client and immediately pushes the current snapshot
// to it alone, closing any lag since connection. Mutation notifications are
// republished on the Redis channel so every instance recomputes and pushes.
// "heartbeat" is liveness only and carries no state.
func (s *Server) handleClientMessage(c *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("karaoke-service: ws message: %v", err)
		return
	}

	switch msg.Type {
	case "join":
		s.hub.subscribe <- c
		snap, err := s.snapshot(s.ctx)
		if err != nil {
			log.Printf("karaoke-service: join snapshot: %v", err)
			return
		}
		b, err := json.Marshal(map[string]any{
			"type":    "queue-update",
			"payload": snap,
		})
		if err != nil {
			log.Printf("karaoke-service: marshal join snapshot: %v", err)
			return
		}
		select {
		case c.send <- b:
		default:
		}

	case "song-added", "host-control", "request-queue-update":
		if err := s.rdb.Publish(s.ctx, "broadcast", raw).Err(); err != nil {
			log.Printf("karaoke-service: republish %s: %v", msg.Type, err)
		}

	case "heartbeat":
		b, err := json.Marshal(map[string]any{
			"type": "heartbeat-ack",
			"now":  time.Now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return
		}
		select {
		case c.send <- b:
		default:
		}

	default:
		log.Printf("karaoke-service: unknown ws message type %q", msg.Type)
	}
}
