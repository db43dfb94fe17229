package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"karaoke-service/internal/models"
	"karaoke-service/internal/queue"
	"karaoke-service/internal/store"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) (*Server, *queue.Engine, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	engine := queue.New(store.New(rdb))

	hub := NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return NewServer(hub, engine, rdb, ctx, ""), engine, rdb
}

// dialWS connects to the server's websocket endpoint and consumes the welcome
// frame so tests only see the messages they provoke.
func dialWS(t *testing.T, s *Server, header http.Header) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(s.HandleWS))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		srv.Close()
		t.Fatalf("Failed to dial: %v", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	var welcome wsMessage
	if err := ws.ReadJSON(&welcome); err != nil {
		t.Fatalf("Failed to read welcome: %v", err)
	}
	if welcome.Type != "welcome" {
		t.Fatalf("expected welcome frame, got %q", welcome.Type)
	}

	return ws, func() {
		ws.Close()
		srv.Close()
	}
}

func queueTestSong(t *testing.T, engine *queue.Engine, id string) {
	t.Helper()
	err := engine.AddSong(context.Background(), &models.Song{
		ID:        id,
		YouTubeID: "yt-" + id,
		Title:     "Song " + id,
		Duration:  "03:00",
		AddedBy:   "tester",
		AddedAt:   models.NowRFC3339(),
		Status:    models.StatusQueued,
	})
	if err != nil {
		t.Fatalf("AddSong: %v", err)
	}
}

func TestHandleWS_Origin(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.allowedOrigin = "http://localhost:3000"

	t.Run("Allowed origin", func(t *testing.T) {
		header := http.Header{}
		header.Set("Origin", "http://localhost:3000")
		ws, cleanup := dialWS(t, s, header)
		defer cleanup()
		_ = ws
	})

	t.Run("Forbidden origin", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(s.HandleWS))
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		header := http.Header{}
		header.Set("Origin", "http://evil.example")

		_, resp, err := websocket.DefaultDialer.Dial(url, header)
		if err == nil {
			t.Fatal("Expected error dialing with bad origin, got nil")
		}
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected 403 Forbidden, got %v", resp.StatusCode)
		}
	})
}

func TestJoinPushesSnapshot(t *testing.T) {
	s, engine, _ := newTestServer(t)

	queueTestSong(t, engine, "song-a")
	queueTestSong(t, engine, "song-b")

	ws, cleanup := dialWS(t, s, nil)
	defer cleanup()

	if err := ws.WriteJSON(map[string]string{"type": "join"}); err != nil {
		t.Fatalf("write join: %v", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	var msg wsMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if msg.Type != "queue-update" {
		t.Fatalf("expected queue-update, got %q", msg.Type)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.QueueState.TotalSongs != 2 || len(snap.Songs) != 2 {
		t.Errorf("snapshot mismatch: %+v", snap)
	}
	if snap.QueueState.CurrentSong == nil || *snap.QueueState.CurrentSong != "song-a" {
		t.Errorf("expected current song song-a, got %v", snap.QueueState.CurrentSong)
	}
	if snap.Timestamp == "" {
		t.Error("expected a snapshot timestamp")
	}
}

func TestHeartbeatAck(t *testing.T) {
	s, _, _ := newTestServer(t)

	ws, cleanup := dialWS(t, s, nil)
	defer cleanup()

	if err := ws.WriteJSON(map[string]string{"type": "heartbeat"}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	var msg struct {
		Type string `json:"type"`
		Now  string `json:"now"`
	}
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if msg.Type != "heartbeat-ack" || msg.Now == "" {
		t.Errorf("ack mismatch: %+v", msg)
	}
}

func TestUnjoinedClientSeesNoUpdates(t *testing.T) {
	s, _, _ := newTestServer(t)

	ws, cleanup := dialWS(t, s, nil)
	defer cleanup()

	// Connected, never joined. A broadcast must pass it by.
	s.BroadcastSnapshot()

	_ = ws.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, msg, err := ws.ReadMessage(); err == nil {
		t.Errorf("expected no update before join, got %s", msg)
	}
}

func TestIntegration_RedisTriggerFansOut(t *testing.T) {
	// Publish -> subscriber -> snapshot recompute -> hub -> joined client.
	s, engine, rdb := newTestServer(t)

	go s.RunSubscriber()
	time.Sleep(50 * time.Millisecond)

	ws, cleanup := dialWS(t, s, nil)
	defer cleanup()

	if err := ws.WriteJSON(map[string]string{"type": "join"}); err != nil {
		t.Fatalf("write join: %v", err)
	}

	// Drain the join snapshot.
	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	var first wsMessage
	if err := ws.ReadJSON(&first); err != nil || first.Type != "queue-update" {
		t.Fatalf("join snapshot: %v (%+v)", err, first)
	}

	queueTestSong(t, engine, "song-x")
	if err := rdb.Publish(context.Background(), "broadcast", `{"type":"song-added"}`).Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	var msg wsMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if msg.Type != "queue-update" {
		t.Fatalf("expected queue-update, got %q", msg.Type)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.QueueState.TotalSongs != 1 || len(snap.Songs) != 1 || snap.Songs[0].ID != "song-x" {
		t.Errorf("snapshot mismatch: %+v", snap)
	}
}

func TestTriggerMessagesRepublish(t *testing.T) {
	s, _, rdb := newTestServer(t)

	// A raw subscriber proves the ws-originated trigger reaches Redis.
	sub := rdb.Subscribe(context.Background(), "broadcast")
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ws, cleanup := dialWS(t, s, nil)
	defer cleanup()

	if err := ws.WriteJSON(map[string]string{"type": "request-queue-update"}); err != nil {
		t.Fatalf("write trigger: %v", err)
	}

	select {
	case m := <-sub.Channel():
		var got wsMessage
		if err := json.Unmarshal([]byte(m.Payload), &got); err != nil || got.Type != "request-queue-update" {
			t.Errorf("republished payload mismatch: %q (%v)", m.Payload, err)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for republished trigger")
	}
}
