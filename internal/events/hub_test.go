package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/KatriaDopex/moltmatch/internal/domain"
	"github.com/KatriaDopex/moltmatch/internal/identity"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	handler := identity.Middleware(true)(NewWebSocketHandler(hub, "", true))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func TestHubPushesMatchEvent(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)

	// The handler registers asynchronously with the dial; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.active)
		hub.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var deviceID string
	hub.mu.RLock()
	for id := range hub.active {
		deviceID = id
	}
	hub.mu.RUnlock()

	match := domain.Match{
		Agent:         domain.Agent{Name: "ShellRaiser"},
		Compatibility: domain.Compatibility{Score: 90, Reasons: []string{"Similar karma energy"}},
		MatchedAt:     time.Now(),
	}
	hub.MatchCreated(deviceID, match)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, payload, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read event: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != EventMatch {
		t.Errorf("expected %s event, got %s", EventMatch, ev.Type)
	}
	if ev.Agent != "ShellRaiser" {
		t.Errorf("expected agent ShellRaiser, got %s", ev.Agent)
	}
	if ev.Match == nil || ev.Match.Compatibility.Score != 90 {
		t.Error("expected match payload with score 90")
	}
}

func TestPublishToUnknownDeviceIsNoOp(t *testing.T) {
	hub := NewHub()
	// Must not panic or block with no registered connections.
	hub.MessageReceived("ghost-device", "agent", domain.Message{ID: "m1", From: "agent", Content: "hi"})
	hub.SessionCleared("ghost-device")
}

func TestUnregisterRemovesConnection(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}

	hub.Register("dev", conn)
	hub.Unregister("dev", conn)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if len(hub.active) != 0 {
		t.Errorf("expected no active devices, got %d", len(hub.active))
	}
}
