// Package events pushes engine notifications to connected frontends over
// WebSocket.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"time"

	"github.com/coder/websocket"

	"github.com/KatriaDopex/moltmatch/internal/domain"
)

// Event is one notification frame pushed to a device's connections.
type Event struct {
	Type  string          `json:"type"`
	Agent string          `json:"agent,omitempty"`
	Match *domain.Match   `json:"match,omitempty"`
	Msg   *domain.Message `json:"message,omitempty"`
}

const (
	// EventMatch is the transient match celebration signal.
	EventMatch = "match"
	// EventMessage announces a synthetic reply landing in a thread.
	EventMessage = "message"
)

// writeTimeout bounds each frame write so a subscriber that stops
// reading cannot stall the publisher once its socket buffer fills.
const writeTimeout = 5 * time.Second

// Hub tracks active WebSocket connections per device and fans events out
// to them. Devices with no connection simply miss the transient signal;
// the underlying state is always recoverable from the API.
type Hub struct {
	mu     sync.RWMutex
	active map[string][]*websocket.Conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{active: make(map[string][]*websocket.Conn)}
}

// Register adds a connection for a device.
func (h *Hub) Register(deviceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active[deviceID] = append(h.active[deviceID], conn)
	slog.Info("Event stream registered", "device_id", deviceID)
}

// Unregister removes a connection for a device.
func (h *Hub) Unregister(deviceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.active[deviceID]
	for i, c := range conns {
		if c == conn {
			h.active[deviceID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.active[deviceID]) == 0 {
		delete(h.active, deviceID)
	}
	slog.Info("Event stream unregistered", "device_id", deviceID)
}

// SessionCleared implements session.Events: sign-out terminates all of
// the device's event streams.
func (h *Hub) SessionCleared(deviceID string) {
	h.mu.Lock()
	conns := h.active[deviceID]
	delete(h.active, deviceID)
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close(websocket.StatusNormalClosure, "session closed")
	}
}

// MatchCreated implements session.Events.
func (h *Hub) MatchCreated(deviceID string, match domain.Match) {
	h.publish(deviceID, Event{Type: EventMatch, Agent: match.Agent.Name, Match: &match})
}

// MessageReceived implements session.Events.
func (h *Hub) MessageReceived(deviceID, agentName string, msg domain.Message) {
	h.publish(deviceID, Event{Type: EventMessage, Agent: agentName, Msg: &msg})
}

func (h *Hub) publish(deviceID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Event marshal failed", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, len(h.active[deviceID]))
	copy(conns, h.active[deviceID])
	h.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			// Dropped connections are cleaned up by their read loop.
			slog.Debug("Event write failed", "device_id", deviceID, "error", err)
		}
	}
}
