package eventhub

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/moyoez/codedrop/types"
)

// Hub holds WebSocket connections per session and broadcasts transfer
// events to that session's participants. Delivery is best-effort: a write
// failure drops the event, never the operation that caused it.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*websocket.Conn]string // code -> conn -> participant id
}

// New creates a new event hub.
func New() *Hub {
	return &Hub{
		sessions: make(map[string]map[*websocket.Conn]string),
	}
}

// Register binds a WebSocket connection to a session.
func (h *Hub) Register(code, participantID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.sessions[code]
	if !ok {
		conns = make(map[*websocket.Conn]string)
		h.sessions[code] = conns
	}
	conns[conn] = participantID
}

// Unregister removes a WebSocket connection from its session.
func (h *Hub) Unregister(code string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.sessions[code]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.sessions, code)
	}
}

// Publish sends the named event as JSON to all sockets bound to the
// session. Implements session.Publisher.
func (h *Hub) Publish(code, event string, data map[string]any) {
	payload, err := sonic.Marshal(types.TransferEvent{
		Event:       event,
		SessionCode: code,
		Data:        data,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.sessions[code]))
	for c := range h.sessions[code] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}
