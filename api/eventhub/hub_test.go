package eventhub

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/moyoez/codedrop/types"
)

func dialTransferWS(t *testing.T, srv *httptest.Server, code, participant string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/transfer-ws?sessionCode=" + code + "&participant=" + participant
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPublishReachesSessionParticipants(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := New()
	engine := gin.New()
	engine.GET("/transfer-ws", HandleTransferWS(hub))
	srv := httptest.NewServer(engine)
	defer srv.Close()

	sender := dialTransferWS(t, srv, "123456", "sender-1")
	receiver := dialTransferWS(t, srv, "123456", "receiver-1")
	other := dialTransferWS(t, srv, "654321", "stranger")

	// The handler registers after the upgrade handshake returns to the
	// dialer, so give the server goroutine a beat.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		n := len(hub.sessions["123456"])
		hub.mu.RUnlock()
		if n == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish("123456", types.EventTransferStarted, map[string]any{"fileName": "report.pdf"})

	for _, conn := range []*websocket.Conn{sender, receiver} {
		if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
			t.Fatalf("SetReadDeadline failed: %v", err)
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage failed: %v", err)
		}
		var event types.TransferEvent
		if err := sonic.Unmarshal(payload, &event); err != nil {
			t.Fatalf("Failed to parse event %q: %v", payload, err)
		}
		if event.Event != types.EventTransferStarted {
			t.Errorf("Expected %s event, got %s", types.EventTransferStarted, event.Event)
		}
		if event.SessionCode != "123456" {
			t.Errorf("Expected session code 123456, got %s", event.SessionCode)
		}
	}

	// The other session's socket hears nothing.
	if err := other.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
		t.Fatalf("SetReadDeadline failed: %v", err)
	}
	if _, _, err := other.ReadMessage(); err == nil {
		t.Error("Expected no event on an unrelated session's socket")
	}
}

func TestUnregisterDropsEmptySession(t *testing.T) {
	hub := New()
	conn := &websocket.Conn{}
	hub.Register("123456", "sender-1", conn)
	hub.Unregister("123456", conn)

	hub.mu.RLock()
	_, ok := hub.sessions["123456"]
	hub.mu.RUnlock()
	if ok {
		t.Error("Expected session entry to be removed once its last socket leaves")
	}
}
