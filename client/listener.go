package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/moyoez/codedrop/tool"
	"github.com/moyoez/codedrop/types"
)

// ListenEvents subscribes to the session's push events and feeds them into
// the poller as hints. Progress hints are folded straight into the view
// through the monotonic guard; everything else just triggers an immediate
// authoritative poll. Losing the socket is not an error worth surfacing:
// the poller converges without it.
func (c *Client) ListenEvents(ctx context.Context, code string, poller *Poller) error {
	wsURL, err := transferWSURL(c.baseURL, code, c.participantID)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect event stream: %v", err)
	}
	defer conn.Close()

	go func() {
		select {
		case <-ctx.Done():
		case <-poller.Done():
		}
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		var event types.TransferEvent
		if err := sonic.Unmarshal(payload, &event); err != nil {
			tool.DefaultLogger.Debugf("[Listener] Dropping unparsable event: %v", err)
			continue
		}
		if event.SessionCode != code {
			continue
		}
		handleEvent(poller, event)
	}
}

func handleEvent(poller *Poller, event types.TransferEvent) {
	switch event.Event {
	case types.EventTransferProgress:
		bytes, okBytes := asFloat(event.Data["transferredBytes"])
		percent, okPercent := asFloat(event.Data["progressPercent"])
		if okBytes && okPercent {
			poller.ApplyProgress(int64(bytes), percent)
			return
		}
		poller.Nudge()
	case types.EventPeerConnected, types.EventTransferStarted,
		types.EventTransferCompleted, types.EventTransferCancelled:
		poller.Nudge()
	}
}

func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func transferWSURL(baseURL, code, participantID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %v", err)
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/transfer/v1/transfer-ws"
	q := u.Query()
	q.Set("sessionCode", code)
	q.Set("participant", participantID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
