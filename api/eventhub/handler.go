package eventhub

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/moyoez/codedrop/tool"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // capability is the session code itself
	},
}

// HandleTransferWS upgrades the request to WebSocket and binds the
// connection to the session's event stream.
// GET /api/transfer/v1/transfer-ws?sessionCode=xxx&participant=yyy
func HandleTransferWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("sessionCode")
		participant := c.Query("participant")
		if code == "" || participant == "" {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing parameters"))
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		hub.Register(code, participant, conn)
		defer hub.Unregister(code, conn)

		// Read loop to detect client close and keep connection alive
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
