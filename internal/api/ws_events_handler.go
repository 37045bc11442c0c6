package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSEventsHandler streams channel events to a rendering client. The
// client only listens; incoming messages are drained to detect close.
func WSEventsHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed: %v", err)
			return
		}
		// Hand the client the current state before joining the hub so
		// it can render before the first update arrives. Written before
		// Register, so no hub write can race this one.
		snap := deps.Orchestrator.Snapshot()
		if err := conn.WriteJSON(gin.H{"channel": "state", "type": "snapshot", "payload": snap, "version": snap.Version}); err != nil {
			conn.Close()
			return
		}

		unregister := deps.Hub.Register(conn)
		defer unregister()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
