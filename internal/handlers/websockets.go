package handlers

import (
	"net/http"

	"personcam/internal/logger"
	"personcam/internal/services/websocket"

	gorilla "github.com/gorilla/websocket"
)

var upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler upgrades a viewer connection, sends the welcome
// status message and keeps the connection registered with the hub until the
// viewer goes away. Viewers only listen; inbound frames are drained to detect
// disconnects.
func ViewWebsocketHandler(hub *websocket.HubService, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorw("websocket upgrade failed", "error", err)
			return
		}
		connection.SetReadLimit(512)
		defer connection.Close()

		// Sent before registering so it cannot interleave with hub writes.
		welcome := websocket.Envelope{
			Event: "status",
			Data:  map[string]string{"message": "Connected to server"},
		}
		if err := connection.WriteJSON(welcome); err != nil {
			log.Errorw("failed to send welcome message", "error", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				break
			}
		}
	}
}
