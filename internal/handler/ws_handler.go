/*
Package handler provides the HTTP handler that upgrades live readings feed connections.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"aqimonitor/internal/pkg/logx"
)

// HandleReadingsFeed upgrades the connection and hands it to the readings hub.
// The handler returns when the client disconnects or the hub stops.
func HandleReadingsFeed(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logx.Warn("WebSocket upgrade failed", "error", err)
			return
		}

		logx.Debug("Readings feed client connected")
		deps.Hub.Attach(conn)
		logx.Debug("Readings feed client disconnected")
	}
}
