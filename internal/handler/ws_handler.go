/*
Package handler provides the HTTP handlers and routing setup for the chat server.

This file contains HandleWebSocket, which upgrades the HTTP connection, attaches it to the
Coordinator as a new UNJOINED session and runs its read and write loops.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"roomchat/internal/app/chat"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/resp"
)

// HandleWebSocket creates the handler for GET /ws.
// The handler goroutine becomes the connection's reader and returns when the connection ends.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	opts := chat.ClientOptions{
		SendQueueSize: deps.Config.SendQueueSize,
		EventRate:     rate.Limit(deps.Config.MessageRate),
		EventBurst:    deps.Config.MessageBurst,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Coordinator.Accepting() {
			rejectShuttingDown(w, r)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("Failed to upgrade connection to WebSocket", "error", err.Error())
			return
		}

		client, err := chat.NewClient(deps.Coordinator, conn, opts)
		if err != nil {
			logx.Info("WebSocket connection rejected after upgrade.", "reason", errs.PublicMessage(err))
			closeMsg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, errs.PublicMessage(err))
			_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
			_ = conn.Close()
			return
		}

		logx.Debug("WebSocket connection established.", "connection_id", client.ID())

		go client.WritePump()

		client.ReadPump()
	}
}

// rejectShuttingDown answers plain HTTP before the upgrade when no new sessions are accepted.
func rejectShuttingDown(w http.ResponseWriter, r *http.Request) {
	resp.RespondError(w, r, errs.NewError(errs.ErrShuttingDown))
}
