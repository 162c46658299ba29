/*
Package handler provides the HTTP handlers and routing setup for the chat server.

This file contains the read-only room endpoints: the service health report and a room's roster.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomchat/internal/app/presence"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/resp"
)

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	Connections  int    `json:"connections"`
	Participants int    `json:"participants"`
	Rooms        int    `json:"rooms"`
}

// HandleHealth reports liveness together with connection and room counts.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := deps.Coordinator.Stats()

		resp.RespondSuccess(w, r, HealthResponse{
			Status:       "ok",
			Service:      "roomchat",
			Connections:  stats.Connections,
			Participants: stats.Participants,
			Rooms:        stats.Rooms,
		})
	}
}

// HandleRoomRoster returns the roomData payload for the room in the URL.
// Rooms are implicit, so an unknown room is an empty roster rather than a 404.
func HandleRoomRoster(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := chi.URLParam(r, "room")
		if presence.Normalize(room) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		resp.RespondSuccess(w, r, deps.Coordinator.Roster(room))
	}
}
