package handler

import (
	"net/http"

	"brainbrawl/internal/game"
)

// RoomHandler exposes read-only views of the live room registry.
type RoomHandler struct {
	registry *game.Registry
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(registry *game.Registry) *RoomHandler {
	return &RoomHandler{registry: registry}
}

// List handles GET /v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": h.registry.ListRooms(),
	})
}

// Stats handles GET /v1/rooms/stats
func (h *RoomHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Stats())
}
