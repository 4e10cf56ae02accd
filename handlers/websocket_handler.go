package handlers

import (
	"log/slog"
	"net/http"

	"github.com/courtside/match-scoring/scoring"
	"github.com/courtside/match-scoring/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the scoreboard frontend origin once it is deployed.
		return true
	},
}

type WebSocketHandler struct {
	hub             *scoring.Hub
	snapshotService services.SnapshotService
	logger          *slog.Logger
}

func NewWebSocketHandler(hub *scoring.Hub, snapshotService services.SnapshotService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:             hub,
		snapshotService: snapshotService,
		logger:          logger,
	}
}

// ServeWs subscribes a viewer connection to one match. The current score
// snapshot is pushed immediately after subscribe, so a reconnecting viewer
// never depends on replaying events it missed.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshot, err := h.snapshotService.GetSnapshot(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error to the client.
		h.logger.Warn("websocket upgrade failed",
			slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}

	client := scoring.NewClient(h.hub, conn, matchID)

	// Queue the snapshot before the client joins the room, so an event
	// published during the handshake can never precede it.
	client.SendSnapshot(snapshot)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
