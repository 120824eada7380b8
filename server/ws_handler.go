package server

import (
	"net/http"

	"tunebox/core/events"
	"tunebox/logger"

	"github.com/gorilla/websocket"
)

const wsRoute = "/api/library/ws"

// EventsHandler upgrades authenticated callers to the change-notification feed.
type EventsHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
}

// NewEventsHandler 创建变更通知处理器
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS GET /api/library/ws
func (h *EventsHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[WS] upgrade failed", logger.ErrorField(err))
		return
	}
	logger.Debug("[WS] client connected", logger.String("identity", id.TokenIdentifier))
	events.NewClient(h.hub, conn, id.TokenIdentifier).Serve()
}
