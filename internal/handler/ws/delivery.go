package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/collabcanvas/relay-service/internal/domain/relay"
)

// WSHandler streams relay frames to a long-lived WebSocket connection.
// The connection is read-only from the server's perspective: inbound client
// frames are drained and discarded.
type WSHandler struct {
	logger   *slog.Logger
	hub      relay.Broadcaster
	upgrader websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, hub relay.Broadcaster) *WSHandler {
	return &WSHandler{
		logger: logger,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.hub.Subscribe(ctx)
	defer h.hub.Unsubscribe(sub.GetID())

	h.logger.Info("ws opened", "conn_id", sub.GetID())

	// READ PUMP: discard inbound frames, detect disconnect.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// WRITE PUMP: relay frames until the subscription ends.
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-sub.Recv():
			if !ok {
				return
			}

			data, err := frame.Wire()
			if err != nil {
				h.logger.Error("failed to marshal ws frame", "error", err)
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Warn("ws send failed", "error", err)
				return
			}
		}
	}
}
