package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/adapter/pubsub"
	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
	"github.com/collabcanvas/relay-service/internal/service/dto"
)

// CanvasStore is the event-log subset the canvas service needs.
type CanvasStore interface {
	Append(ctx context.Context, ev *model.CanvasEvent) error
	ReadAll(ctx context.Context) ([]model.CanvasEvent, error)
	Clear(ctx context.Context) error
	RemoveWhere(ctx context.Context, match func(model.CanvasEvent) bool) error
}

// Canvaser drives the collaborative drawing flows: persist, broadcast to
// other processes, and push to this process's live subscribers.
type Canvaser interface {
	HandleStroke(ctx context.Context, ev *model.CanvasEvent) (*model.CanvasEvent, error)
	HandleCursor(ctx context.Context, req dto.CursorRequest) error
	Clear(ctx context.Context) error
	Load(ctx context.Context) ([]model.CanvasEvent, error)
	DeleteUserStrokes(ctx context.Context, req dto.DeleteStrokesRequest) error
}

// Interface guard
var _ Canvaser = (*CanvasService)(nil)

type CanvasService struct {
	store      CanvasStore
	hub        relay.Broadcaster
	dispatcher pubsub.BroadcastDispatcher
	logger     *slog.Logger
}

func NewCanvasService(store CanvasStore, hub relay.Broadcaster, dispatcher pubsub.BroadcastDispatcher, logger *slog.Logger) *CanvasService {
	return &CanvasService{
		store:      store,
		hub:        hub,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleStroke persists a drawing event and fans it out on both planes. The
// event arrives already parsed at the ingress; the client timestamp is
// replaced with a server one. Store and broker failures are logged, not
// propagated: delivery to live subscribers is fire-and-forget from the
// caller's perspective.
func (s *CanvasService) HandleStroke(ctx context.Context, ev *model.CanvasEvent) (*model.CanvasEvent, error) {
	if !ev.Kind.Valid() {
		return nil, fmt.Errorf("canvas service: unknown event type %q", ev.Kind)
	}
	stamped := model.NewStrokeEvent(ev.Kind, ev.UserID, ev.Username, ev.X, ev.Y, ev.PrevX, ev.PrevY, ev.Color, ev.BrushSize)

	if err := s.store.Append(ctx, stamped); err != nil {
		s.logger.Error("CANVAS_APPEND_FAILED", "err", err)
	}

	frame := model.NewFrame("collaborative_drawing", map[string]any{
		"action":    "drawing_event",
		"event":     stamped,
		"timestamp": stamped.Timestamp,
	})

	s.fanOut(ctx, rabbit.CanvasExchange, frame)
	return stamped, nil
}

// HandleCursor relays a cursor position. Cursor positions are ephemeral:
// never persisted, relay-only.
func (s *CanvasService) HandleCursor(ctx context.Context, req dto.CursorRequest) error {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	frame := model.NewFrame("collaborative_drawing", map[string]any{
		"action": "cursor_move",
		"cursor": map[string]any{
			"user_id":   req.UserID,
			"username":  req.Username,
			"x":         req.X,
			"y":         req.Y,
			"color":     req.Color,
			"timestamp": timestamp,
		},
		"timestamp": timestamp,
	})

	s.fanOut(ctx, rabbit.CanvasExchange, frame)
	return nil
}

// Clear resets the shared document and announces it everywhere.
func (s *CanvasService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("CANVAS_CLEAR_FAILED", "err", err)
		return err
	}

	frame := model.NewFrame("collaborative_drawing", map[string]any{
		"action":    "clear_canvas",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})

	s.fanOut(ctx, rabbit.CanvasExchange, frame)
	return nil
}

// Load replays the whole canvas log so a new participant can reconstruct
// current state.
func (s *CanvasService) Load(ctx context.Context) ([]model.CanvasEvent, error) {
	return s.store.ReadAll(ctx)
}

// DeleteUserStrokes purges one participant's contributions and announces it.
func (s *CanvasService) DeleteUserStrokes(ctx context.Context, req dto.DeleteStrokesRequest) error {
	err := s.store.RemoveWhere(ctx, func(ev model.CanvasEvent) bool {
		return ev.UserID == req.UserID
	})
	if err != nil {
		s.logger.Error("CANVAS_DELETE_STROKES_FAILED", "user_id", req.UserID, "err", err)
		return err
	}

	frame := model.NewFrame("collaborative_drawing", map[string]any{
		"action":    "delete_user_strokes",
		"user_id":   req.UserID,
		"username":  req.Username,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})

	s.fanOut(ctx, rabbit.CanvasExchange, frame)
	return nil
}

// fanOut pushes a frame to local subscribers and broadcasts it for the other
// nodes. Broadcast failure never blocks local delivery.
func (s *CanvasService) fanOut(ctx context.Context, exchange string, frame *model.Frame) {
	if err := s.dispatcher.Broadcast(ctx, exchange, frame); err != nil {
		s.logger.Error("CANVAS_BROADCAST_FAILED", "exchange", exchange, "err", err)
	}
	s.hub.Publish(frame)
}
