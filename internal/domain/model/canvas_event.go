package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// CanvasEventKind enumerates the closed set of collaborative canvas events.
// Payloads are parsed into this set exactly once at ingress; downstream
// components never operate on untyped maps.
type CanvasEventKind string

const (
	KindDrawStart         CanvasEventKind = "draw_start"
	KindDraw              CanvasEventKind = "draw"
	KindCursorMove        CanvasEventKind = "cursor_move"
	KindClearCanvas       CanvasEventKind = "clear_canvas"
	KindDeleteUserStrokes CanvasEventKind = "delete_user_strokes"
)

// knownKinds guards the closed variant set at the parsing boundary.
var knownKinds = map[CanvasEventKind]struct{}{
	KindDrawStart:         {},
	KindDraw:              {},
	KindCursorMove:        {},
	KindClearCanvas:       {},
	KindDeleteUserStrokes: {},
}

// Valid reports whether the kind belongs to the closed variant set.
func (k CanvasEventKind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// CanvasEvent is one immutable entry of the shared canvas log.
//
// The serialized form is the unit of both transport and storage. Ordering is
// defined by arrival order at the store; Timestamp is advisory only.
type CanvasEvent struct {
	Kind      CanvasEventKind `json:"event_type"`
	UserID    string          `json:"user_id"`
	Username  string          `json:"username"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	PrevX     *float64        `json:"prev_x,omitempty"`
	PrevY     *float64        `json:"prev_y,omitempty"`
	Color     string          `json:"color"`
	BrushSize float64         `json:"brush_size"`
	Timestamp string          `json:"timestamp"`
}

// NewStrokeEvent stamps a stroke event produced by a validated request.
func NewStrokeEvent(kind CanvasEventKind, userID, username string, x, y float64, prevX, prevY *float64, color string, brushSize float64) *CanvasEvent {
	return &CanvasEvent{
		Kind:      kind,
		UserID:    userID,
		Username:  username,
		X:         x,
		Y:         y,
		PrevX:     prevX,
		PrevY:     prevY,
		Color:     color,
		BrushSize: brushSize,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ParseCanvasEvent decodes a wire payload into the closed variant set.
// Unknown kinds are rejected so that schema drift surfaces at the boundary.
func ParseCanvasEvent(payload []byte) (*CanvasEvent, error) {
	var ev CanvasEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("canvas event: malformed payload: %w", err)
	}
	if _, ok := knownKinds[ev.Kind]; !ok {
		return nil, fmt.Errorf("canvas event: unknown kind %q", ev.Kind)
	}
	return &ev, nil
}
