package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
	"github.com/collabcanvas/relay-service/internal/service/dto"
)

func newCanvasFixture(t *testing.T) (*CanvasService, *memoryStore, *recordingDispatcher, relay.Subscriber) {
	t.Helper()

	store := &memoryStore{}
	dispatcher := newRecordingDispatcher()
	hub := relay.NewHub()
	t.Cleanup(hub.Shutdown)
	sub := hub.Subscribe(context.Background())

	return NewCanvasService(store, hub, dispatcher, testLogger()), store, dispatcher, sub
}

func strokeInput(kind model.CanvasEventKind, userID string) *model.CanvasEvent {
	return &model.CanvasEvent{
		Kind:      kind,
		UserID:    userID,
		Username:  "user-" + userID,
		X:         10,
		Y:         20,
		Color:     "#ff0000",
		BrushSize: 5,
	}
}

func TestCanvasService_HandleStroke(t *testing.T) {
	svc, store, dispatcher, sub := newCanvasFixture(t)

	ev, err := svc.HandleStroke(context.Background(), strokeInput(model.KindDrawStart, "u1"))
	require.NoError(t, err)
	assert.Equal(t, model.KindDrawStart, ev.Kind)
	assert.NotEmpty(t, ev.Timestamp, "timestamp is stamped server-side")

	// Persisted.
	events, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].UserID)

	// Broadcast for other nodes.
	assert.Len(t, dispatcher.sent(rabbit.CanvasExchange), 1)

	// Pushed to local subscribers.
	frame := recvFrame(t, sub)
	assert.Equal(t, "collaborative_drawing", frame.DemoType)
}

func TestCanvasService_HandleStroke_ReplacesClientTimestamp(t *testing.T) {
	svc, _, _, sub := newCanvasFixture(t)

	input := strokeInput(model.KindDraw, "u1")
	input.Timestamp = "1999-12-31T23:59:59Z"

	ev, err := svc.HandleStroke(context.Background(), input)
	require.NoError(t, err)
	assert.NotEqual(t, input.Timestamp, ev.Timestamp)
	recvFrame(t, sub)
}

func TestCanvasService_HandleStroke_RejectsUnknownEventType(t *testing.T) {
	svc, store, dispatcher, _ := newCanvasFixture(t)

	_, err := svc.HandleStroke(context.Background(), strokeInput("erase_everything", "u1"))
	require.Error(t, err)

	events, _ := store.ReadAll(context.Background())
	assert.Empty(t, events, "rejected strokes are never persisted")
	assert.Empty(t, dispatcher.sent(rabbit.CanvasExchange))
}

func TestCanvasService_HandleStroke_StoreFailureStillFansOut(t *testing.T) {
	svc, store, dispatcher, sub := newCanvasFixture(t)
	store.appendErr = errors.New("redis down")

	_, err := svc.HandleStroke(context.Background(), strokeInput(model.KindDraw, "u1"))
	require.NoError(t, err, "persistence failure must not break live delivery")

	assert.Len(t, dispatcher.sent(rabbit.CanvasExchange), 1)
	recvFrame(t, sub)
}

func TestCanvasService_HandleCursor_IsEphemeral(t *testing.T) {
	svc, store, dispatcher, sub := newCanvasFixture(t)

	require.NoError(t, svc.HandleCursor(context.Background(), dto.CursorRequest{
		UserID: "u1", Username: "ada", X: 1, Y: 2, Color: "#00ff00",
	}))

	events, _ := store.ReadAll(context.Background())
	assert.Empty(t, events, "cursor positions are never persisted")
	assert.Len(t, dispatcher.sent(rabbit.CanvasExchange), 1)
	recvFrame(t, sub)
}

func TestCanvasService_Clear(t *testing.T) {
	svc, store, _, sub := newCanvasFixture(t)

	_, err := svc.HandleStroke(context.Background(), strokeInput(model.KindDraw, "u1"))
	require.NoError(t, err)
	recvFrame(t, sub)

	require.NoError(t, svc.Clear(context.Background()))

	events, _ := store.ReadAll(context.Background())
	assert.Empty(t, events)
	recvFrame(t, sub)
}

func TestCanvasService_Clear_StoreFailurePropagates(t *testing.T) {
	svc, store, dispatcher, _ := newCanvasFixture(t)
	store.clearErr = errors.New("redis down")

	require.Error(t, svc.Clear(context.Background()))
	assert.Empty(t, dispatcher.sent(rabbit.CanvasExchange), "failed clear must not be announced")
}

func TestCanvasService_DeleteUserStrokes(t *testing.T) {
	svc, store, _, sub := newCanvasFixture(t)
	ctx := context.Background()

	for _, user := range []string{"a", "b", "a"} {
		_, err := svc.HandleStroke(ctx, strokeInput(model.KindDraw, user))
		require.NoError(t, err)
		recvFrame(t, sub)
	}

	require.NoError(t, svc.DeleteUserStrokes(ctx, dto.DeleteStrokesRequest{UserID: "a", Username: "ada"}))

	events, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b", events[0].UserID)
	recvFrame(t, sub)
}
