package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingDispatcher captures cross-process broadcasts per topic.
type recordingDispatcher struct {
	mu         sync.Mutex
	broadcasts map[string][]any
	err        error
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{broadcasts: make(map[string][]any)}
}

func (d *recordingDispatcher) Broadcast(_ context.Context, topic string, payload any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.broadcasts[topic] = append(d.broadcasts[topic], payload)
	return nil
}

func (d *recordingDispatcher) Publisher() message.Publisher { return nil }

func (d *recordingDispatcher) sent(topic string) []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]any(nil), d.broadcasts[topic]...)
}

// memoryStore is an in-process CanvasStore for service tests.
type memoryStore struct {
	mu     sync.Mutex
	events []model.CanvasEvent

	appendErr error
	clearErr  error
}

func (m *memoryStore) Append(_ context.Context, ev *model.CanvasEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.events = append(m.events, *ev)
	return nil
}

func (m *memoryStore) ReadAll(_ context.Context) ([]model.CanvasEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.CanvasEvent(nil), m.events...), nil
}

func (m *memoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.events = nil
	return nil
}

func (m *memoryStore) RemoveWhere(_ context.Context, match func(model.CanvasEvent) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, ev := range m.events {
		if !match(ev) {
			kept = append(kept, ev)
		}
	}
	m.events = kept
	return nil
}

// recvFrame pulls the next frame the hub delivered to sub, failing fast if
// none arrives.
func recvFrame(t *testing.T, sub relay.Subscriber) *model.Frame {
	t.Helper()
	select {
	case f, ok := <-sub.Recv():
		require.True(t, ok, "subscription closed unexpectedly")
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return nil
	}
}
