package relay

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/collabcanvas/relay-service/internal/domain/model"
)

// Broadcaster defines the gateway for frame fan-out and subscriber lifecycle.
type Broadcaster interface {
	// Publish fans the frame out to every live subscriber and reports how
	// many mailboxes accepted it. Publisher success is independent of
	// subscriber liveness: the return value is informational only.
	Publish(f *model.Frame) int
	Subscribe(ctx context.Context) Subscriber
	Unsubscribe(id uuid.UUID)
	Stats() model.HubStats
	Shutdown()
}

// Interface guard
var _ Broadcaster = (*Hub)(nil)

// Hub fans frames out to all registered subscribers.
type Hub struct {
	// subs stores Map[uuid.UUID]*subscriber. Optimized for read-heavy
	// publish paths: no global lock is held while fanning out.
	subs sync.Map

	config  hubConfig
	dropped uint64 // [ATOMIC_FIELD] frames rejected by a full mailbox
	count   int64  // [ATOMIC_FIELD] live subscriber count
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		config: hubConfig{
			mailboxSize: defaultMailboxSize,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish delivers the frame to every current subscriber without blocking on
// any of them. A full or closed mailbox drops the frame for that subscriber.
func (h *Hub) Publish(f *model.Frame) int {
	delivered := 0
	h.subs.Range(func(_, val any) bool {
		if sub, ok := val.(*subscriber); ok {
			if sub.push(f) {
				delivered++
			} else {
				atomic.AddUint64(&h.dropped, 1)
			}
		}
		return true
	})
	return delivered
}

// Subscribe registers a new live sink and returns its handle.
// The subscription ends when the handle is closed, the ctx is cancelled, or
// the hub shuts down.
func (h *Hub) Subscribe(ctx context.Context) Subscriber {
	sub := newSubscriber(ctx, h.config.mailboxSize)
	h.subs.Store(sub.GetID(), sub)
	atomic.AddInt64(&h.count, 1)
	return sub
}

// Unsubscribe performs [GRACEFUL_RECLAMATION] of the subscriber's resources.
// Safe to call for an unknown or already-removed id.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	if val, ok := h.subs.LoadAndDelete(id); ok {
		atomic.AddInt64(&h.count, -1)
		if sub, ok := val.(*subscriber); ok {
			sub.Close()
		}
	}
}

func (h *Hub) Stats() model.HubStats {
	return model.HubStats{
		Subscribers:   int(atomic.LoadInt64(&h.count)),
		DroppedFrames: atomic.LoadUint64(&h.dropped),
	}
}

// Shutdown closes every live subscription.
func (h *Hub) Shutdown() {
	h.subs.Range(func(key, val any) bool {
		h.subs.Delete(key)
		atomic.AddInt64(&h.count, -1)
		if sub, ok := val.(*subscriber); ok {
			sub.Close()
		}
		return true
	})
}
