package relay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/collabcanvas/relay-service/internal/domain/model"
)

// Interface guard
var _ Subscriber = (*subscriber)(nil)

// Subscriber is the handle returned to transport layers (WebSocket, tests).
// Recv yields frames until the handle is closed or its owner disconnects.
type Subscriber interface {
	GetID() uuid.UUID
	Recv() <-chan *model.Frame
	Dropped() uint64
	Close()
}

// [SUBSCRIBER] CONCRETE IMPLEMENTATION (UNEXPORTED TO FORCE INTERFACE USAGE)
type subscriber struct {
	id        uuid.UUID
	createdAt time.Time

	ctx      context.Context
	cancelFn context.CancelFunc

	// [MAILBOX]
	// Bounded buffer that decouples the hub from individual delivery speed.
	sendCh chan *model.Frame

	// mu guards closed/sendCh against a push racing Close.
	mu     sync.RWMutex
	closed bool

	closeOnce    sync.Once // [PROTECTION]
	droppedCount uint64    // [ATOMIC_FIELD]
}

// Subscribers are allocated fresh per subscription. Transports keep the
// handle past Unsubscribe/Shutdown, so a closed subscriber must stay frozen
// (same id, closed channel) for as long as anyone holds it; recycling the
// object would let a later Subscribe mutate it under the holder.
func newSubscriber(ctx context.Context, bufferSize int) *subscriber {
	childCtx, cancel := context.WithCancel(ctx)

	return &subscriber{
		id:        uuid.New(),
		createdAt: time.Now(),
		ctx:       childCtx,
		cancelFn:  cancel,
		sendCh:    make(chan *model.Frame, bufferSize),
	}
}

func (s *subscriber) GetID() uuid.UUID          { return s.id }
func (s *subscriber) Recv() <-chan *model.Frame { return s.sendCh }
func (s *subscriber) Dropped() uint64           { return atomic.LoadUint64(&s.droppedCount) }

// push attempts a strictly non-blocking enqueue.
// A full mailbox drops the incoming frame (newest-dropped) and records it.
func (s *subscriber) push(f *model.Frame) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	// A cancelled owner context wins over a free mailbox slot.
	select {
	case <-s.ctx.Done():
		return false
	default:
	}

	select {
	case s.sendCh <- f:
		return true
	default:
		atomic.AddUint64(&s.droppedCount, 1)
		return false
	}
}

// Close terminates the subscription and signals the transport pump via
// channel close.
func (s *subscriber) Close() {
	s.closeOnce.Do(func() {
		s.cancelFn()

		// [TEARDOWN_ORDER]
		// The closed flag must be set under the write lock before the channel
		// is closed, so no concurrent push can hit a closed channel.
		s.mu.Lock()
		s.closed = true
		close(s.sendCh)
		s.mu.Unlock()
	})
}
