// Package worker runs a fixed-size set of independent queue consumers, each
// processing one delivery at a time.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/collabcanvas/relay-service/infra/rabbit"
)

// Handler processes one work item. Its error is logged, never escalated: the
// delivery is acknowledged regardless of outcome.
type Handler func(ctx context.Context, workerID int, body []byte) error

// Broker is the gateway subset the pool needs.
type Broker interface {
	Consume(ctx context.Context, queue string) (<-chan rabbit.Delivery, error)
}

// Pool launches poolSize consumption loops against one queue. Workers are
// independent: a handler failure or panic keeps the loop alive, while a
// broker-level error terminates that one worker only, reducing capacity until
// the process restarts.
type Pool struct {
	broker Broker
	logger *slog.Logger
	group  errgroup.Group
}

func NewPool(broker Broker, logger *slog.Logger) *Pool {
	return &Pool{broker: broker, logger: logger}
}

// Start launches the workers and returns immediately.
func (p *Pool) Start(ctx context.Context, poolSize int, queue string, h Handler) {
	for i := 1; i <= poolSize; i++ {
		workerID := i
		p.group.Go(func() error {
			return p.run(ctx, workerID, queue, h)
		})
	}
	p.logger.Info("WORKER_POOL_STARTED", "queue", queue, "size", poolSize)
}

// Wait blocks until every worker loop has exited.
func (p *Pool) Wait() error {
	return p.group.Wait()
}

func (p *Pool) run(ctx context.Context, workerID int, queue string, h Handler) error {
	deliveries, err := p.broker.Consume(ctx, queue)
	if err != nil {
		p.logger.Error("WORKER_CONSUME_FAILED", "worker_id", workerID, "queue", queue, "err", err)
		return err
	}

	// No prefetching beyond one in flight: the next delivery arrives only
	// after the previous one is acknowledged.
	for d := range deliveries {
		p.invoke(ctx, workerID, h, d.Body)

		if err := d.Ack(); err != nil {
			p.logger.Error("WORKER_ACK_FAILED", "worker_id", workerID, "err", err)
			return fmt.Errorf("worker %d: ack: %w", workerID, err)
		}
	}

	p.logger.Warn("WORKER_STOPPED", "worker_id", workerID, "queue", queue)
	return nil
}

// invoke shields the loop from handler failures.
func (p *Pool) invoke(ctx context.Context, workerID int, h Handler, body []byte) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("WORKER_PANIC_RECOVERED",
				"worker_id", workerID,
				"err", r,
				"stack", string(debug.Stack()))
		}
	}()

	if err := h(ctx, workerID, body); err != nil {
		p.logger.Error("WORKER_HANDLER_FAILED", "worker_id", workerID, "err", err)
	}
}
