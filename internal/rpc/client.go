// Package rpc reconciles synchronous request/response exchanges over the
// one-way queuing substrate: each call owns a private, auto-deleting reply
// queue, so concurrent calls are fully independent and a correlation-id
// mismatch cannot occur structurally.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/collabcanvas/relay-service/infra/rabbit"
)

// ErrRPCTimeout signals that no reply arrived within the call's bound.
// Recoverable: the caller may retry with a fresh call (new correlation id).
var ErrRPCTimeout = errors.New("rpc timeout")

const replyQueuePrefix = "rpc_reply_"

// Broker is the gateway subset the client needs.
type Broker interface {
	DeclareReplyQueue(name string) error
	DeleteQueue(name string) error
	PublishRequest(ctx context.Context, queue string, body []byte, correlationID, replyTo string) error
	Consume(ctx context.Context, queue string) (<-chan rabbit.Delivery, error)
}

// Client turns the broker's publish/consume primitives into synchronous calls
// with timeout and exactly-once reply consumption per call.
type Client struct {
	broker       Broker
	requestQueue string
	breaker      *gobreaker.CircuitBreaker
	logger       *slog.Logger
}

func NewClient(broker Broker, logger *slog.Logger) *Client {
	return &Client{
		broker:       broker,
		requestQueue: rabbit.RequestQueue,
		logger:       logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "rpc-client",
			Timeout: 15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// A timeout means no responder answered, which is an expected
			// state; only broker-level failures should open the breaker.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrRPCTimeout)
			},
		}),
	}
}

// Call publishes the request to the well-known request queue and suspends the
// caller until the first reply or the timeout. The reply destination is torn
// down on every exit path; replies beyond the first are abandoned with it.
func (c *Client) Call(ctx context.Context, request any, timeout time.Duration) (json.RawMessage, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("rpc call: marshal request: %w", err)
	}

	res, err := c.breaker.Execute(func() (any, error) {
		return c.call(ctx, payload, timeout)
	})
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}

func (c *Client) call(ctx context.Context, payload []byte, timeout time.Duration) (json.RawMessage, error) {
	correlationID := uuid.NewString()
	replyQueue := replyQueuePrefix + correlationID

	if err := c.broker.DeclareReplyQueue(replyQueue); err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}

	// [UNCONDITIONAL_TEARDOWN]
	// Success, error and timeout all reach this; leaking ephemeral
	// destinations is a correctness bug.
	defer func() {
		if err := c.broker.DeleteQueue(replyQueue); err != nil {
			c.logger.Warn("REPLY_QUEUE_TEARDOWN_FAILED", "queue", replyQueue, "err", err)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Consume before publishing so a fast responder cannot race the
	// subscription; the queue buffers early replies either way.
	replies, err := c.broker.Consume(callCtx, replyQueue)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}

	if err := c.broker.PublishRequest(callCtx, c.requestQueue, payload, correlationID, replyQueue); err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}

	select {
	case <-callCtx.Done():
		return nil, ErrRPCTimeout
	case d, ok := <-replies:
		if !ok {
			return nil, fmt.Errorf("rpc call: %w", rabbit.ErrBrokerUnavailable)
		}
		if err := d.Ack(); err != nil {
			c.logger.Warn("REPLY_ACK_FAILED", "queue", replyQueue, "err", err)
		}
		return json.RawMessage(d.Body), nil
	}
}
