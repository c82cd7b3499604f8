// Package rabbit is the low-level capability over the message broker: queue
// publish, fanout publish, pull-based consumption with manual acknowledgment,
// and the ephemeral-queue primitives the correlation RPC client is built on.
//
// The gateway never retries on its own. Connection loss surfaces as
// ErrBrokerUnavailable and retry policy belongs to the caller.
package rabbit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/collabcanvas/relay-service/internal/domain/model"
)

// ErrBrokerUnavailable signals a lost connection or channel. Fatal to the
// operation in progress, not to the process.
var ErrBrokerUnavailable = errors.New("broker unavailable")

const (
	// ------------------- QUEUES (POINT-TO-POINT) ---------------
	LoggerQueue  = "message_logger"
	DoublerQueue = "number_doubler"
	RequestQueue = "rpc_requests"

	// ------------------- EXCHANGES (FANOUT) --------------------
	GameScoresExchange = "game_scores"
	CanvasExchange     = "collaborative_drawing"
)

// Gateway owns one broker connection for the whole process. It is constructed
// once by the composition root and passed by shared reference (no ambient
// singletons).
type Gateway struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger

	// mu serializes operations on the shared publish channel;
	// amqp091 channels are not safe for concurrent use.
	mu sync.Mutex
}

// Connect dials the broker and declares every queue and exchange the system
// depends on. Redeclaration is idempotent, so several processes can start in
// any order.
func Connect(url string, logger *slog.Logger) (*Gateway, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrBrokerUnavailable, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: channel: %v", ErrBrokerUnavailable, err)
	}

	g := &Gateway{conn: conn, ch: ch, logger: logger}
	if err := g.declareTopology(); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("BROKER_CONNECTED", "url", url)
	return g, nil
}

func (g *Gateway) declareTopology() error {
	for _, queue := range []string{LoggerQueue, DoublerQueue, RequestQueue} {
		if _, err := g.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("%w: declare queue %s: %v", ErrBrokerUnavailable, queue, err)
		}
	}

	for _, exchange := range []string{GameScoresExchange, CanvasExchange} {
		if err := g.ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
			return fmt.Errorf("%w: declare exchange %s: %v", ErrBrokerUnavailable, exchange, err)
		}
	}

	return nil
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn.Close()
}

// Publish sends a message to a point-to-point queue via the default exchange.
func (g *Gateway) Publish(ctx context.Context, queue string, body []byte) error {
	return g.publish(ctx, "", queue, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// PublishBroadcast sends a message to a fanout exchange; every bound queue
// receives a copy, no routing key filtering.
func (g *Gateway) PublishBroadcast(ctx context.Context, exchange string, body []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("%w: broadcast to %s: %v", ErrBrokerUnavailable, exchange, err)
	}
	return nil
}

// PublishRequest sends an RPC request with its correlation metadata attached.
func (g *Gateway) PublishRequest(ctx context.Context, queue string, body []byte, correlationID, replyTo string) error {
	return g.publish(ctx, "", queue, amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		CorrelationId: correlationID,
		ReplyTo:       replyTo,
	})
}

// PublishReply answers an RPC request on its caller-owned reply queue.
func (g *Gateway) PublishReply(ctx context.Context, replyTo string, body []byte, correlationID string) error {
	return g.publish(ctx, "", replyTo, amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		CorrelationId: correlationID,
	})
}

func (g *Gateway) publish(ctx context.Context, exchange, key string, pub amqp.Publishing) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ch.PublishWithContext(ctx, exchange, key, false, false, pub); err != nil {
		return fmt.Errorf("%w: publish to %s: %v", ErrBrokerUnavailable, key, err)
	}
	return nil
}

// Consume starts an infinite pull sequence from a queue.
//
// Each call opens a dedicated channel with a prefetch of one, so independent
// consumers fail independently and never hold more than one delivery in
// flight. The returned sequence ends when ctx is cancelled or the broker
// drops the channel.
func (g *Gateway) Consume(ctx context.Context, queue string) (<-chan Delivery, error) {
	ch, err := g.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%w: consumer channel: %v", ErrBrokerUnavailable, err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("%w: qos: %v", ErrBrokerUnavailable, err)
	}

	src, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("%w: consume %s: %v", ErrBrokerUnavailable, queue, err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer ch.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-src:
				if !ok {
					// Broker-level failure: end this sequence only.
					g.logger.Warn("CONSUME_ENDED", "queue", queue)
					return
				}

				delivery := Delivery{
					Body:          d.Body,
					CorrelationID: d.CorrelationId,
					ReplyTo:       d.ReplyTo,
					ack:           func() error { return d.Ack(false) },
				}

				select {
				case out <- delivery:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// DeclareReplyQueue creates an exclusive, auto-deleting destination scoped to
// one RPC call.
func (g *Gateway) DeclareReplyQueue(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.ch.QueueDeclare(name, false, true, true, false, nil); err != nil {
		return fmt.Errorf("%w: declare reply queue %s: %v", ErrBrokerUnavailable, name, err)
	}
	return nil
}

// DeleteQueue tears a queue down, abandoning anything still buffered on it.
func (g *Gateway) DeleteQueue(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.ch.QueueDelete(name, false, false, false); err != nil {
		return fmt.Errorf("%w: delete queue %s: %v", ErrBrokerUnavailable, name, err)
	}
	return nil
}

// QueueStats inspects a live queue for message and consumer counts.
func (g *Gateway) QueueStats(queue string) (model.QueueInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	q, err := g.ch.QueueInspect(queue)
	if err != nil {
		return model.QueueInfo{}, fmt.Errorf("%w: inspect %s: %v", ErrBrokerUnavailable, queue, err)
	}

	return model.QueueInfo{
		Name:          q.Name,
		MessageCount:  q.Messages,
		ConsumerCount: q.Consumers,
		QueueType:     "classic",
	}, nil
}
