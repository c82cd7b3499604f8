package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
)

// QueuePublisher is the gateway subset the point-to-point services need.
type QueuePublisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// Loggerer pushes raw messages through the demo logger queue.
type Loggerer interface {
	Send(ctx context.Context, message string) error
}

// Interface guard
var _ Loggerer = (*LoggerService)(nil)

type LoggerService struct {
	queue  QueuePublisher
	hub    relay.Broadcaster
	logger *slog.Logger
}

func NewLoggerService(queue QueuePublisher, hub relay.Broadcaster, logger *slog.Logger) *LoggerService {
	return &LoggerService{queue: queue, hub: hub, logger: logger}
}

// Send enqueues the message and echoes it to live subscribers.
func (s *LoggerService) Send(ctx context.Context, message string) error {
	if err := s.queue.Publish(ctx, rabbit.LoggerQueue, []byte(message)); err != nil {
		return fmt.Errorf("logger service: %w", err)
	}

	s.hub.Publish(model.NewFrame("logger", map[string]any{
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}))
	return nil
}
