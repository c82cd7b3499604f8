package amqp

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	infrapubsub "github.com/collabcanvas/relay-service/infra/pubsub"
	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/adapter/pubsub"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
)

const (
	// BridgePoisonTopic collects frames that exhausted their retries.
	BridgePoisonTopic = "canvas_relay.bridge.poison"
)

// Bridge drains the broker's broadcast exchanges into the local relay, so
// state changes from other processes reach this node's subscribers exactly
// like local ones.
type Bridge struct {
	hub        relay.Broadcaster
	dispatcher pubsub.BroadcastDispatcher
	logger     *slog.Logger
	nodeID     string
}

func NewBridge(hub relay.Broadcaster, dispatcher pubsub.BroadcastDispatcher, logger *slog.Logger, nodeID NodeID) *Bridge {
	return &Bridge{
		hub:        hub,
		dispatcher: dispatcher,
		logger:     logger,
		nodeID:     string(nodeID),
	}
}

// NodeID identifies this process instance in broadcast metadata.
type NodeID string

func NewRouter(wmLogger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{}, wmLogger)
}

// [REGISTRATION_PIPELINE]
func (b *Bridge) RegisterHandlers(router *message.Router, factory *infrapubsub.Factory) error {
	poison, err := middleware.PoisonQueue(b.dispatcher.Publisher(), BridgePoisonTopic)
	if err != nil {
		return fmt.Errorf("POISON_SETUP_FAILED: %w", err)
	}

	sub, err := factory.BuildBroadcastSubscriber(b.nodeID)
	if err != nil {
		return fmt.Errorf("BRIDGE_SUBSCRIBER_FAILED: %w", err)
	}

	configs := []struct {
		name  string
		topic string
	}{
		{"ON_CANVAS_BROADCAST", rabbit.CanvasExchange},
		{"ON_SCORE_BROADCAST", rabbit.GameScoresExchange},
	}

	for _, c := range configs {
		router.AddNoPublisherHandler(c.name, c.topic, sub, Bind(b)).AddMiddleware(
			TraceIDMiddleware,
			LoggingMiddleware(b.logger),
			NewRetryMiddleware().Middleware,
			poison,
		)
	}

	b.logger.Info("BRIDGE_PIPELINE_READY", "node_id", b.nodeID)
	return nil
}
