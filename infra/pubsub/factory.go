// Package pubsub builds Watermill publishers and subscribers over the
// broker's fanout exchanges. The low-level point-to-point primitives live in
// infra/rabbit; this package only carries the broadcast plane.
package pubsub

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	amqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
)

// Factory produces broadcast publishers and per-node broadcast subscribers.
type Factory struct {
	url    string
	logger watermill.LoggerAdapter
}

func NewFactory(url string, logger watermill.LoggerAdapter) *Factory {
	return &Factory{url: url, logger: logger}
}

// BuildBroadcastPublisher returns a publisher whose topics map to durable
// fanout exchanges.
func (f *Factory) BuildBroadcastPublisher() (message.Publisher, error) {
	cfg := amqp.NewDurablePubSubConfig(f.url, nil)

	pub, err := amqp.NewPublisher(cfg, f.logger)
	if err != nil {
		return nil, fmt.Errorf("pubsub factory: build publisher: %w", err)
	}
	return pub, nil
}

// BuildBroadcastSubscriber returns a subscriber with a node-scoped,
// auto-deleting queue per topic, so every node receives every broadcast and
// queues vanish with their owner.
func (f *Factory) BuildBroadcastSubscriber(nodeID string) (message.Subscriber, error) {
	cfg := amqp.NewDurablePubSubConfig(
		f.url,
		amqp.GenerateQueueNameTopicNameWithSuffix("."+nodeID),
	)
	cfg.Queue.AutoDelete = true

	sub, err := amqp.NewSubscriber(cfg, f.logger)
	if err != nil {
		return nil, fmt.Errorf("pubsub factory: build subscriber: %w", err)
	}
	return sub, nil
}
