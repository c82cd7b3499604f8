package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// OriginMetadataKey tags every broadcast with the node that produced it. The
// bridge uses it to skip messages this node already delivered locally, which
// is what keeps local-push plus broker-broadcast from double-delivering.
const OriginMetadataKey = "origin_node"

// BroadcastDispatcher is the high-level contract for cross-process fan-out.
// Callers choose when to cross the broker boundary; nothing publishes
// automatically.
type BroadcastDispatcher interface {
	Broadcast(ctx context.Context, topic string, payload any) error
	Publisher() message.Publisher
}

type broadcastDispatcher struct {
	publisher message.Publisher
	nodeID    string
}

func NewBroadcastDispatcher(pub message.Publisher, nodeID string) BroadcastDispatcher {
	return &broadcastDispatcher{publisher: pub, nodeID: nodeID}
}

func (d *broadcastDispatcher) Broadcast(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("broadcast dispatcher: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(OriginMetadataKey, d.nodeID)
	msg.SetContext(ctx)

	if err := d.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("broadcast dispatcher: publish to %s: %w", topic, err)
	}
	return nil
}

func (d *broadcastDispatcher) Publisher() message.Publisher {
	return d.publisher
}
