package amqp

import (
	"encoding/json"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/collabcanvas/relay-service/internal/adapter/pubsub"
	"github.com/collabcanvas/relay-service/internal/domain/model"
)

// [INFRASTRUCTURE_BRIDGE]
// Bind converts one broadcast-exchange consumption into relay publishes,
// handling panic recovery, origin filtering and poison-pill protection.
func Bind(b *Bridge) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		// [PANIC_RECOVERY]
		// Keep the consumer alive whatever a payload does to us.
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("PANIC_RECOVERED",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID)
			}
		}()

		// [ORIGIN_FILTER]
		// This node already pushed its own events to local subscribers on
		// the direct path; replaying them from the broker would deliver
		// every local frame twice.
		if msg.Metadata.Get(pubsub.OriginMetadataKey) == b.nodeID {
			return nil // ACK: nothing to do here.
		}

		// [DECODING]
		var frame model.Frame
		if err := json.Unmarshal(msg.Payload, &frame); err != nil {
			b.logger.Error("DECODE_FAILED", "err", err, "msg_id", msg.UUID)
			return nil // ACK: poison pill protection.
		}

		// [LOCAL_FAN_OUT]
		// Cross-process frames share one delivery path with local ones.
		b.hub.Publish(&frame)
		return nil
	}
}
