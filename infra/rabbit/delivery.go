package rabbit

// Delivery is one message pulled from a queue.
//
// A Delivery stays on its queue until acknowledged. Ack must be called exactly
// once per delivery regardless of processing outcome (malformed payloads
// included), otherwise the broker redelivers it forever.
type Delivery struct {
	Body          []byte
	CorrelationID string
	ReplyTo       string

	ack func() error
}

// Ack removes the delivery from its queue.
func (d *Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

// NewTestDelivery builds a delivery with an injectable ack, for fakes in tests.
func NewTestDelivery(body []byte, correlationID, replyTo string, ack func() error) Delivery {
	return Delivery{
		Body:          body,
		CorrelationID: correlationID,
		ReplyTo:       replyTo,
		ack:           ack,
	}
}
