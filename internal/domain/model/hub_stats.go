package model

// HubStats is a point-in-time snapshot of the fan-out relay.
type HubStats struct {
	Subscribers   int    `json:"subscribers"`
	DroppedFrames uint64 `json:"dropped_frames"`
}

// QueueInfo mirrors a live broker queue inspection.
type QueueInfo struct {
	Name          string `json:"name"`
	MessageCount  int    `json:"message_count"`
	ConsumerCount int    `json:"consumer_count"`
	QueueType     string `json:"queue_type"`
}

// ExchangeInfo describes a declared broadcast exchange.
type ExchangeInfo struct {
	Name         string `json:"name"`
	ExchangeType string `json:"exchange_type"`
	Durable      bool   `json:"durable"`
}
