package model

import (
	"encoding/json"
	"sync"
)

// Frame is the unit of fan-out delivery: one JSON message pushed to every
// live real-time subscriber, shaped as {"demo_type": <topic>, "data": <payload>}.
//
// Frames are not persisted. Delivery is best-effort to whatever subscriber set
// exists at publish time.
type Frame struct {
	DemoType string `json:"demo_type"`
	Data     any    `json:"data"`

	// [SINGLE_MARSHAL]
	// One frame fans out to many subscribers; the wire form is computed once
	// and shared, not rebuilt per connection.
	once    sync.Once
	wire    []byte
	wireErr error
}

func NewFrame(demoType string, data any) *Frame {
	return &Frame{DemoType: demoType, Data: data}
}

// Wire returns the serialized frame, marshalling on first use only.
func (f *Frame) Wire() ([]byte, error) {
	f.once.Do(func() {
		f.wire, f.wireErr = json.Marshal(f)
	})
	return f.wire, f.wireErr
}
