// Package dto holds the already-validated, typed request shapes the transport
// adapter hands to the core services.
package dto

import "encoding/json"

type CursorRequest struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color"`
}

type DeleteStrokesRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type ClickRequest struct {
	PlayerName string `json:"player_name"`
}

type LogRequest struct {
	Message string `json:"message"`
}

type NumberRequest struct {
	Number int64 `json:"number"`
}

type SimulateRequest struct {
	DemoType    string          `json:"demo_type"`
	MessageData json.RawMessage `json:"message_data"`
}
