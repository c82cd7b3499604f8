package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
	"github.com/collabcanvas/relay-service/internal/rpc"
)

// StatusCaller is the RPC-client subset the status service needs.
type StatusCaller interface {
	Call(ctx context.Context, request any, timeout time.Duration) (json.RawMessage, error)
}

// StatusRequest is the request-queue contract.
type StatusRequest struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

type StatusResponse struct {
	Success    bool   `json:"success"`
	Timestamp  string `json:"timestamp"`
	Status     string `json:"status"`
	ServerInfo string `json:"server_info"`
}

// Statuser runs the status-check RPC demo flow.
type Statuser interface {
	CheckStatus(ctx context.Context) StatusResponse
}

// Interface guard
var _ Statuser = (*StatusService)(nil)

type StatusService struct {
	client  StatusCaller
	hub     relay.Broadcaster
	logger  *slog.Logger
	timeout time.Duration
}

func NewStatusService(client StatusCaller, hub relay.Broadcaster, logger *slog.Logger, timeout time.Duration) *StatusService {
	return &StatusService{
		client:  client,
		hub:     hub,
		logger:  logger,
		timeout: timeout,
	}
}

var statusMessages = []string{
	"All systems operational",
	"Running smoothly",
	"Services healthy",
	"Everything looks good",
	"System status: OK",
}

// CheckStatus issues one synchronous status_check call and mirrors the
// outcome onto the relay. A failed call is reported, not escalated: the demo
// surface always gets a response shape back.
func (s *StatusService) CheckStatus(ctx context.Context) StatusResponse {
	request := StatusRequest{
		Type:      "status_check",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	response, err := s.client.Call(ctx, request, s.timeout)
	now := time.Now().UTC().Format(time.RFC3339)

	if err != nil {
		s.logger.Warn("STATUS_CALL_FAILED", "err", err, "timeout", errors.Is(err, rpc.ErrRPCTimeout))

		s.hub.Publish(model.NewFrame("rpc", map[string]any{
			"type":  "status_error",
			"error": err.Error(),
		}))

		return StatusResponse{
			Success:    false,
			Timestamp:  now,
			Status:     "RPC Error: " + err.Error(),
			ServerInfo: serverInfo,
		}
	}

	s.hub.Publish(model.NewFrame("rpc", map[string]any{
		"type":     "status_response",
		"request":  request,
		"response": response,
	}))

	return StatusResponse{
		Success:    true,
		Timestamp:  now,
		Status:     statusMessages[rand.Intn(len(statusMessages))],
		ServerInfo: serverInfo,
	}
}

const serverInfo = "canvas-relay server v1.0"
