package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
)

// QueueInspector is the gateway subset used for live queue statistics.
type QueueInspector interface {
	QueueStats(queue string) (model.QueueInfo, error)
}

// QueueStatsResponse is the stats surface of the simulator.
type QueueStatsResponse struct {
	Queues    []model.QueueInfo    `json:"queues"`
	Exchanges []model.ExchangeInfo `json:"exchanges"`
	Hub       model.HubStats       `json:"hub"`
}

// Simulater animates message flows for the demo UI without touching the real
// queues: every step is a frame on the relay.
type Simulater interface {
	Simulate(ctx context.Context, demoType string, data json.RawMessage) (string, error)
	QueueStats(ctx context.Context) QueueStatsResponse
}

// Interface guard
var _ Simulater = (*SimulatorService)(nil)

type SimulatorService struct {
	hub       relay.Broadcaster
	inspector QueueInspector
	logger    *slog.Logger

	// stepDelay paces flow animation; overridable in tests.
	stepDelay time.Duration
}

func NewSimulatorService(hub relay.Broadcaster, inspector QueueInspector, logger *slog.Logger) *SimulatorService {
	return &SimulatorService{
		hub:       hub,
		inspector: inspector,
		logger:    logger,
		stepDelay: 500 * time.Millisecond,
	}
}

type flowStep struct {
	node        string
	description string
}

// Simulate emits the start frame plus one frame per flow step.
func (s *SimulatorService) Simulate(ctx context.Context, demoType string, data json.RawMessage) (string, error) {
	flowID := uuid.NewString()

	steps, ok := s.flowSteps(demoType, data)
	if !ok {
		return flowID, fmt.Errorf("simulator: unknown demo type %q", demoType)
	}

	s.hub.Publish(model.NewFrame("simulator", map[string]any{
		"action":       "message_flow",
		"demo_type":    demoType,
		"flow_id":      flowID,
		"message_data": data,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}))

	for i, step := range steps {
		select {
		case <-ctx.Done():
			return flowID, ctx.Err()
		case <-time.After(s.stepDelay):
		}

		s.hub.Publish(model.NewFrame("simulator", map[string]any{
			"action":      "flow_step",
			"demo_type":   demoType,
			"flow_id":     flowID,
			"step":        i,
			"node":        step.node,
			"description": step.description,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		}))
	}

	s.logger.Debug("FLOW_SIMULATED", "demo_type", demoType, "flow_id", flowID)
	return flowID, nil
}

func (s *SimulatorService) flowSteps(demoType string, data json.RawMessage) ([]flowStep, bool) {
	switch demoType {
	case "logger":
		return []flowStep{
			{"producer", "Publishing message to queue"},
			{"queue", "Message stored in 'message_logger' queue"},
			{"consumer", "Message consumed and processed"},
		}, true

	case "workers":
		var payload struct {
			Number uint64 `json:"number"`
		}
		_ = json.Unmarshal(data, &payload)
		workerID := payload.Number%3 + 1

		return []flowStep{
			{"producer", "Publishing work to queue"},
			{"queue", "Work stored in 'number_doubler'"},
			{fmt.Sprintf("worker%d", workerID), fmt.Sprintf("Worker %d processing number %d", workerID, payload.Number)},
		}, true

	case "game":
		return []flowStep{
			{"producer", "Publishing score update"},
			{"exchange", "Fanout exchange broadcasting"},
			{"queue1", "Message to player queue 1"},
			{"queue2", "Message to player queue 2"},
			{"queue3", "Message to player queue 3"},
			{"player1", "Player 1 receives update"},
			{"player2", "Player 2 receives update"},
			{"player3", "Player 3 receives update"},
		}, true

	case "rpc":
		return []flowStep{
			{"client", "Sending RPC request"},
			{"request_queue", "Request in 'rpc_requests'"},
			{"server", "Server processing request"},
			{"reply_queue", "Reply in temporary queue"},
			{"client", "Client receives response"},
		}, true

	default:
		return nil, false
	}
}

// QueueStats inspects the live queues; a queue that cannot be inspected is
// reported with zero counts rather than failing the whole snapshot.
func (s *SimulatorService) QueueStats(ctx context.Context) QueueStatsResponse {
	queues := make([]model.QueueInfo, 0, 3)
	for _, name := range []string{rabbit.LoggerQueue, rabbit.DoublerQueue, rabbit.RequestQueue} {
		info, err := s.inspector.QueueStats(name)
		if err != nil {
			s.logger.Warn("QUEUE_INSPECT_FAILED", "queue", name, "err", err)
			info = model.QueueInfo{Name: name, QueueType: "classic"}
		}
		queues = append(queues, info)
	}

	return QueueStatsResponse{
		Queues: queues,
		Exchanges: []model.ExchangeInfo{
			{Name: rabbit.GameScoresExchange, ExchangeType: "fanout", Durable: true},
			{Name: rabbit.CanvasExchange, ExchangeType: "fanout", Durable: true},
		},
		Hub: s.hub.Stats(),
	}
}
