package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/collabcanvas/relay-service/infra/rabbit"
)

// ResponderBroker is the gateway subset the responder needs.
type ResponderBroker interface {
	Consume(ctx context.Context, queue string) (<-chan rabbit.Delivery, error)
	PublishReply(ctx context.Context, replyTo string, body []byte, correlationID string) error
}

// statusReply is the conformant answer to a status_check request.
type statusReply struct {
	Success     bool   `json:"success"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status,omitempty"`
	ServerInfo  string `json:"server_info,omitempty"`
	Uptime      string `json:"uptime,omitempty"`
	QueueStatus string `json:"queue_status,omitempty"`
	ProcessedAt string `json:"processed_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Responder consumes the well-known request queue and answers each request on
// its caller-owned reply destination. Every delivery is acknowledged exactly
// once, malformed ones included, to avoid poison redelivery loops.
type Responder struct {
	broker ResponderBroker
	logger *slog.Logger
}

func NewResponder(broker ResponderBroker, logger *slog.Logger) *Responder {
	return &Responder{broker: broker, logger: logger}
}

// Run blocks until ctx is cancelled or the broker drops the consumption.
func (r *Responder) Run(ctx context.Context) error {
	deliveries, err := r.broker.Consume(ctx, rabbit.RequestQueue)
	if err != nil {
		return err
	}

	r.logger.Info("RESPONDER_LISTENING", "queue", rabbit.RequestQueue)

	for d := range deliveries {
		r.handle(ctx, d)
		if err := d.Ack(); err != nil {
			r.logger.Warn("REQUEST_ACK_FAILED", "err", err)
		}
	}
	return ctx.Err()
}

func (r *Responder) handle(ctx context.Context, d rabbit.Delivery) {
	// A request without correlation metadata cannot be answered; ack and move on.
	if d.ReplyTo == "" || d.CorrelationID == "" {
		r.logger.Warn("REQUEST_WITHOUT_REPLY_ADDRESS")
		return
	}

	reply := r.respond(d.Body)

	body, err := json.Marshal(reply)
	if err != nil {
		r.logger.Error("REPLY_MARSHAL_FAILED", "err", err)
		return
	}

	if err := r.broker.PublishReply(ctx, d.ReplyTo, body, d.CorrelationID); err != nil {
		r.logger.Error("REPLY_PUBLISH_FAILED", "reply_to", d.ReplyTo, "err", err)
		return
	}
	r.logger.Debug("REPLY_SENT", "reply_to", d.ReplyTo)
}

func (r *Responder) respond(body []byte) statusReply {
	now := time.Now().UTC().Format(time.RFC3339)

	var req struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		r.logger.Warn("REQUEST_DECODE_FAILED", "err", err)
		return statusReply{Success: false, Timestamp: now, Error: "malformed request"}
	}

	switch req.Type {
	case "status_check":
		return statusReply{
			Success:     true,
			Timestamp:   now,
			Status:      "All systems operational",
			ServerInfo:  "canvas-relay responder v1.0",
			Uptime:      "Running smoothly",
			QueueStatus: "Active",
			ProcessedAt: now,
		}
	default:
		return statusReply{Success: false, Timestamp: now, Error: "unknown request type"}
	}
}
