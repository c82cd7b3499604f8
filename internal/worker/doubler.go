package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
)

// DoublerTask is the work-queue contract: {"number": <int>, "task_id": <uuid>}.
type DoublerTask struct {
	Number int64  `json:"number"`
	TaskID string `json:"task_id"`
}

// DoublerResult is announced via the fan-out relay only; there is no direct
// reply-to-caller path for the work queue.
type DoublerResult struct {
	WorkerID       int    `json:"worker_id"`
	TaskID         string `json:"task_id"`
	Original       int64  `json:"original"`
	Result         int64  `json:"result"`
	ProcessingTime int64  `json:"processing_time"`
}

// NewDoublerHandler doubles submitted numbers with simulated processing
// latency and publishes each result onto the relay.
func NewDoublerHandler(hub relay.Broadcaster, logger *slog.Logger) Handler {
	return func(ctx context.Context, workerID int, body []byte) error {
		task, err := parseTask(body)
		if err != nil {
			// Malformed payload: logged by the pool, still acknowledged.
			return err
		}

		delay := time.Duration(1000+rand.Int63n(3000)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		hub.Publish(model.NewFrame("workers", DoublerResult{
			WorkerID:       workerID,
			TaskID:         task.TaskID,
			Original:       task.Number,
			Result:         task.Number * 2,
			ProcessingTime: delay.Milliseconds(),
		}))

		logger.Debug("TASK_PROCESSED", "worker_id", workerID, "task_id", task.TaskID)
		return nil
	}
}

func parseTask(body []byte) (DoublerTask, error) {
	var task DoublerTask
	if err := json.Unmarshal(body, &task); err != nil {
		return task, fmt.Errorf("doubler: malformed task: %w", err)
	}
	if task.TaskID == "" {
		task.TaskID = "unknown"
	}
	return task, nil
}
