package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/worker"
)

// Workerer submits items to the work queue. Results come back through the
// relay only; there is no direct reply path.
type Workerer interface {
	SubmitNumber(ctx context.Context, number int64) (string, error)
}

// Interface guard
var _ Workerer = (*WorkerService)(nil)

type WorkerService struct {
	queue QueuePublisher
}

func NewWorkerService(queue QueuePublisher) *WorkerService {
	return &WorkerService{queue: queue}
}

// SubmitNumber enqueues one doubling task and returns its id. The dispatch
// pool, started once at boot, will pick it up.
func (s *WorkerService) SubmitNumber(ctx context.Context, number int64) (string, error) {
	task := worker.DoublerTask{
		Number: number,
		TaskID: uuid.NewString(),
	}

	body, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("worker service: marshal task: %w", err)
	}

	if err := s.queue.Publish(ctx, rabbit.DoublerQueue, body); err != nil {
		return "", fmt.Errorf("worker service: %w", err)
	}
	return task.TaskID, nil
}
