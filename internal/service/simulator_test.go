package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
)

type fakeInspector struct {
	stats map[string]model.QueueInfo
	err   error
}

func (f *fakeInspector) QueueStats(queue string) (model.QueueInfo, error) {
	if f.err != nil {
		return model.QueueInfo{}, f.err
	}
	return f.stats[queue], nil
}

func newSimulatorFixture(t *testing.T, inspector QueueInspector) (*SimulatorService, relay.Subscriber) {
	t.Helper()

	hub := relay.NewHub()
	t.Cleanup(hub.Shutdown)
	sub := hub.Subscribe(context.Background())

	svc := NewSimulatorService(hub, inspector, testLogger())
	svc.stepDelay = time.Millisecond
	return svc, sub
}

func TestSimulatorService_Simulate_EmitsStartAndSteps(t *testing.T) {
	svc, sub := newSimulatorFixture(t, &fakeInspector{})

	flowID, err := svc.Simulate(context.Background(), "rpc", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NotEmpty(t, flowID)

	start := recvFrame(t, sub)
	require.Equal(t, "simulator", start.DemoType)
	data := start.Data.(map[string]any)
	assert.Equal(t, "message_flow", data["action"])
	assert.Equal(t, flowID, data["flow_id"])

	// The rpc flow animates five hops.
	for i := 0; i < 5; i++ {
		step := recvFrame(t, sub).Data.(map[string]any)
		assert.Equal(t, "flow_step", step["action"])
		assert.Equal(t, i, step["step"])
		assert.Equal(t, flowID, step["flow_id"])
	}
}

func TestSimulatorService_Simulate_WorkerRouting(t *testing.T) {
	svc, sub := newSimulatorFixture(t, &fakeInspector{})

	_, err := svc.Simulate(context.Background(), "workers", json.RawMessage(`{"number":4}`))
	require.NoError(t, err)

	recvFrame(t, sub) // start frame
	recvFrame(t, sub) // producer
	recvFrame(t, sub) // queue

	// number 4 lands on worker (4 % 3) + 1 = 2.
	worker := recvFrame(t, sub).Data.(map[string]any)
	assert.Equal(t, "worker2", worker["node"])
}

func TestSimulatorService_Simulate_UnknownDemoType(t *testing.T) {
	svc, sub := newSimulatorFixture(t, &fakeInspector{})

	_, err := svc.Simulate(context.Background(), "teleporter", nil)
	require.Error(t, err)

	select {
	case f := <-sub.Recv():
		t.Fatalf("unexpected frame for unknown demo type: %+v", f)
	default:
	}
}

func TestSimulatorService_QueueStats(t *testing.T) {
	inspector := &fakeInspector{stats: map[string]model.QueueInfo{
		rabbit.LoggerQueue:  {Name: rabbit.LoggerQueue, MessageCount: 3, ConsumerCount: 1, QueueType: "classic"},
		rabbit.DoublerQueue: {Name: rabbit.DoublerQueue, MessageCount: 7, ConsumerCount: 3, QueueType: "classic"},
		rabbit.RequestQueue: {Name: rabbit.RequestQueue, QueueType: "classic"},
	}}
	svc, _ := newSimulatorFixture(t, inspector)

	resp := svc.QueueStats(context.Background())

	require.Len(t, resp.Queues, 3)
	assert.Equal(t, 3, resp.Queues[0].MessageCount)
	assert.Equal(t, 7, resp.Queues[1].MessageCount)

	require.Len(t, resp.Exchanges, 2)
	assert.Equal(t, "fanout", resp.Exchanges[0].ExchangeType)

	assert.Equal(t, 1, resp.Hub.Subscribers)
}

func TestSimulatorService_QueueStats_InspectFailureDegrades(t *testing.T) {
	svc, _ := newSimulatorFixture(t, &fakeInspector{err: errors.New("channel closed")})

	resp := svc.QueueStats(context.Background())

	require.Len(t, resp.Queues, 3)
	for _, q := range resp.Queues {
		assert.Zero(t, q.MessageCount)
		assert.Equal(t, "classic", q.QueueType)
		assert.NotEmpty(t, q.Name)
	}
}
