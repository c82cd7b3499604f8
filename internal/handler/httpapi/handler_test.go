package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
	"github.com/collabcanvas/relay-service/internal/handler/ws"
	"github.com/collabcanvas/relay-service/internal/service"
	"github.com/collabcanvas/relay-service/internal/service/dto"
)

type stubCanvas struct {
	strokeErr  error
	loadErr    error
	events     []model.CanvasEvent
	lastStroke *model.CanvasEvent
}

func (s *stubCanvas) HandleStroke(_ context.Context, ev *model.CanvasEvent) (*model.CanvasEvent, error) {
	if s.strokeErr != nil {
		return nil, s.strokeErr
	}
	s.lastStroke = ev
	return ev, nil
}
func (s *stubCanvas) HandleCursor(context.Context, dto.CursorRequest) error { return nil }
func (s *stubCanvas) Clear(context.Context) error                           { return nil }
func (s *stubCanvas) Load(context.Context) ([]model.CanvasEvent, error) {
	return s.events, s.loadErr
}
func (s *stubCanvas) DeleteUserStrokes(context.Context, dto.DeleteStrokesRequest) error { return nil }

type stubGame struct {
	lastPlayer string
	score      int
}

func (s *stubGame) Click(_ context.Context, player string) (int, error) {
	s.lastPlayer = player
	s.score++
	return s.score, nil
}
func (s *stubGame) Scores() map[string]int { return map[string]int{"alice": s.score} }

type stubLoggerer struct{ err error }

func (s *stubLoggerer) Send(context.Context, string) error { return s.err }

type stubWorkerer struct{ taskID string }

func (s *stubWorkerer) SubmitNumber(context.Context, int64) (string, error) {
	return s.taskID, nil
}

type stubStatuser struct{ resp service.StatusResponse }

func (s *stubStatuser) CheckStatus(context.Context) service.StatusResponse { return s.resp }

type stubSimulater struct {
	flowID string
	err    error
}

func (s *stubSimulater) Simulate(context.Context, string, json.RawMessage) (string, error) {
	return s.flowID, s.err
}
func (s *stubSimulater) QueueStats(context.Context) service.QueueStatsResponse {
	return service.QueueStatsResponse{}
}

type fixture struct {
	canvas    *stubCanvas
	game      *stubGame
	demoLog   *stubLoggerer
	workers   *stubWorkerer
	status    *stubStatuser
	simulator *stubSimulater
	server    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := relay.NewHub()
	t.Cleanup(hub.Shutdown)

	f := &fixture{
		canvas:    &stubCanvas{},
		game:      &stubGame{},
		demoLog:   &stubLoggerer{},
		workers:   &stubWorkerer{taskID: "task-1"},
		status:    &stubStatuser{resp: service.StatusResponse{Success: true, Status: "ok"}},
		simulator: &stubSimulater{flowID: "flow-1"},
	}

	h := NewHandler(logger, f.canvas, f.game, f.demoLog, f.workers, f.status, f.simulator, ws.NewWSHandler(logger, hub))
	f.server = httptest.NewServer(h.Routes())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(f.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandler_GameClick(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/api/game/click", `{"player_name":"alice"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["score"])
	assert.Equal(t, "alice", f.game.lastPlayer)
}

func TestHandler_GameClick_MissingPlayer(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/api/game/click", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestHandler_GameScores(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/game/click", `{"player_name":"alice"}`)

	resp, body := f.get(t, "/api/game/scores")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	scores := body["scores"].(map[string]any)
	assert.Equal(t, float64(1), scores["alice"])
}

func TestHandler_SendMessage(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/api/logger/send", `{"message":"hello"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestHandler_SendMessage_BrokerDown(t *testing.T) {
	f := newFixture(t)
	f.demoLog.err = errors.New("broker unavailable")

	resp, body := f.post(t, "/api/logger/send", `{"message":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestHandler_SubmitNumber(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/api/workers/submit", `{"number":21}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "task-1", body["task_id"])
}

func TestHandler_DrawingEvent_ParsesIntoTypedEvent(t *testing.T) {
	f := newFixture(t)

	resp, body := f.post(t, "/api/drawing/event", `{"event_type":"draw_start","user_id":"u1","username":"ada","x":3,"y":4,"color":"#000","brush_size":2}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	require.NotNil(t, f.canvas.lastStroke)
	assert.Equal(t, model.KindDrawStart, f.canvas.lastStroke.Kind)
	assert.Equal(t, "u1", f.canvas.lastStroke.UserID)
}

func TestHandler_DrawingEvent_UnknownTypeIsBadRequest(t *testing.T) {
	f := newFixture(t)

	// Rejected at the parsing boundary, before any service is called.
	resp, body := f.post(t, "/api/drawing/event", `{"event_type":"scribble","user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Nil(t, f.canvas.lastStroke)
}

func TestHandler_DrawingEvent_MalformedBodyIsBadRequest(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/api/drawing/event", "{{{")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, f.canvas.lastStroke)
}

func TestHandler_LoadCanvas_FailureKeepsResponseShape(t *testing.T) {
	f := newFixture(t)
	f.canvas.loadErr = errors.New("redis down")

	resp, body := f.get(t, "/api/drawing/load")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "load failures are reported in-band")
	assert.Equal(t, false, body["success"])
	assert.NotNil(t, body["events"])
}

func TestHandler_DeleteStrokes_RequiresUserID(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/api/drawing/delete", `{"username":"ada"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Simulate_UnknownDemoType(t *testing.T) {
	f := newFixture(t)
	f.simulator.err = errors.New("unknown demo type")

	resp, body := f.post(t, "/api/simulator/simulate", `{"demo_type":"teleporter"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unknown demo type", body["message"])
}

func TestHandler_RPCStatus(t *testing.T) {
	f := newFixture(t)
	f.status.resp = service.StatusResponse{
		Success:    true,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Status:     "All systems operational",
		ServerInfo: "canvas-relay server v1.0",
	}

	resp, body := f.post(t, "/api/rpc/status", `{}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "All systems operational", body["status"])
}
