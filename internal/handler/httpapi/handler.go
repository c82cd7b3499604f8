// Package httpapi is the thin transport adapter: it parses request bodies
// into typed DTOs, calls the core services, and renders their results. No
// business logic lives here.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/collabcanvas/relay-service/internal/domain/model"
	"github.com/collabcanvas/relay-service/internal/handler/ws"
	"github.com/collabcanvas/relay-service/internal/service"
	"github.com/collabcanvas/relay-service/internal/service/dto"
)

type Handler struct {
	logger    *slog.Logger
	canvas    service.Canvaser
	game      service.Gamer
	demoLog   service.Loggerer
	workers   service.Workerer
	status    service.Statuser
	simulator service.Simulater
	wsHandler *ws.WSHandler
}

func NewHandler(
	logger *slog.Logger,
	canvas service.Canvaser,
	game service.Gamer,
	demoLog service.Loggerer,
	workers service.Workerer,
	status service.Statuser,
	simulator service.Simulater,
	wsHandler *ws.WSHandler,
) *Handler {
	return &Handler{
		logger:    logger,
		canvas:    canvas,
		game:      game,
		demoLog:   demoLog,
		workers:   workers,
		status:    status,
		simulator: simulator,
		wsHandler: wsHandler,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/logger/send", h.sendMessage)
		r.Post("/workers/submit", h.submitNumber)
		r.Post("/game/click", h.gameClick)
		r.Get("/game/scores", h.gameScores)
		r.Post("/rpc/status", h.rpcStatus)
		r.Post("/simulator/simulate", h.simulate)
		r.Get("/simulator/stats", h.queueStats)

		r.Route("/drawing", func(r chi.Router) {
			r.Post("/event", h.drawingEvent)
			r.Post("/cursor", h.cursorMove)
			r.Post("/clear", h.clearCanvas)
			r.Get("/load", h.loadCanvas)
			r.Post("/delete", h.deleteStrokes)
		})
	})

	r.Get("/ws", h.wsHandler.ServeHTTP)

	return r
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req dto.LogRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.demoLog.Send(r.Context(), req.Message); err != nil {
		h.logger.Error("LOGGER_SEND_FAILED", "err", err)
		respondError(w, http.StatusBadGateway, "failed to send message")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Message sent successfully",
	})
}

func (h *Handler) submitNumber(w http.ResponseWriter, r *http.Request) {
	var req dto.NumberRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	taskID, err := h.workers.SubmitNumber(r.Context(), req.Number)
	if err != nil {
		h.logger.Error("NUMBER_SUBMIT_FAILED", "err", err)
		respondError(w, http.StatusBadGateway, "failed to submit number")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Number submitted for processing",
		"task_id": taskID,
	})
}

func (h *Handler) gameClick(w http.ResponseWriter, r *http.Request) {
	var req dto.ClickRequest
	if err := decode(r, &req); err != nil || req.PlayerName == "" {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	score, err := h.game.Click(r.Context(), req.PlayerName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to record click")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"score":   score,
	})
}

func (h *Handler) gameScores(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"scores": h.game.Scores(),
	})
}

func (h *Handler) rpcStatus(w http.ResponseWriter, r *http.Request) {
	// The service reports failures inside the response shape.
	respond(w, http.StatusOK, h.status.CheckStatus(r.Context()))
}

func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	var req dto.SimulateRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flowID, err := h.simulator.Simulate(r.Context(), req.DemoType, req.MessageData)
	if err != nil {
		respond(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "Unknown demo type",
			"flow_id": flowID,
		})
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Simulated " + req.DemoType + " flow",
		"flow_id": flowID,
	})
}

func (h *Handler) queueStats(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.simulator.QueueStats(r.Context()))
}

func (h *Handler) drawingEvent(w http.ResponseWriter, r *http.Request) {
	// Drawing payloads are parsed into the closed event set right here, once;
	// everything downstream works on the typed event.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()

	ev, err := model.ParseCanvasEvent(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.canvas.HandleStroke(r.Context(), ev); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Drawing event processed successfully",
	})
}

func (h *Handler) cursorMove(w http.ResponseWriter, r *http.Request) {
	var req dto.CursorRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.canvas.HandleCursor(r.Context(), req); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to relay cursor")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Cursor position updated successfully",
	})
}

func (h *Handler) clearCanvas(w http.ResponseWriter, r *http.Request) {
	if err := h.canvas.Clear(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, "failed to clear canvas")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Canvas cleared successfully",
	})
}

func (h *Handler) loadCanvas(w http.ResponseWriter, r *http.Request) {
	events, err := h.canvas.Load(r.Context())
	if err != nil {
		h.logger.Error("CANVAS_LOAD_FAILED", "err", err)
		respond(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   "Failed to load canvas state",
			"events":  []any{},
		})
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"events":  events,
	})
}

func (h *Handler) deleteStrokes(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteStrokesRequest
	if err := decode(r, &req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.canvas.DeleteUserStrokes(r.Context(), req); err != nil {
		respondError(w, http.StatusBadGateway, "Failed to delete strokes")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User strokes deleted successfully",
	})
}
