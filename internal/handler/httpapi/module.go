package httpapi

import (
	"net/http"

	"go.uber.org/fx"

	"github.com/collabcanvas/relay-service/internal/handler/ws"
)

var Module = fx.Module("http-handler",
	fx.Provide(
		ws.NewWSHandler,
		NewHandler,
		func(h *Handler) http.Handler { return h.Routes() },
	),
)
