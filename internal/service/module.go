package service

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/collabcanvas/relay-service/config"
	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
	"github.com/collabcanvas/relay-service/internal/rpc"
	"github.com/collabcanvas/relay-service/internal/store/canvas"
)

var Module = fx.Module("service",
	fx.Provide(
		// Narrow the shared infrastructure to the capability slices the
		// services actually depend on.
		func(g *rabbit.Gateway) QueuePublisher { return g },
		func(g *rabbit.Gateway) QueueInspector { return g },
		func(st *canvas.Store) CanvasStore { return st },
		func(c *rpc.Client) StatusCaller { return c },

		// Domain services
		fx.Annotate(NewCanvasService, fx.As(new(Canvaser))),
		fx.Annotate(NewGameService, fx.As(new(Gamer))),
		fx.Annotate(NewLoggerService, fx.As(new(Loggerer))),
		fx.Annotate(NewWorkerService, fx.As(new(Workerer))),
		fx.Annotate(NewSimulatorService, fx.As(new(Simulater))),

		func(client StatusCaller, hub relay.Broadcaster, logger *slog.Logger, cfg *config.Config) Statuser {
			return NewStatusService(client, hub, logger, cfg.RPC.Timeout)
		},
	),
)
