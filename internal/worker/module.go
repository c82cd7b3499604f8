package worker

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/collabcanvas/relay-service/config"
	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
)

var Module = fx.Module("worker-pool",
	fx.Provide(
		func(g *rabbit.Gateway) Broker { return g },
		NewPool,
	),
	fx.Invoke(func(lc fx.Lifecycle, pool *Pool, cfg *config.Config, hub relay.Broadcaster, logger *slog.Logger) {
		poolCtx, cancel := context.WithCancel(context.Background())

		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				pool.Start(poolCtx, cfg.Workers.PoolSize, rabbit.DoublerQueue, NewDoublerHandler(hub, logger))
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return pool.Wait()
			},
		})
	}),
)
