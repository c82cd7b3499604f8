package amqp

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"

	infrapubsub "github.com/collabcanvas/relay-service/infra/pubsub"
	pubsubadapter "github.com/collabcanvas/relay-service/internal/adapter/pubsub"
)

var Module = fx.Module("amqp-bridge",
	fx.Provide(
		func(factory *infrapubsub.Factory, nodeID NodeID) (pubsubadapter.BroadcastDispatcher, error) {
			pub, err := factory.BuildBroadcastPublisher()
			if err != nil {
				return nil, err
			}
			return pubsubadapter.NewBroadcastDispatcher(pub, string(nodeID)), nil
		},

		NewBridge,
		NewRouter,
	),

	fx.Invoke(func(lc fx.Lifecycle, router *message.Router, bridge *Bridge, factory *infrapubsub.Factory) error {
		if err := bridge.RegisterHandlers(router, factory); err != nil {
			return err
		}

		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					if err := router.Run(context.Background()); err != nil {
						bridge.logger.Error("BRIDGE_ROUTER_STOPPED", "err", err)
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				return router.Close()
			},
		})
		return nil
	}),
)
