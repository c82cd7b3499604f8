package relay

import (
	"context"

	"go.uber.org/fx"

	"github.com/collabcanvas/relay-service/config"
)

var Module = fx.Module("relay",
	fx.Provide(
		func(cfg *config.Config) *Hub {
			return NewHub(
				WithMailboxSize(cfg.Relay.MailboxSize),
			)
		},
		func(h *Hub) Broadcaster { return h },
	),
	fx.Invoke(func(lc fx.Lifecycle, h Broadcaster) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				h.Shutdown()
				return nil
			},
		})
	}),
)
