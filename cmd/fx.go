package cmd

import (
	"go.uber.org/fx"

	"github.com/collabcanvas/relay-service/config"
	"github.com/collabcanvas/relay-service/infra/rabbit"
	httpsrv "github.com/collabcanvas/relay-service/infra/server/http"
	"github.com/collabcanvas/relay-service/internal/domain/relay"
	amqphandler "github.com/collabcanvas/relay-service/internal/handler/amqp"
	"github.com/collabcanvas/relay-service/internal/handler/httpapi"
	"github.com/collabcanvas/relay-service/internal/rpc"
	"github.com/collabcanvas/relay-service/internal/service"
	"github.com/collabcanvas/relay-service/internal/store/canvas"
	"github.com/collabcanvas/relay-service/internal/worker"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			NewLogger,
			ProvideWatermillLogger,
			ProvideNodeID,
			ProvideGateway,
			ProvideRedis,
			ProvidePubSubFactory,
			canvas.New,
			func(g *rabbit.Gateway) rpc.Broker { return g },
			rpc.NewClient,
		),
		relay.Module,
		service.Module,
		worker.Module,
		amqphandler.Module,
		httpapi.Module,
		httpsrv.Module,
	)
}
