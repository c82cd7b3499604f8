package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/collabcanvas/relay-service/config"
	"github.com/collabcanvas/relay-service/infra/rabbit"
	"github.com/collabcanvas/relay-service/internal/rpc"
)

const ServiceName = "canvas-relay"

func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "Real-time fan-out relay for the collaborative canvas",
		Commands: []*cli.Command{
			serverCmd(),
			responderCmd(),
		},
	}

	return app.Run(os.Args)
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config_file"))
			if err != nil {
				return err
			}
			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			return app.Stop(context.Background())
		},
	}
}

// responderCmd runs the standalone status responder: a conformant consumer of
// the request queue that answers status_check calls.
func responderCmd() *cli.Command {
	return &cli.Command{
		Name:  "responder",
		Usage: "Run the RPC status responder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config_file"))
			if err != nil {
				return err
			}
			logger := NewLogger(cfg)

			gateway, err := rabbit.Connect(cfg.AMQP.URL, logger)
			if err != nil {
				return err
			}
			defer gateway.Close()

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return rpc.NewResponder(gateway, logger).Run(ctx)
		},
	}
}
