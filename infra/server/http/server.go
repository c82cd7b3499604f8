// Package http hosts the process's HTTP listener lifecycle.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/collabcanvas/relay-service/config"
)

// Module starts and stops the HTTP server with the fx lifecycle. The handler
// is provided elsewhere; this package only owns the listener.
var Module = fx.Module("http-server",
	fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, handler http.Handler) {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					logger.Info("HTTP_LISTENING", "addr", cfg.HTTP.Addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("HTTP_SERVER_STOPPED", "err", err)
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
		})
	}),
)
