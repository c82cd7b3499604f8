package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/collabcanvas/relay-service/config"
	infrapubsub "github.com/collabcanvas/relay-service/infra/pubsub"
	"github.com/collabcanvas/relay-service/infra/rabbit"
	amqphandler "github.com/collabcanvas/relay-service/internal/handler/amqp"
)

// NewLogger builds the process logger from config.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ProvideWatermillLogger adapts slog for the router internals.
func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

// ProvideNodeID identifies this process instance in broadcast metadata.
func ProvideNodeID() amqphandler.NodeID {
	return amqphandler.NodeID(uuid.NewString()[:8])
}

// ProvideGateway owns the process-wide broker connection.
func ProvideGateway(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*rabbit.Gateway, error) {
	gateway, err := rabbit.Connect(cfg.AMQP.URL, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return gateway.Close()
		},
	})
	return gateway, nil
}

// ProvideRedis owns the process-wide store connection.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return rdb.Close()
		},
	})
	return rdb
}

// ProvidePubSubFactory builds the broadcast-plane factory.
func ProvidePubSubFactory(cfg *config.Config, wmLogger watermill.LoggerAdapter) *infrapubsub.Factory {
	return infrapubsub.NewFactory(cfg.AMQP.URL, wmLogger)
}
