package events

import (
	"context"

	"go.uber.org/fx"
)

var FXModule = fx.Module("events",
	fx.Provide(
		NewConfig,
		NewPublisher,
	),
)

// NewPublisher wires the configured publisher: a real RabbitMQ publisher
// when enabled, the no-op publisher otherwise.
func NewPublisher(lifecycle fx.Lifecycle, cfg Config, logger Logger) (Publisher, error) {
	if !cfg.Enabled {
		logger.Info("event publishing disabled", nil)
		return NopPublisher{}, nil
	}

	publisher, err := NewRabbitPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			publisher.GracefulShutdown()
			return nil
		},
	})

	return publisher, nil
}
