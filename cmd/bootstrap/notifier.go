package bootstrap

import (
	"context"
	"log/slog"

	"labbook/internal/infra/notifier"
	"labbook/internal/pkg/config"
	"labbook/internal/usecase/shared"

	"go.uber.org/fx"
)

var NotifierModule = fx.Module("notifier",
	fx.Provide(
		NewNotifier,
	),
)

func NewNotifier(lc fx.Lifecycle, cfg config.AMQPConfig) (shared.Notifier, error) {
	if cfg.Disabled {
		slog.Info("AMQP notifications disabled")
		return notifier.NopNotifier{}, nil
	}

	n, cleanup, err := notifier.NewAMQPNotifier(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})
	return n, nil
}
