// Package telemetry собирает воркер телеметрии: подключение к брокеру
// и потребление событий свайпов из очереди вовлечённости.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/engagement-engine/internal/config"
	"github.com/magabrotheeeer/engagement-engine/internal/metrics"
	"github.com/magabrotheeeer/engagement-engine/internal/rabbitmq"
	telemetryservice "github.com/magabrotheeeer/engagement-engine/internal/services/telemetry"
)

type App struct {
	conn             *amqp.Connection
	ch               *amqp.Channel
	telemetryService *telemetryservice.TelemetryService
	logger           *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEngagementQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	telemetryService := telemetryservice.NewTelemetryService(metrics.New(nil), logger)

	return &App{
		conn:             conn,
		ch:               ch,
		telemetryService: telemetryService,
		logger:           logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, "engagement.swipes", a.telemetryService.HandleSwipe)
	if err != nil {
		a.logger.Error("failed to start engagement.swipes consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Telemetry worker shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
