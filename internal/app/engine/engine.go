// Package engine собирает основное приложение движка вовлечённости:
// хранилище, миграции, кеш, брокер событий, сервисы ленты и квот
// и HTTP-сервер с маршрутами.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/engagement-engine/internal/cache"
	"github.com/magabrotheeeer/engagement-engine/internal/config"
	"github.com/magabrotheeeer/engagement-engine/internal/lib/jwt"
	"github.com/magabrotheeeer/engagement-engine/internal/metrics"
	"github.com/magabrotheeeer/engagement-engine/internal/migrations"
	"github.com/magabrotheeeer/engagement-engine/internal/rabbitmq"
	feedservice "github.com/magabrotheeeer/engagement-engine/internal/services/feed"
	quotaservice "github.com/magabrotheeeer/engagement-engine/internal/services/quota"
	"github.com/magabrotheeeer/engagement-engine/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEngagementQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewSwipePublisher(ch)

	collector := metrics.New(nil)
	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	feedService := feedservice.NewFeedService(db, cacheRedis, publisher, collector, logger,
		cfg.BatchSize, cfg.CacheTTL)
	quotaService := quotaservice.NewQuotaService(db, cacheRedis, collector, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, feedService, quotaService, db, maker)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		a.db.DB.Close()
		return err
	}
}
