// Package engine предоставляет маршруты для основного приложения.
package engine

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	feedadvance "github.com/magabrotheeeer/engagement-engine/internal/http/handlers/feed/advance"
	feedcurrent "github.com/magabrotheeeer/engagement-engine/internal/http/handlers/feed/current"
	feedmore "github.com/magabrotheeeer/engagement-engine/internal/http/handlers/feed/more"
	feedrefresh "github.com/magabrotheeeer/engagement-engine/internal/http/handlers/feed/refresh"
	"github.com/magabrotheeeer/engagement-engine/internal/http/handlers/health"
	quotacheck "github.com/magabrotheeeer/engagement-engine/internal/http/handlers/quota/check"
	quotaconsume "github.com/magabrotheeeer/engagement-engine/internal/http/handlers/quota/consume"
	quotarefresh "github.com/magabrotheeeer/engagement-engine/internal/http/handlers/quota/refresh"
	quotaview "github.com/magabrotheeeer/engagement-engine/internal/http/handlers/quota/view"
	"github.com/magabrotheeeer/engagement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/engagement-engine/internal/lib/jwt"
	feedservice "github.com/magabrotheeeer/engagement-engine/internal/services/feed"
	quotaservice "github.com/magabrotheeeer/engagement-engine/internal/services/quota"
	"github.com/magabrotheeeer/engagement-engine/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, feedService *feedservice.FeedService, quotaService *quotaservice.QuotaService, db *repository.Storage, maker jwt.Maker) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/feed/current", feedcurrent.New(logger, feedService).ServeHTTP)
			r.Post("/feed/advance", feedadvance.New(logger, feedService).ServeHTTP)
			r.Post("/feed/refresh", feedrefresh.New(logger, feedService).ServeHTTP)
			r.Post("/feed/more", feedmore.New(logger, feedService).ServeHTTP)
			r.Get("/quota", quotaview.New(logger, quotaService).ServeHTTP)
			r.Post("/quota/check", quotacheck.New(logger, quotaService).ServeHTTP)
			r.Post("/quota/consume", quotaconsume.New(logger, quotaService).ServeHTTP)
			r.Post("/quota/refresh", quotarefresh.New(logger, quotaService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
