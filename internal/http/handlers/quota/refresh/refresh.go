// Package refresh реализует HTTP-обработчик принудительной сверки квот.
//
// Handler сбрасывает локальное и кешированное состояние квот пользователя
// и перечитывает его из хранилища — явная точка сверки после возможного
// дрейфа локального учёта.
package refresh

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/engagement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/engagement-engine/internal/http/response"
	"github.com/magabrotheeeer/engagement-engine/internal/lib/sl"
)

// Handler управляет HTTP-запросами сверки квот.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики квот
}

// Service описывает интерфейс бизнес-логики сверки квот.
type Service interface {
	Refresh(ctx context.Context, username string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сверить квоты с хранилищем
// @Description Сбрасывает локальное состояние квот и перечитывает его из хранилища.
// @Tags Quota
// @Produce  json
// @Success 200 {object} response.Response "Сверка выполнена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при перечитывании квот"
// @Router /quota/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quota.refresh"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.Refresh(r.Context(), username); err != nil {
		log.Error("failed to refresh quota state", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not refresh quota state"))
		return
	}

	log.Info("quota state refreshed", slog.String("username", username))
	render.JSON(w, r, response.Response{Status: response.StatusOK})
}
