// Package view реализует HTTP-обработчик чтения снимка квот пользователя.
//
// Handler извлекает имя пользователя из контекста и возвращает тариф и состояние
// каждой квотируемой операции: лимит, потрачено и остаток.
package view

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/engagement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/engagement-engine/internal/http/response"
	"github.com/magabrotheeeer/engagement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

// Handler управляет HTTP-запросами чтения снимка квот.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики квот
}

// Service описывает интерфейс бизнес-логики чтения снимка квот.
type Service interface {
	Snapshot(ctx context.Context, username string) (*models.UsageSnapshot, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Снимок квот
// @Description Возвращает тариф пользователя и состояние всех квотируемых операций.
// @Tags Quota
// @Produce  json
// @Success 200 {object} map[string]any "Снимок квот"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении квот"
// @Router /quota [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quota.view"
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

	snapshot, err := h.service.Snapshot(r.Context(), username)
	if err != nil {
		log.Error("failed to read quota snapshot", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read quota"))
		return
	}

	log.Info("quota snapshot requested", slog.String("tier", snapshot.Tier))
	render.JSON(w, r, response.StatusOKWithData(snapshot))
}
