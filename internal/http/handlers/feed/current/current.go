// Package current реализует HTTP-обработчик чтения текущей анкеты ленты.
//
// Handler извлекает имя пользователя из контекста и возвращает анкету,
// находящуюся в голове ленты, либо признак исчерпания очереди.
package current

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/engagement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/engagement-engine/internal/http/response"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

// Handler управляет HTTP-запросами чтения текущей анкеты.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики ленты
}

// Service описывает интерфейс бизнес-логики чтения текущей анкеты.
type Service interface {
	Current(username string) *models.Profile
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущая анкета ленты
// @Description Возвращает анкету в голове ленты текущего пользователя или признак пустой ленты.
// @Tags Feed
// @Produce  json
// @Success 200 {object} map[string]any "Текущая анкета"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /feed/current [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feed.current"
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

	profile := h.service.Current(username)
	log.Info("current profile requested", slog.Bool("exhausted", profile == nil))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"profile":   profile,
		"exhausted": profile == nil,
	}))
}
