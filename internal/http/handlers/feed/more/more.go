// Package more реализует HTTP-обработчик подгрузки следующей партии кандидатов.
//
// Handler извлекает имя пользователя из контекста и вливает следующую партию
// в очередь ленты, не трогая текущую анкету и порядок ожидающих.
package more

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

// Handler управляет HTTP-запросами подгрузки ленты.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики ленты
}

// Service описывает интерфейс бизнес-логики подгрузки ленты.
type Service interface {
	More(ctx context.Context, username string) (*models.Profile, int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подгрузить ленту
// @Description Вливает следующую партию кандидатов в очередь под текущими фильтрами сессии.
// @Tags Feed
// @Produce  json
// @Success 200 {object} map[string]any "Текущая анкета и число добавленных"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при выборке кандидатов"
// @Router /feed/more [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feed.more"
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

	profile, added, err := h.service.More(r.Context(), username)
	if err != nil {
		log.Error("failed to load more candidates", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load more candidates"))
		return
	}

	log.Info("feed extended", slog.Int("added", added))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"profile":   profile,
		"added":     added,
		"exhausted": profile == nil,
	}))
}
