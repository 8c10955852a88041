// Package refresh реализует HTTP-обработчик перезапуска ленты с новыми фильтрами.
//
// Handler принимает JSON-запрос с критериями отбора, валидирует их, извлекает имя
// пользователя из контекста и начинает ленту заново: свежая партия кандидатов
// полностью замещает прежнее состояние очереди.
package refresh

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/engagement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/engagement-engine/internal/http/response"
	"github.com/magabrotheeeer/engagement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

// Handler управляет HTTP-запросами перезапуска ленты.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики ленты
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики перезапуска ленты.
type Service interface {
	Refresh(ctx context.Context, username string, filter models.FilterCriteria) (*models.Profile, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Перезапустить ленту
// @Description Начинает ленту заново под новыми фильтрами. Возвращает первую анкету новой ленты.
// @Tags Feed
// @Accept  json
// @Produce  json
// @Param request body models.FilterCriteria true "Критерии отбора кандидатов"
// @Success 200 {object} map[string]any "Первая анкета новой ленты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при выборке кандидатов"
// @Router /feed/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feed.refresh"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.FilterCriteria
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	profile, err := h.service.Refresh(r.Context(), username, req)
	if err != nil {
		log.Error("failed to refresh feed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not refresh feed"))
		return
	}

	log.Info("feed refreshed", slog.Bool("exhausted", profile == nil))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"profile":   profile,
		"exhausted": profile == nil,
	}))
}
