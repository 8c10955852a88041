// Package check реализует HTTP-обработчик проверки допуска операции по квоте.
//
// Handler принимает JSON-запрос с операцией и стоимостью, валидирует их и отвечает,
// допустима ли операция при текущем остатке квоты, без списания.
package check

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
)

// Handler управляет HTTP-запросами проверки допуска по квоте.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики квот
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики проверки допуска.
type Service interface {
	CanPerform(ctx context.Context, username, action string, cost int) (bool, error)
}

// Request — тело запроса проверки допуска. Пропущенная стоимость
// трактуется как единица.
type Request struct {
	Action string `json:"action" validate:"required,oneof=messages stories comments archives"`
	Cost   int    `json:"cost" validate:"omitempty,gte=1"`
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
// @Summary Проверить допуск по квоте
// @Description Отвечает, допустима ли операция при текущем остатке квоты. Остаток не меняется.
// @Tags Quota
// @Accept  json
// @Produce  json
// @Param request body Request true "Операция и стоимость"
// @Success 200 {object} map[string]any "Результат проверки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении квот"
// @Router /quota/check [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quota.check"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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
	if req.Cost == 0 {
		req.Cost = 1
	}

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	allowed, err := h.service.CanPerform(r.Context(), username, req.Action, req.Cost)
	if err != nil {
		log.Error("failed to check quota", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check quota"))
		return
	}

	log.Info("quota checked",
		slog.String("action", req.Action),
		slog.Bool("allowed", allowed))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"action":  req.Action,
		"allowed": allowed,
	}))
}
