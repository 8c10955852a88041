// Package consume реализует HTTP-обработчик списания квоты.
//
// Handler принимает JSON-запрос с операцией и стоимостью, валидирует их и проводит
// списание через сервис: при достаточном остатке квота уменьшается и списание
// закрепляется в хранилище, при недостаточном — операция отклоняется без изменений.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package consume

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/engagement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/engagement-engine/internal/http/response"
	"github.com/magabrotheeeer/engagement-engine/internal/lib/sl"
	services "github.com/magabrotheeeer/engagement-engine/internal/services/quota"
)

// Handler управляет HTTP-запросами списания квоты.
//
// Использует логгер для записи операций и ошибок,
// сервис бизнес-логики квот,
// а также валидатор для проверки структуры входных данных.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики квот
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики списания квоты.
type Service interface {
	Consume(ctx context.Context, username, action string, cost int) (bool, error)
}

// Request — тело запроса списания. Пропущенная стоимость
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
// @Summary Списать квоту
// @Description Проверяет допуск и списывает стоимость операции с квоты пользователя.
// @Tags Quota
// @Accept  json
// @Produce  json
// @Param request body Request true "Операция и стоимость"
// @Success 200 {object} map[string]any "Результат списания"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или неположительная стоимость"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при списании квоты"
// @Router /quota/consume [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quota.consume"
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

	allowed, err := h.service.Consume(r.Context(), username, req.Action, req.Cost)
	if errors.Is(err, services.ErrInvalidCost) {
		log.Error("invalid cost", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("cost must be positive"))
		return
	}
	if err != nil {
		log.Error("failed to consume quota", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not consume quota"))
		return
	}

	log.Info("quota consume processed",
		slog.String("action", req.Action),
		slog.Bool("allowed", allowed))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"action":  req.Action,
		"allowed": allowed,
	}))
}
