// Package advance реализует HTTP-обработчик продвижения ленты по свайпу.
//
// Handler принимает JSON-запрос с меткой действия, валидирует её, извлекает имя
// пользователя из контекста и продвигает ленту через сервис: просмотренная анкета
// выбрасывается, голова очереди становится текущей.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package advance

import (
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

// Handler управляет HTTP-запросами продвижения ленты.
//
// Использует логгер для записи операций и ошибок,
// сервис бизнес-логики ленты,
// а также валидатор для проверки структуры входных данных.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики ленты
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики продвижения ленты.
type Service interface {
	Advance(username, action string) (*models.Profile, bool)
}

// Request — тело запроса продвижения ленты.
type Request struct {
	Action string `json:"action" validate:"required,oneof=like pass superlike"`
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
// @Summary Продвинуть ленту
// @Description Выбрасывает текущую анкету и возвращает следующую. Метка действия на поведение ленты не влияет.
// @Tags Feed
// @Accept  json
// @Produce  json
// @Param request body Request true "Метка действия свайпа"
// @Success 200 {object} map[string]any "Следующая анкета и признак исчерпания"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /feed/advance [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feed.advance"
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

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	profile, exhausted := h.service.Advance(username, req.Action)

	log.Info("feed advanced",
		slog.String("action", req.Action),
		slog.Bool("exhausted", exhausted))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"profile":   profile,
		"exhausted": exhausted,
	}))
}
