// Package services содержит обработку событий вовлечённости из брокера:
// воркер телеметрии читает события свайпов и ведёт по ним показатели.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/engagement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

// Metrics описывает показатели, которые ведёт воркер телеметрии.
type Metrics interface {
	IncSwipe(action string)
}

// TelemetryService превращает сырые сообщения брокера в показатели.
type TelemetryService struct {
	metrics Metrics
	log     *slog.Logger
}

// NewTelemetryService создает новый экземпляр TelemetryService.
func NewTelemetryService(metrics Metrics, log *slog.Logger) *TelemetryService {
	return &TelemetryService{
		metrics: metrics,
		log:     log,
	}
}

// HandleSwipe обрабатывает одно событие свайпа из очереди.
// Нечитаемое сообщение — ошибка: брокер вернёт его в очередь.
func (s *TelemetryService) HandleSwipe(body []byte) error {
	var event models.SwipeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal swipe event", sl.Err(err))
		return fmt.Errorf("error unmarshalling swipe event: %w", err)
	}

	s.metrics.IncSwipe(event.Action)
	s.log.Info("swipe event processed",
		slog.String("username", event.Username),
		slog.String("profile_id", event.ProfileID),
		slog.String("action", event.Action),
	)
	return nil
}
