package services

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/engagement-engine/internal/metrics"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestTelemetryService_HandleSwipe(t *testing.T) {
	svc := NewTelemetryService(metrics.New(prometheus.NewRegistry()), newNoopLogger())

	event := models.SwipeEvent{
		Username:  "alice",
		ProfileID: "profile-1",
		Action:    "like",
		CreatedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	assert.NoError(t, svc.HandleSwipe(body))
}

func TestTelemetryService_HandleSwipe_BadPayload(t *testing.T) {
	svc := NewTelemetryService(metrics.New(prometheus.NewRegistry()), newNoopLogger())

	err := svc.HandleSwipe([]byte("{not json"))
	assert.Error(t, err)
}
