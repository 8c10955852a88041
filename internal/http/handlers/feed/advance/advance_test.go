package advance

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/engagement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

// MockService реализует интерфейс advance.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Advance(username, action string) (*models.Profile, bool) {
	args := m.Called(username, action)
	var profile *models.Profile
	if args.Get(0) != nil {
		profile = args.Get(0).(*models.Profile)
	}
	return profile, args.Bool(1)
}

func TestAdvanceHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		requestBody    interface{}
		username       string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешное продвижение ленты",
			requestBody: Request{Action: "like"},
			username:    "testuser",
			setupMock: func(m *MockService) {
				m.On("Advance", "testuser", "like").
					Return(&models.Profile{ID: "profile-2", DisplayName: "Anna"}, false)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"exhausted":false`,
		},
		{
			name:        "лента исчерпана",
			requestBody: Request{Action: "pass"},
			username:    "testuser",
			setupMock: func(m *MockService) {
				m.On("Advance", "testuser", "pass").Return(nil, true)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"exhausted":true`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			username:       "testuser",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "неизвестная метка действия",
			requestBody:    Request{Action: "wink"},
			username:       "testuser",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Action must be one of: like pass superlike`,
		},
		{
			name:           "отсутствует авторизация",
			requestBody:    Request{Action: "like"},
			username:       "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/feed/advance", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			ctx := context.WithValue(req.Context(), middlewarectx.User, tt.username)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
