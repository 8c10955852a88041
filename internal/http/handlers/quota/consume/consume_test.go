package consume

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/engagement-engine/internal/http/middlewarectx"
	services "github.com/magabrotheeeer/engagement-engine/internal/services/quota"
)

// MockService реализует интерфейс consume.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Consume(ctx context.Context, username, action string, cost int) (bool, error) {
	args := m.Called(ctx, username, action, cost)
	return args.Bool(0), args.Error(1)
}

func TestConsumeHandler(t *testing.T) {
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
			name:        "успешное списание",
			requestBody: Request{Action: "comments", Cost: 2},
			username:    "testuser",
			setupMock: func(m *MockService) {
				m.On("Consume", mock.Anything, "testuser", "comments", 2).
					Return(true, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"allowed":true`,
		},
		{
			name:        "пропущенная стоимость трактуется как единица",
			requestBody: Request{Action: "messages"},
			username:    "testuser",
			setupMock: func(m *MockService) {
				m.On("Consume", mock.Anything, "testuser", "messages", 1).
					Return(true, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"allowed":true`,
		},
		{
			name:        "отказ по квоте",
			requestBody: Request{Action: "stories", Cost: 1},
			username:    "testuser",
			setupMock: func(m *MockService) {
				m.On("Consume", mock.Anything, "testuser", "stories", 1).
					Return(false, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"allowed":false`,
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
			name:           "неизвестная операция",
			requestBody:    Request{Action: "gifts", Cost: 1},
			username:       "testuser",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Action must be one of: messages stories comments archives`,
		},
		{
			name:           "отрицательная стоимость отклоняется валидатором",
			requestBody:    Request{Action: "comments", Cost: -3},
			username:       "testuser",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Cost must be at least 1`,
		},
		{
			name:           "отсутствует авторизация",
			requestBody:    Request{Action: "comments", Cost: 1},
			username:       "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:        "сервис отклоняет стоимость",
			requestBody: Request{Action: "comments", Cost: 1},
			username:    "testuser",
			setupMock: func(m *MockService) {
				m.On("Consume", mock.Anything, "testuser", "comments", 1).
					Return(false, services.ErrInvalidCost)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"cost must be positive"}`,
		},
		{
			name:        "ошибка сервиса",
			requestBody: Request{Action: "comments", Cost: 1},
			username:    "testuser",
			setupMock: func(m *MockService) {
				m.On("Consume", mock.Anything, "testuser", "comments", 1).
					Return(false, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not consume quota"}`,
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

			req := httptest.NewRequest(http.MethodPost, "/quota/consume", bytes.NewReader(body))
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
