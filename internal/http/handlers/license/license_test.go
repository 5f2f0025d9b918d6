package license

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-server/internal/models"
	"github.com/magabrotheeeer/license-server/internal/services"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ProcessLicense(ctx context.Context, req models.ProcessLicenseRequest) (*models.ProcessLicenseResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.ProcessLicenseResponse)
	return resp, args.Error(1)
}

func (m *MockService) ValidateLicense(ctx context.Context, req models.ValidateLicenseRequest, meta models.RequestMeta) (*models.ValidateLicenseResponse, error) {
	args := m.Called(ctx, req, meta)
	resp, _ := args.Get(0).(*models.ValidateLicenseResponse)
	return resp, args.Error(1)
}

func (m *MockService) GetUserDevices(ctx context.Context, userID string) ([]models.Device, error) {
	args := m.Called(ctx, userID)
	resp, _ := args.Get(0).([]models.Device)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHandler_Process(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(m *MockService)
		wantStatusCode int
		wantBody       string
	}{
		{
			name: "новая лицензия",
			body: `{"device_fingerprint":"1234567890-123456","user_id":"u-1","customer_email":"c@example.com"}`,
			setupMock: func(m *MockService) {
				m.On("ProcessLicense", mock.Anything, models.ProcessLicenseRequest{
					DeviceFingerprint: "1234567890-123456",
					UserID:            "u-1",
					CustomerEmail:     "c@example.com",
				}).Return(&models.ProcessLicenseResponse{Success: true, UnlockCode: "17000000000001234"}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `"unlockCode":"17000000000001234"`,
		},
		{
			name: "неверный формат отпечатка",
			body: `{"device_fingerprint":"abc","user_id":"u-1"}`,
			setupMock: func(m *MockService) {
				m.On("ProcessLicense", mock.Anything, mock.Anything).
					Return(nil, services.BadRequest("Invalid device fingerprint format. Expected: ##########-######")).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `Invalid device fingerprint format`,
		},
		{
			name: "пустой отпечаток доходит до сервиса",
			body: `{"device_fingerprint":"","user_id":"u-1"}`,
			setupMock: func(m *MockService) {
				m.On("ProcessLicense", mock.Anything, models.ProcessLicenseRequest{UserID: "u-1"}).
					Return(nil, services.BadRequest("Invalid device fingerprint format. Expected: ##########-######")).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `Invalid device fingerprint format`,
		},
		{
			name: "без user_id выпуск по email",
			body: `{"device_fingerprint":"1234567890-123456","customer_email":"c@example.com"}`,
			setupMock: func(m *MockService) {
				m.On("ProcessLicense", mock.Anything, models.ProcessLicenseRequest{
					DeviceFingerprint: "1234567890-123456",
					CustomerEmail:     "c@example.com",
				}).Return(&models.ProcessLicenseResponse{Success: true, UnlockCode: "17000000000001234"}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `"success":true`,
		},
		{
			name:           "неизвестный тип лицензии",
			body:           `{"device_fingerprint":"1234567890-123456","user_id":"u-1","license_type":"gold"}`,
			setupMock:      func(_ *MockService) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantBody:       `field LicenseType must be one of [trial basic professional enterprise]`,
		},
		{
			name: "сбой базы",
			body: `{"device_fingerprint":"1234567890-123456","user_id":"u-1"}`,
			setupMock: func(m *MockService) {
				m.On("ProcessLicense", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `"error":"Internal server error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).Process(rec, httptest.NewRequest(http.MethodPost, "/api/license/process", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Validate(t *testing.T) {
	svc := new(MockService)
	svc.On("ValidateLicense", mock.Anything,
		models.ValidateLicenseRequest{UnlockCode: "17000000000001234", DeviceFingerprint: "1234567890-123456"},
		mock.MatchedBy(func(meta models.RequestMeta) bool {
			return meta.IPAddress != nil && *meta.IPAddress == "203.0.113.9" &&
				meta.Country != nil && *meta.Country == "MX"
		}),
	).Return(&models.ValidateLicenseResponse{Valid: false, Result: models.ValidationExpired, Error: "License has expired"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/license/validate",
		strings.NewReader(`{"unlock_code":"17000000000001234","device_fingerprint":"1234567890-123456"}`))
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("cf-ipcountry", "MX")
	rec := httptest.NewRecorder()

	New(newNoopLogger(), svc).Validate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":"expired"`)
	svc.AssertExpectations(t)
}

func TestHandler_ValidateEmptyInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.ValidateLicenseRequest
	}{
		{
			name: "пустой код",
			body: `{"unlock_code":"","device_fingerprint":"1234567890-123456"}`,
			want: models.ValidateLicenseRequest{DeviceFingerprint: "1234567890-123456"},
		},
		{
			name: "пустой отпечаток",
			body: `{"unlock_code":"17000000000001234","device_fingerprint":""}`,
			want: models.ValidateLicenseRequest{UnlockCode: "17000000000001234"},
		},
		{
			name: "пустое тело объекта",
			body: `{}`,
			want: models.ValidateLicenseRequest{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ValidateLicense", mock.Anything, tt.want, mock.Anything).
				Return(&models.ValidateLicenseResponse{Valid: false, Result: models.ValidationNotFound, Error: "License not found"}, nil).Once()

			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).Validate(rec, httptest.NewRequest(http.MethodPost, "/api/license/validate", strings.NewReader(tt.body)))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"result":"not_found"`)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Devices(t *testing.T) {
	svc := new(MockService)
	svc.On("GetUserDevices", mock.Anything, "u-1").
		Return([]models.Device{{ID: "l-1", DeviceFingerprint: "1234567890-123456"}}, nil).Once()

	r := chi.NewRouter()
	r.Get("/api/users/{id}/devices", New(newNoopLogger(), svc).Devices)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/u-1/devices", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deviceFingerprint":"1234567890-123456"`)
	assert.NotContains(t, rec.Body.String(), "unlockCode")
	svc.AssertExpectations(t)
}
