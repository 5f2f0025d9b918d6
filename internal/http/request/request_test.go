package request

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-server/internal/http/response"
	"github.com/magabrotheeeer/license-server/internal/services"
)

type payload struct {
	Email string `json:"email" validate:"required,email"`
	Days  int    `json:"days,omitempty"`
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestBind(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
		wantError  string
	}{
		{name: "корректное тело", body: `{"email":"a@example.com","days":3}`, wantOK: true},
		{name: "пустое тело", body: ``, wantStatus: http.StatusBadRequest, wantError: MsgInvalidBody},
		{name: "некорректный JSON", body: `{"email":`, wantStatus: http.StatusBadRequest, wantError: MsgInvalidBody},
		{name: "неизвестное поле", body: `{"email":"a@example.com","role":"admin"}`, wantStatus: http.StatusBadRequest, wantError: MsgInvalidBody},
		{name: "ошибка валидации", body: `{"email":"not-an-email"}`, wantStatus: http.StatusUnprocessableEntity, wantError: "field Email must be a valid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var p payload
			ok := Bind(rec, r, newNoopLogger(), validator.New(), &p)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "a@example.com", p.Email)
				assert.Equal(t, 3, p.Days)
				return
			}
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeBody(t, rec).Error)
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=abc", nil)

	v, err := QueryInt(r, "page", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = QueryInt(r, "days", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, v)

	_, err = QueryInt(r, "limit", 10)
	assert.Error(t, err)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "ошибка бизнес-логики", err: services.NotFound("User not found"), wantStatus: http.StatusNotFound, wantError: "User not found"},
		{name: "внутренняя ошибка", err: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantError: response.MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			Fail(rec, r, newNoopLogger(), "request failed", tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, response.StatusError, body.Status)
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

func TestCreated(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	Created(rec, r, map[string]string{"id": "v-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"OK","data":{"id":"v-1"}}`, rec.Body.String())
}

func TestPaging(t *testing.T) {
	page, limit, err := Paging(httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	page, limit, err = Paging(httptest.NewRequest(http.MethodGet, "/api/users?page=4&limit=25", nil))
	require.NoError(t, err)
	assert.Equal(t, 4, page)
	assert.Equal(t, 25, limit)

	_, _, err = Paging(httptest.NewRequest(http.MethodGet, "/api/users?limit=ten", nil))
	assert.Error(t, err)
}
