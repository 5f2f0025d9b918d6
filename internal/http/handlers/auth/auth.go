// Package auth реализует HTTP-обработчики входа, регистрации,
// профиля текущего пользователя и выхода.
package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-server/internal/http/request"
	"github.com/magabrotheeeer/license-server/internal/http/response"
	"github.com/magabrotheeeer/license-server/internal/models"
)

// Handler обрабатывает HTTP-запросы аутентификации.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.CreateUserRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, userID string) (*models.MeResponse, error)
	Logout(ctx context.Context) models.LogoutResponse
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Login godoc
// @Summary Вход администратора
// @Description Проверяет email и пароль и выпускает JWT.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Учетные данные"
// @Success 200 {object} response.Response{data=models.AuthResponse}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Login"
	log := h.logger(r, op)

	var req models.LoginRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		request.Fail(w, r, log, "login failed", err)
		return
	}

	log.Info("login success", slog.String("user_id", resp.User.ID))
	request.OK(w, r, resp)
}

// Register godoc
// @Summary Регистрация покупателя
// @Description Создаёт пользователя с ролью customer и выпускает JWT.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "Данные пользователя"
// @Success 201 {object} response.Response{data=models.AuthResponse}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Register"
	log := h.logger(r, op)

	var req models.CreateUserRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		request.Fail(w, r, log, "register failed", err)
		return
	}

	log.Info("user registered", slog.String("user_id", resp.User.ID))
	request.Created(w, r, resp)
}

// Me godoc
// @Summary Текущий пользователь
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.MeResponse}
// @Failure 401 {object} response.ErrorResponse "Нет токена или пользователь неактивен"
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Me"
	log := h.logger(r, op)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	resp, err := h.service.Me(r.Context(), userID)
	if err != nil {
		request.Fail(w, r, log, "failed to resolve current user", err)
		return
	}
	request.OK(w, r, resp)
}

// Logout godoc
// @Summary Выход
// @Description Токены не хранятся на сервере, ответ только подтверждает выход.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.LogoutResponse}
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	request.OK(w, r, h.service.Logout(r.Context()))
}
