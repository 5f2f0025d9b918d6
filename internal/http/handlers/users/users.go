// Package users реализует HTTP-обработчики справочника пользователей.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-server/internal/http/request"
	"github.com/magabrotheeeer/license-server/internal/models"
)

// Handler обрабатывает HTTP-запросы справочника пользователей.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс справочника пользователей.
type Service interface {
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	FindAll(ctx context.Context, page, limit int, search string) (*models.Page[models.User], error)
	FindOne(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error)
	Remove(ctx context.Context, id string) error
	ToggleStatus(ctx context.Context, id string) (*models.User, error)
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

// Create godoc
// @Summary Создание пользователя
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateUserRequest true "Данные пользователя"
// @Success 201 {object} response.Response{data=models.User}
// @Failure 403 {object} response.ErrorResponse "Нужна роль администратора"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /users [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.Create"
	log := h.logger(r, op)

	var req models.CreateUserRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), req)
	if err != nil {
		request.Fail(w, r, log, "failed to create user", err)
		return
	}

	log.Info("user created", slog.String("user_id", user.ID))
	request.Created(w, r, user)
}

// List godoc
// @Summary Список активных пользователей
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Param search query string false "Поиск по email, имени и фамилии"
// @Success 200 {object} response.Response{data=models.Page[models.User]}
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Router /users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.List"
	log := h.logger(r, op)

	page, limit, err := request.Paging(r)
	if err != nil {
		request.BadQuery(w, r, log, err)
		return
	}

	res, err := h.service.FindAll(r.Context(), page, limit, r.URL.Query().Get("search"))
	if err != nil {
		request.Fail(w, r, log, "failed to list users", err)
		return
	}
	request.OK(w, r, res)
}

// Get godoc
// @Summary Пользователь по ID
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.Get"
	log := h.logger(r, op)

	user, err := h.service.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		request.Fail(w, r, log, "failed to get user", err)
		return
	}
	request.OK(w, r, user)
}

// Update godoc
// @Summary Обновление пользователя
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body models.UpdateUserRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Router /users/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.Update"
	log := h.logger(r, op)

	var req models.UpdateUserRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		request.Fail(w, r, log, "failed to update user", err)
		return
	}

	log.Info("user updated", slog.String("user_id", user.ID))
	request.OK(w, r, user)
}

// Remove godoc
// @Summary Деактивация пользователя
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response{data=models.DeleteResponse}
// @Failure 403 {object} response.ErrorResponse "Нужна роль администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.Remove"
	log := h.logger(r, op)

	id := chi.URLParam(r, "id")
	if err := h.service.Remove(r.Context(), id); err != nil {
		request.Fail(w, r, log, "failed to deactivate user", err)
		return
	}

	log.Info("user deactivated", slog.String("user_id", id))
	request.OK(w, r, models.DeleteResponse{Message: "User deactivated successfully", ID: id})
}

// ToggleStatus godoc
// @Summary Переключение активности пользователя
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 403 {object} response.ErrorResponse "Нужна роль администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id}/status [patch]
func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.ToggleStatus"
	log := h.logger(r, op)

	user, err := h.service.ToggleStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		request.Fail(w, r, log, "failed to toggle user status", err)
		return
	}

	log.Info("user status toggled", slog.String("user_id", user.ID), slog.Bool("active", user.Active))
	request.OK(w, r, user)
}
