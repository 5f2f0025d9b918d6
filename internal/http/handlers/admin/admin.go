// Package admin реализует HTTP-обработчики административной панели.
// Все маршруты требуют токен с ролью admin или super_admin.
package admin

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

// Handler обрабатывает HTTP-запросы административной панели.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс административной панели.
type Service interface {
	GetDashboardAnalytics(ctx context.Context, days int) (*models.Dashboard, error)
	GetDevices(ctx context.Context, page, limit int, search string) (*models.Page[models.DeviceWithOwner], error)
	GetLicenses(ctx context.Context, page, limit int, filter models.LicenseFilter) (*models.Page[models.LicenseWithOwner], error)
	CreateLicense(ctx context.Context, req models.CreateLicenseRequest) (*models.License, error)
	UpdateLicense(ctx context.Context, id string, req models.UpdateLicenseRequest) (*models.License, error)
	DeleteLicense(ctx context.Context, id string) (*models.DeleteResponse, error)

	GetVersions(ctx context.Context) ([]models.Version, error)
	CreateVersion(ctx context.Context, req models.CreateVersionRequest) (*models.Version, error)
	UpdateVersion(ctx context.Context, id string, req models.UpdateVersionRequest) (*models.Version, error)
	ToggleVersionStatus(ctx context.Context, id string) (*models.ToggleResponse, error)
	DeleteVersion(ctx context.Context, id string) (*models.DeleteResponse, error)

	GetVersionFiles(ctx context.Context, versionID string) ([]models.VersionFile, error)
	CreateVersionFile(ctx context.Context, req models.CreateVersionFileRequest) (*models.VersionFile, error)
	UpdateVersionFile(ctx context.Context, id string, req models.UpdateVersionFileRequest) (*models.VersionFile, error)
	ToggleVersionFileStatus(ctx context.Context, id string) (*models.ToggleResponse, error)
	DeleteVersionFile(ctx context.Context, id string) (*models.DeleteResponse, error)
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

// Dashboard godoc
// @Summary Аналитика за период
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param days query int false "Число дней" default(30)
// @Success 200 {object} response.Response{data=models.Dashboard}
// @Router /admin/dashboard-analytics [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.Dashboard"
	log := h.logger(r, op)

	days, err := request.QueryInt(r, "days", 30)
	if err != nil {
		request.BadQuery(w, r, log, err)
		return
	}

	res, err := h.service.GetDashboardAnalytics(r.Context(), days)
	if err != nil {
		request.Fail(w, r, log, "failed to build dashboard", err)
		return
	}
	request.OK(w, r, res)
}

// Devices godoc
// @Summary Устройства с владельцами
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Param search query string false "Поиск по отпечатку, email и имени владельца"
// @Success 200 {object} response.Response{data=models.Page[models.DeviceWithOwner]}
// @Router /admin/devices [get]
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.Devices"
	log := h.logger(r, op)

	page, limit, err := request.Paging(r)
	if err != nil {
		request.BadQuery(w, r, log, err)
		return
	}

	res, err := h.service.GetDevices(r.Context(), page, limit, r.URL.Query().Get("search"))
	if err != nil {
		request.Fail(w, r, log, "failed to list devices", err)
		return
	}
	request.OK(w, r, res)
}

// Licenses godoc
// @Summary Лицензии
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Param type query string false "Тип лицензии"
// @Param status query string false "Статус оплаты"
// @Success 200 {object} response.Response{data=models.Page[models.LicenseWithOwner]}
// @Router /admin/licenses [get]
func (h *Handler) Licenses(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.Licenses"
	log := h.logger(r, op)

	page, limit, err := request.Paging(r)
	if err != nil {
		request.BadQuery(w, r, log, err)
		return
	}
	filter := models.LicenseFilter{
		Type:          r.URL.Query().Get("type"),
		PaymentStatus: r.URL.Query().Get("status"),
	}

	res, err := h.service.GetLicenses(r.Context(), page, limit, filter)
	if err != nil {
		request.Fail(w, r, log, "failed to list licenses", err)
		return
	}
	request.OK(w, r, res)
}

// CreateLicense godoc
// @Summary Ручной выпуск лицензии
// @Description Пустые license_key и unlock_code генерируются автоматически.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateLicenseRequest true "Лицензия"
// @Success 201 {object} response.Response{data=models.License}
// @Failure 404 {object} response.ErrorResponse "Владелец не найден"
// @Failure 409 {object} response.ErrorResponse "Ключ или код уже заняты"
// @Router /admin/licenses [post]
func (h *Handler) CreateLicense(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.CreateLicense"
	log := h.logger(r, op)

	var req models.CreateLicenseRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.CreateLicense(r.Context(), req)
	if err != nil {
		request.Fail(w, r, log, "failed to create license", err)
		return
	}
	request.Created(w, r, res)
}

// UpdateLicense godoc
// @Summary Обновление лицензии
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID лицензии"
// @Param request body models.UpdateLicenseRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.License}
// @Failure 404 {object} response.ErrorResponse "Лицензия не найдена"
// @Router /admin/licenses/{id} [put]
func (h *Handler) UpdateLicense(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.UpdateLicense"
	log := h.logger(r, op)

	var req models.UpdateLicenseRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.UpdateLicense(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		request.Fail(w, r, log, "failed to update license", err)
		return
	}
	request.OK(w, r, res)
}

// DeleteLicense godoc
// @Summary Удаление лицензии
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID лицензии"
// @Success 200 {object} response.Response{data=models.DeleteResponse}
// @Failure 404 {object} response.ErrorResponse "Лицензия не найдена"
// @Router /admin/licenses/{id} [delete]
func (h *Handler) DeleteLicense(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.DeleteLicense"
	log := h.logger(r, op)

	res, err := h.service.DeleteLicense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		request.Fail(w, r, log, "failed to delete license", err)
		return
	}
	request.OK(w, r, res)
}
