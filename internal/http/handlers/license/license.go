// Package license реализует HTTP-обработчики выпуска и проверки лицензий
// и списка устройств пользователя.
package license

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-server/internal/http/request"
	"github.com/magabrotheeeer/license-server/internal/lib/requestmeta"
	"github.com/magabrotheeeer/license-server/internal/models"
)

// Handler обрабатывает HTTP-запросы лицензирования.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики лицензирования.
type Service interface {
	ProcessLicense(ctx context.Context, req models.ProcessLicenseRequest) (*models.ProcessLicenseResponse, error)
	ValidateLicense(ctx context.Context, req models.ValidateLicenseRequest, meta models.RequestMeta) (*models.ValidateLicenseResponse, error)
	GetUserDevices(ctx context.Context, userID string) ([]models.Device, error)
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

// Process godoc
// @Summary Выпуск лицензии
// @Description Выпускает код разблокировки для устройства. Если активная лицензия уже есть, возвращает её код с success=false.
// @Tags License
// @Accept json
// @Produce json
// @Param request body models.ProcessLicenseRequest true "Устройство и покупатель"
// @Success 200 {object} response.Response{data=models.ProcessLicenseResponse}
// @Failure 400 {object} response.ErrorResponse "Некорректный отпечаток устройства"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /license/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.Process"
	log := h.logger(r, op)

	var req models.ProcessLicenseRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	resp, err := h.service.ProcessLicense(r.Context(), req)
	if err != nil {
		request.Fail(w, r, log, "failed to process license", err)
		return
	}

	log.Info("license processed", slog.Bool("issued", resp.Success))
	request.OK(w, r, resp)
}

// Validate godoc
// @Summary Проверка лицензии
// @Description Проверяет пару код разблокировки и отпечаток устройства. Результат valid, invalid, expired или not_found.
// @Tags License
// @Accept json
// @Produce json
// @Param request body models.ValidateLicenseRequest true "Код и устройство"
// @Success 200 {object} response.Response{data=models.ValidateLicenseResponse}
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /license/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.Validate"
	log := h.logger(r, op)

	var req models.ValidateLicenseRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	resp, err := h.service.ValidateLicense(r.Context(), req, requestmeta.FromRequest(r))
	if err != nil {
		request.Fail(w, r, log, "failed to validate license", err)
		return
	}

	log.Info("license validated", slog.String("result", resp.Result))
	request.OK(w, r, resp)
}

// Devices godoc
// @Summary Устройства пользователя
// @Tags License
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response{data=[]models.Device}
// @Router /users/{id}/devices [get]
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.Devices"
	log := h.logger(r, op)

	devices, err := h.service.GetUserDevices(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		request.Fail(w, r, log, "failed to list devices", err)
		return
	}
	request.OK(w, r, devices)
}
