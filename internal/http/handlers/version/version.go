// Package version реализует публичные HTTP-обработчики каталога версий.
package version

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-server/internal/http/request"
	"github.com/magabrotheeeer/license-server/internal/http/response"
	"github.com/magabrotheeeer/license-server/internal/lib/requestmeta"
	"github.com/magabrotheeeer/license-server/internal/lib/sl"
	"github.com/magabrotheeeer/license-server/internal/models"
)

// Handler обрабатывает HTTP-запросы каталога версий.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс каталога версий.
type Service interface {
	CheckVersion(ctx context.Context, req models.CheckVersionRequest, meta models.RequestMeta) (*models.CheckVersionResponse, error)
	GetAllVersions(ctx context.Context) ([]models.Version, error)
	GetVersionFiles(ctx context.Context, versionID string) ([]models.VersionFile, error)
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

// Check godoc
// @Summary Проверка обновления
// @Description Сравнивает версию клиента с последней активной и возвращает манифест обновления.
// @Tags Version
// @Produce json
// @Param current_version query string true "Текущая версия клиента" example(1.0.0)
// @Param device_fingerprint query string false "Отпечаток устройства"
// @Param user_id query string false "ID пользователя"
// @Success 200 {object} response.Response{data=models.CheckVersionResponse}
// @Failure 422 {object} response.ErrorResponse "Не указана текущая версия"
// @Router /check-version [get]
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.version.Check"
	log := h.logger(r, op)

	q := r.URL.Query()
	req := models.CheckVersionRequest{
		CurrentVersion:    q.Get("current_version"),
		DeviceFingerprint: q.Get("device_fingerprint"),
		UserID:            q.Get("user_id"),
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		request.Fail(w, r, log, "validation failed", err)
		return
	}

	resp, err := h.service.CheckVersion(r.Context(), req, requestmeta.FromRequest(r))
	if err != nil {
		request.Fail(w, r, log, "failed to check version", err)
		return
	}

	log.Debug("version checked",
		slog.String("current", req.CurrentVersion),
		slog.Bool("update_available", resp.UpdateAvailable),
	)
	request.OK(w, r, resp)
}

// List godoc
// @Summary Активные версии
// @Tags Version
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Version}
// @Router /versions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.version.List"
	log := h.logger(r, op)

	versions, err := h.service.GetAllVersions(r.Context())
	if err != nil {
		request.Fail(w, r, log, "failed to list versions", err)
		return
	}
	request.OK(w, r, versions)
}

// Files godoc
// @Summary Активные файлы версии
// @Tags Version
// @Produce json
// @Param versionId path string true "ID версии"
// @Success 200 {object} response.Response{data=[]models.VersionFile}
// @Router /versions/{versionId}/files [get]
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.version.Files"
	log := h.logger(r, op)

	files, err := h.service.GetVersionFiles(r.Context(), chi.URLParam(r, "versionId"))
	if err != nil {
		request.Fail(w, r, log, "failed to list version files", err)
		return
	}
	request.OK(w, r, files)
}
