package admin

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/license-server/internal/http/request"
	"github.com/magabrotheeeer/license-server/internal/models"
)

// Versions godoc
// @Summary Все версии
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Version}
// @Router /admin/versions [get]
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.Versions"
	log := h.logger(r, op)

	res, err := h.service.GetVersions(r.Context())
	if err != nil {
		request.Fail(w, r, log, "failed to list versions", err)
		return
	}
	request.OK(w, r, res)
}

// CreateVersion godoc
// @Summary Публикация версии
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateVersionRequest true "Версия"
// @Success 201 {object} response.Response{data=models.Version}
// @Failure 400 {object} response.ErrorResponse "Версия уже существует"
// @Router /admin/versions [post]
func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.CreateVersion"
	log := h.logger(r, op)

	var req models.CreateVersionRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.CreateVersion(r.Context(), req)
	if err != nil {
		request.Fail(w, r, log, "failed to create version", err)
		return
	}
	request.Created(w, r, res)
}

// UpdateVersion godoc
// @Summary Обновление версии
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID версии"
// @Param request body models.UpdateVersionRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Version}
// @Failure 404 {object} response.ErrorResponse "Версия не найдена"
// @Failure 409 {object} response.ErrorResponse "Строка версии занята"
// @Router /admin/versions/{id} [put]
func (h *Handler) UpdateVersion(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.UpdateVersion"
	log := h.logger(r, op)

	var req models.UpdateVersionRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.UpdateVersion(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		request.Fail(w, r, log, "failed to update version", err)
		return
	}
	request.OK(w, r, res)
}

// ToggleVersion godoc
// @Summary Переключение активности версии
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID версии"
// @Success 200 {object} response.Response{data=models.ToggleResponse}
// @Failure 404 {object} response.ErrorResponse "Версия не найдена"
// @Router /admin/versions/{id}/toggle [patch]
func (h *Handler) ToggleVersion(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.ToggleVersion"
	log := h.logger(r, op)

	res, err := h.service.ToggleVersionStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		request.Fail(w, r, log, "failed to toggle version", err)
		return
	}
	request.OK(w, r, res)
}

// DeleteVersion godoc
// @Summary Удаление версии
// @Description Файлы версии удаляются вместе с ней.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID версии"
// @Success 200 {object} response.Response{data=models.DeleteResponse}
// @Failure 404 {object} response.ErrorResponse "Версия не найдена"
// @Router /admin/versions/{id} [delete]
func (h *Handler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.DeleteVersion"
	log := h.logger(r, op)

	res, err := h.service.DeleteVersion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		request.Fail(w, r, log, "failed to delete version", err)
		return
	}
	request.OK(w, r, res)
}

// VersionFiles godoc
// @Summary Все файлы версии
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param versionId path string true "ID версии"
// @Success 200 {object} response.Response{data=[]models.VersionFile}
// @Failure 404 {object} response.ErrorResponse "Версия не найдена"
// @Router /admin/versions/{versionId}/files [get]
func (h *Handler) VersionFiles(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.VersionFiles"
	log := h.logger(r, op)

	res, err := h.service.GetVersionFiles(r.Context(), chi.URLParam(r, "versionId"))
	if err != nil {
		request.Fail(w, r, log, "failed to list version files", err)
		return
	}
	request.OK(w, r, res)
}

// CreateVersionFile godoc
// @Summary Добавление файла к версии
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateVersionFileRequest true "Файл"
// @Success 201 {object} response.Response{data=models.VersionFile}
// @Failure 404 {object} response.ErrorResponse "Версия не найдена"
// @Router /admin/version-files [post]
func (h *Handler) CreateVersionFile(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.CreateVersionFile"
	log := h.logger(r, op)

	var req models.CreateVersionFileRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.CreateVersionFile(r.Context(), req)
	if err != nil {
		request.Fail(w, r, log, "failed to create version file", err)
		return
	}
	request.Created(w, r, res)
}

// UpdateVersionFile godoc
// @Summary Обновление файла версии
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID файла"
// @Param request body models.UpdateVersionFileRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.VersionFile}
// @Failure 404 {object} response.ErrorResponse "Файл не найден"
// @Router /admin/version-files/{id} [put]
func (h *Handler) UpdateVersionFile(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.UpdateVersionFile"
	log := h.logger(r, op)

	var req models.UpdateVersionFileRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.UpdateVersionFile(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		request.Fail(w, r, log, "failed to update version file", err)
		return
	}
	request.OK(w, r, res)
}

// ToggleVersionFile godoc
// @Summary Переключение активности файла версии
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID файла"
// @Success 200 {object} response.Response{data=models.ToggleResponse}
// @Failure 404 {object} response.ErrorResponse "Файл не найден"
// @Router /admin/version-files/{id}/toggle [patch]
func (h *Handler) ToggleVersionFile(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.ToggleVersionFile"
	log := h.logger(r, op)

	res, err := h.service.ToggleVersionFileStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		request.Fail(w, r, log, "failed to toggle version file", err)
		return
	}
	request.OK(w, r, res)
}

// DeleteVersionFile godoc
// @Summary Удаление файла версии
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID файла"
// @Success 200 {object} response.Response{data=models.DeleteResponse}
// @Failure 404 {object} response.ErrorResponse "Файл не найден"
// @Router /admin/version-files/{id} [delete]
func (h *Handler) DeleteVersionFile(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.DeleteVersionFile"
	log := h.logger(r, op)

	res, err := h.service.DeleteVersionFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		request.Fail(w, r, log, "failed to delete version file", err)
		return
	}
	request.OK(w, r, res)
}
