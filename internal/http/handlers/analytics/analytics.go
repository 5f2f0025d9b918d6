// Package analytics реализует HTTP-обработчик приёма событий телеметрии.
package analytics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-server/internal/http/request"
	"github.com/magabrotheeeer/license-server/internal/lib/requestmeta"
	"github.com/magabrotheeeer/license-server/internal/models"
)

// Handler обрабатывает HTTP-запросы телеметрии.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс приёма событий.
type Service interface {
	TrackEvent(ctx context.Context, req models.TrackEventRequest, meta models.RequestMeta) (*models.TrackEventResponse, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запись события
// @Description Сохраняет событие использования приложения и обновляет дневную статистику.
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body models.TrackEventRequest true "Событие"
// @Success 200 {object} response.Response{data=models.TrackEventResponse}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /analytics/track [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analytics.Track"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.TrackEventRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	resp, err := h.service.TrackEvent(r.Context(), req, requestmeta.FromRequest(r))
	if err != nil {
		request.Fail(w, r, log, "failed to track event", err)
		return
	}

	log.Debug("event tracked", slog.String("event_type", req.EventType))
	request.OK(w, r, resp)
}
