// Package health реализует HTTP-обработчик проверки состояния сервера.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-server/internal/lib/sl"
)

// Статусы ответа.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

const pingTimeout = 2 * time.Second

// Pinger проверяет доступность базы данных.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checks результаты отдельных проверок.
type Checks struct {
	Database  bool      `json:"database"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
	Version   string    `json:"version"`
}

// Response тело ответа проверки состояния.
type Response struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Checks     Checks `json:"checks"`
	Error      string `json:"error,omitempty"`
}

// Handler отвечает на проверку состояния.
type Handler struct {
	log     *slog.Logger
	db      Pinger
	version string
	started time.Time
	now     func() time.Time
}

// New создает новый экземпляр Handler. started используется для расчёта uptime.
func New(log *slog.Logger, db Pinger, version string, started time.Time) *Handler {
	return &Handler{
		log:     log,
		db:      db,
		version: version,
		started: started,
		now:     time.Now,
	}
}

// ServeHTTP godoc
// @Summary Состояние сервера
// @Tags Health
// @Produce json
// @Success 200 {object} Response "База данных доступна"
// @Failure 503 {object} Response "База данных недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	now := h.now()
	resp := Response{
		Status:     StatusHealthy,
		StatusCode: http.StatusOK,
		Checks: Checks{
			Timestamp: now.UTC(),
			Uptime:    now.Sub(h.started).Seconds(),
			Version:   h.version,
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database ping failed", sl.Op(op), sl.Err(err))
		resp.Status = StatusUnhealthy
		resp.StatusCode = http.StatusServiceUnavailable
		resp.Error = "database unavailable"
	} else {
		resp.Checks.Database = true
	}

	render.Status(r, resp.StatusCode)
	render.JSON(w, r, resp)
}
