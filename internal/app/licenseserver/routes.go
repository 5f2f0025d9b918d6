// Package licenseserver собирает сервер лицензирования: хранилище, сервисы,
// HTTP-маршруты и gRPC-сервер здоровья.
package licenseserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация сгенерированной документации Swagger.
	_ "github.com/magabrotheeeer/license-server/docs"
	adminhandler "github.com/magabrotheeeer/license-server/internal/http/handlers/admin"
	analyticshandler "github.com/magabrotheeeer/license-server/internal/http/handlers/analytics"
	authhandler "github.com/magabrotheeeer/license-server/internal/http/handlers/auth"
	"github.com/magabrotheeeer/license-server/internal/http/handlers/health"
	licensehandler "github.com/magabrotheeeer/license-server/internal/http/handlers/license"
	usershandler "github.com/magabrotheeeer/license-server/internal/http/handlers/users"
	versionhandler "github.com/magabrotheeeer/license-server/internal/http/handlers/version"
	"github.com/magabrotheeeer/license-server/internal/http/middlewarectx"
)

// Observer метрики, которые пишут middleware, и их экспозиция.
type Observer interface {
	middlewarectx.HTTPRecorder
	middlewarectx.RateLimitRecorder
	Handler() http.Handler
}

// Services зависимости маршрутов API.
type Services struct {
	Auth      authhandler.Service
	Users     usershandler.Service
	License   licensehandler.Service
	Version   versionhandler.Service
	Analytics analyticshandler.Service
	Admin     adminhandler.Service

	DB         health.Pinger
	Tokens     middlewarectx.TokenParser
	Metrics    Observer
	Limiter    *middlewarectx.IPRateLimiter
	AppVersion string
	Started    time.Time
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware(s.Metrics),
	)

	authH := authhandler.New(logger, s.Auth)
	usersH := usershandler.New(logger, s.Users)
	licenseH := licensehandler.New(logger, s.License)
	versionH := versionhandler.New(logger, s.Version)
	adminH := adminhandler.New(logger, s.Admin)

	jwtAuth := middlewarectx.JWTMiddleware(s.Tokens, logger)
	adminOnly := middlewarectx.RequireAdmin(logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(s.Limiter, s.Metrics, logger))

		// Открытые конечные точки
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Post("/license/process", licenseH.Process)
		r.Post("/license/validate", licenseH.Validate)
		r.Get("/check-version", versionH.Check)
		r.Get("/versions", versionH.List)
		r.Get("/versions/{versionId}/files", versionH.Files)
		r.Post("/analytics/track", analyticshandler.New(logger, s.Analytics).ServeHTTP)
		r.Get("/health", health.New(logger, s.DB, s.AppVersion, s.Started).ServeHTTP)

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}/devices", licenseH.Devices)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth)
				r.Get("/", usersH.List)
				r.Get("/{id}", usersH.Get)
				r.Put("/{id}", usersH.Update)
				r.With(adminOnly).Post("/", usersH.Create)
				r.With(adminOnly).Delete("/{id}", usersH.Remove)
				r.With(adminOnly).Patch("/{id}/status", usersH.ToggleStatus)
			})
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth)
			r.Get("/auth/me", authH.Me)
			r.Post("/auth/logout", authH.Logout)

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/dashboard-analytics", adminH.Dashboard)
				r.Get("/devices", adminH.Devices)
				r.Get("/licenses", adminH.Licenses)
				r.Post("/licenses", adminH.CreateLicense)
				r.Put("/licenses/{id}", adminH.UpdateLicense)
				r.Delete("/licenses/{id}", adminH.DeleteLicense)
				r.Get("/versions", adminH.Versions)
				r.Post("/versions", adminH.CreateVersion)
				r.Put("/versions/{id}", adminH.UpdateVersion)
				r.Patch("/versions/{id}/toggle", adminH.ToggleVersion)
				r.Delete("/versions/{id}", adminH.DeleteVersion)
				r.Get("/versions/{versionId}/files", adminH.VersionFiles)
				r.Post("/version-files", adminH.CreateVersionFile)
				r.Put("/version-files/{id}", adminH.UpdateVersionFile)
				r.Patch("/version-files/{id}/toggle", adminH.ToggleVersionFile)
				r.Delete("/version-files/{id}", adminH.DeleteVersionFile)
			})
		})
	})

	r.Handle("/metrics", s.Metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
