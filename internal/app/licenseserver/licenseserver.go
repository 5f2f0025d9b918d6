package licenseserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"google.golang.org/grpc"

	"github.com/magabrotheeeer/license-server/internal/cache"
	"github.com/magabrotheeeer/license-server/internal/config"
	grpcserver "github.com/magabrotheeeer/license-server/internal/grpc/server"
	"github.com/magabrotheeeer/license-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-server/internal/lib/jwt"
	"github.com/magabrotheeeer/license-server/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/license-server/internal/lib/sl"
	"github.com/magabrotheeeer/license-server/internal/lib/unlockcode"
	"github.com/magabrotheeeer/license-server/internal/metrics"
	"github.com/magabrotheeeer/license-server/internal/migrations"
	adminservice "github.com/magabrotheeeer/license-server/internal/services/admin"
	analyticsservice "github.com/magabrotheeeer/license-server/internal/services/analytics"
	authservice "github.com/magabrotheeeer/license-server/internal/services/auth"
	licenseservice "github.com/magabrotheeeer/license-server/internal/services/license"
	usersservice "github.com/magabrotheeeer/license-server/internal/services/users"
	versionservice "github.com/magabrotheeeer/license-server/internal/services/version"
	"github.com/magabrotheeeer/license-server/internal/storage/repository"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthCheckInterval = 10 * time.Second
)

// App сервер лицензирования со всеми зависимостями.
type App struct {
	cfg        *config.Config
	server     *http.Server
	grpcServer *grpc.Server
	listener   net.Listener
	health     *grpcserver.HealthServer
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	amqpConn   *amqp.Connection
	publisher  *rabbitmq.Publisher
	analytics  *analyticsservice.Service
	auth       *authservice.Service
}

// New подключает хранилище, применяет миграции и собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "licenseserver.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := &App{cfg: cfg, logger: logger, db: db}

	var catalogCache versionservice.Cache = cache.Noop{}
	if cfg.AddressRedis != "" {
		a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		catalogCache = a.cache
	} else {
		logger.Warn("redis address is not set, version catalog cache disabled")
	}

	var publisher licenseservice.Publisher = rabbitmq.Noop{}
	if cfg.RabbitMQ.URL != "" {
		a.amqpConn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(a.amqpConn, cfg.RabbitMQ.Exchange, rabbitmq.GetLicensingQueues())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange)
		publisher = a.publisher
	} else {
		logger.Warn("rabbitmq url is not set, licensing events are not published")
	}

	if cfg.InsecureJWTSecret() {
		logger.Warn("JWT_SECRET is not set, using insecure default secret")
	}
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecret(), cfg.TokenTTL)
	m := metrics.New()
	codes := unlockcode.New()

	a.analytics = analyticsservice.NewAnalyticsService(db, m, logger)
	versionService := versionservice.NewVersionService(db, catalogCache, cfg.RedisConnection.TTL, m, logger)
	usersService := usersservice.NewUsersService(db, logger)
	a.auth = authservice.NewAuthService(db, usersService, jwtMaker, logger)
	licenseService := licenseservice.NewLicenseService(db, codes, a.analytics, publisher, m, logger)
	adminService := adminservice.NewAdminService(db, a.analytics, versionService, codes, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Auth:       a.auth,
		Users:      usersService,
		License:    licenseService,
		Version:    versionService,
		Analytics:  a.analytics,
		Admin:      adminService,
		DB:         db,
		Tokens:     jwtMaker,
		Metrics:    m,
		Limiter:    middlewarectx.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		AppVersion: cfg.AppVersion,
		Started:    time.Now(),
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	a.listener, err = net.Listen("tcp", cfg.GRPCHealthAddress)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.grpcServer = grpc.NewServer()
	a.health = grpcserver.NewHealthServer(db, logger)
	a.health.Register(a.grpcServer)

	return a, nil
}

// Run запускает HTTP и gRPC серверы и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	go func() {
		a.logger.Info("gRPC health service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.health.Watch(watchCtx, healthCheckInterval)
	go a.auth.RunBootstrap(ctx, a.cfg.BootstrapDelay, a.cfg.Admin.Email, a.cfg.Admin.Password)

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	a.grpcServer.GracefulStop()
	stopWatch()
	a.analytics.Wait()
	a.close()
	return runErr
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
