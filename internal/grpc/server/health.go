// Package server реализует gRPC-сервер здоровья сервера лицензирования.
//
// HealthServer публикует стандартный сервис grpc.health.v1 и переводит его
// в NOT_SERVING, пока база данных недоступна.
package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/license-server/internal/lib/sl"
)

// ServiceName имя сервиса в ответах Check и Watch.
const ServiceName = "licenseserver"

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer отражает состояние базы данных в gRPC health.
type HealthServer struct {
	health  *health.Server
	db      Pinger
	log     *slog.Logger
	timeout time.Duration
}

// NewHealthServer создает новый экземпляр HealthServer.
func NewHealthServer(db Pinger, log *slog.Logger) *HealthServer {
	return &HealthServer{
		health:  health.NewServer(),
		db:      db,
		log:     log,
		timeout: 2 * time.Second,
	}
}

// Register добавляет сервис здоровья на gRPC-сервер.
func (s *HealthServer) Register(g *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(g, s.health)
}

// Check пингует базу и обновляет статус. Возвращает true, если база доступна.
func (s *HealthServer) Check(ctx context.Context) bool {
	const op = "server.HealthServer.Check"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("database ping failed", slog.String("op", op), sl.Err(err))
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status == grpc_health_v1.HealthCheckResponse_SERVING
}

// Watch проверяет базу каждые interval до отмены ctx,
// после чего переводит все сервисы в NOT_SERVING.
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	s.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
