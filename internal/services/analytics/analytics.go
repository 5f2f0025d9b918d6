// Package analytics принимает события телеметрии клиентов и ведёт
// дневную статистику для аналитической панели.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/license-server/internal/lib/sl"
	"github.com/magabrotheeeer/license-server/internal/models"
)

// DefaultDays окно аналитической панели по умолчанию.
const DefaultDays = 30

// aggregateTimeout ограничивает фоновое обновление дневной статистики.
const aggregateTimeout = 5 * time.Second

// Repository описывает методы хранилища телеметрии.
type Repository interface {
	CreateUsageEvent(ctx context.Context, e models.UsageEvent) (*models.UsageEvent, error)
	IncrementDailyCounter(ctx context.Context, day time.Time, counter string) error
	IncrementDailyBreakdown(ctx context.Context, day time.Time, breakdown, key string) error
	ListDailyStats(ctx context.Context, from, to time.Time) ([]models.DailyStats, error)
}

// Metrics счётчик принятых событий.
type Metrics interface {
	EventTracked(eventType string)
}

// counterByEvent счётчик дневной статистики, который увеличивает событие.
var counterByEvent = map[string]string{
	models.EventAppStart:     models.CounterAppSessions,
	models.EventLicenseCheck: models.CounterLicenseValidations,
	models.EventVersionCheck: models.CounterVersionChecks,
}

// Service сборщик телеметрии.
type Service struct {
	repo    Repository
	metrics Metrics
	log     *slog.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewAnalyticsService создает новый экземпляр Service.
func NewAnalyticsService(repo Repository, metrics Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// TrackEvent сохраняет событие и в фоне обновляет дневную статистику.
// Идентификаторы, не являющиеся UUID, отбрасываются, а событие всё равно пишется.
// Ошибки обновления статистики только логируются.
func (s *Service) TrackEvent(ctx context.Context, req models.TrackEventRequest, meta models.RequestMeta) (*models.TrackEventResponse, error) {
	const op = "analytics.TrackEvent"

	event, err := s.repo.CreateUsageEvent(ctx, models.UsageEvent{
		UserID:            uuidOrNil(req.UserID),
		LicenseID:         uuidOrNil(req.LicenseID),
		SessionID:         uuidOrNil(req.SessionID),
		EventType:         req.EventType,
		EventName:         req.EventName,
		EventData:         req.EventData,
		DeviceFingerprint: req.DeviceFingerprint,
		AppVersion:        req.AppVersion,
		RequestMeta:       meta,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.EventTracked(req.EventType)

	day := s.today()
	s.async(func(ctx context.Context) {
		if counter, ok := counterByEvent[req.EventType]; ok {
			s.increment(ctx, day, counter)
		}
		if meta.Country != nil && *meta.Country != "" {
			s.incrementBreakdown(ctx, day, models.BreakdownCountries, *meta.Country)
		}
		if req.AppVersion != nil && *req.AppVersion != "" {
			s.incrementBreakdown(ctx, day, models.BreakdownVersions, *req.AppVersion)
		}
	})

	return &models.TrackEventResponse{
		Success:   true,
		Message:   "Event tracked successfully",
		Timestamp: event.CreatedAt,
	}, nil
}

func uuidOrNil(id *string) *string {
	if id == nil {
		return nil
	}
	if _, err := uuid.Parse(*id); err != nil {
		return nil
	}
	return id
}

// RecordLicenseIssued учитывает выпуск лицензии в дневной статистике.
func (s *Service) RecordLicenseIssued(licenseType string) {
	day := s.today()
	s.async(func(ctx context.Context) {
		s.increment(ctx, day, models.CounterNewLicenses)
		s.incrementBreakdown(ctx, day, models.BreakdownLicenseTypes, licenseType)
	})
}

// GetDashboardAnalytics возвращает дневную статистику за последние days дней
// по возрастанию даты и суммы счётчиков за это окно.
func (s *Service) GetDashboardAnalytics(ctx context.Context, days int) (*models.Dashboard, error) {
	const op = "analytics.GetDashboardAnalytics"

	if days <= 0 {
		days = DefaultDays
	}
	end := s.today()
	start := end.AddDate(0, 0, -days)

	stats, err := s.repo.ListDailyStats(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dashboard := &models.Dashboard{
		Period: models.DashboardPeriod{
			StartDate: start,
			EndDate:   end,
			Days:      days,
		},
		DailyStats: stats,
	}
	for _, day := range stats {
		dashboard.Totals.Add(day)
	}
	return dashboard, nil
}

// Wait блокируется, пока не завершатся фоновые обновления статистики.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

func (s *Service) async(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), aggregateTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Service) increment(ctx context.Context, day time.Time, counter string) {
	if err := s.repo.IncrementDailyCounter(ctx, day, counter); err != nil {
		s.log.Error("failed to update daily stats", slog.String("counter", counter), sl.Err(err))
	}
}

func (s *Service) incrementBreakdown(ctx context.Context, day time.Time, breakdown, key string) {
	if err := s.repo.IncrementDailyBreakdown(ctx, day, breakdown, key); err != nil {
		s.log.Error("failed to update daily breakdown", slog.String("breakdown", breakdown), sl.Err(err))
	}
}
