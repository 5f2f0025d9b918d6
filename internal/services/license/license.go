// Package license выпускает коды разблокировки для устройств, проверяет их
// и ведёт журнал всех попыток проверки.
package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/license-server/internal/lib/password"
	"github.com/magabrotheeeer/license-server/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/license-server/internal/lib/sl"
	"github.com/magabrotheeeer/license-server/internal/models"
	"github.com/magabrotheeeer/license-server/internal/services"
	"github.com/magabrotheeeer/license-server/internal/storage/repository"
)

// Repository описывает методы хранилища, нужные сервису лицензий.
type Repository interface {
	CreateLicense(ctx context.Context, license models.License) (*models.License, error)
	GetActiveLicenseByFingerprint(ctx context.Context, fingerprint string) (*models.License, error)
	GetLicenseByUnlockCode(ctx context.Context, unlockCode, fingerprint string) (*models.License, error)
	ListLicensesByUser(ctx context.Context, userID string) ([]models.License, error)
	CreateLicenseValidation(ctx context.Context, v models.LicenseValidation) error

	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// CodeGenerator выдаёт код разблокировки для отпечатка устройства.
type CodeGenerator interface {
	Generate(deviceFingerprint string) string
}

// StatsRecorder учитывает выпуск лицензии в дневной статистике.
type StatsRecorder interface {
	RecordLicenseIssued(licenseType string)
}

// Publisher отправляет события лицензирования во внешнюю шину.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Metrics счётчики Prometheus, которые обновляет сервис.
type Metrics interface {
	LicenseIssued(licenseType string)
	LicenseValidated(result string)
}

// Service реализует выпуск и проверку лицензий.
type Service struct {
	repo      Repository
	codes     CodeGenerator
	stats     StatsRecorder
	publisher Publisher
	metrics   Metrics
	log       *slog.Logger
	now       func() time.Time
}

// NewLicenseService создает новый экземпляр Service.
func NewLicenseService(repo Repository, codes CodeGenerator, stats StatsRecorder, publisher Publisher, metrics Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		codes:     codes,
		stats:     stats,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// ExpiresAt вычисляет срок действия лицензии от момента выпуска.
// Неизвестный тип получает срок пробной лицензии.
func ExpiresAt(licenseType string, from time.Time) time.Time {
	switch licenseType {
	case models.LicenseBasic, models.LicenseProfessional:
		return from.AddDate(1, 0, 0)
	case models.LicenseEnterprise:
		return from.AddDate(2, 0, 0)
	default:
		return from.AddDate(0, 0, 30)
	}
}

// ProcessLicense выпускает лицензию для устройства. Если у устройства уже есть
// активная лицензия, возвращает её код с success=false и ничего не создаёт.
func (s *Service) ProcessLicense(ctx context.Context, req models.ProcessLicenseRequest) (*models.ProcessLicenseResponse, error) {
	const op = "license.ProcessLicense"

	if !models.FingerprintPattern.MatchString(req.DeviceFingerprint) {
		return nil, fmt.Errorf("%s: %w", op,
			services.BadRequest("Invalid device fingerprint format. Expected: ##########-######"))
	}

	existing, err := s.repo.GetActiveLicenseByFingerprint(ctx, req.DeviceFingerprint)
	switch {
	case err == nil:
		return &models.ProcessLicenseResponse{
			Success:    false,
			Message:    "License already exists for this device",
			UnlockCode: existing.UnlockCode,
		}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	owner, err := s.resolveOwner(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	licenseType := req.LicenseType
	if licenseType == "" {
		licenseType = models.LicenseTrial
	}

	issued := s.now().UTC()
	created, err := s.repo.CreateLicense(ctx, models.License{
		LicenseKey:        uuid.NewString(),
		DeviceFingerprint: req.DeviceFingerprint,
		UnlockCode:        s.codes.Generate(req.DeviceFingerprint),
		Type:              licenseType,
		ExpiresAt:         ExpiresAt(licenseType, issued),
		Active:            true,
		PaymentStatus:     models.PaymentPending,
		UserID:            owner.ID,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%s: %w", op, services.Conflict("License could not be issued, please retry"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("license issued",
		slog.String("license_id", created.ID),
		slog.String("user_id", owner.ID),
		slog.String("type", created.Type),
	)
	s.metrics.LicenseIssued(created.Type)
	s.stats.RecordLicenseIssued(created.Type)
	s.publish(ctx, rabbitmq.RoutingLicenseIssued, models.LicenseIssuedEvent{
		LicenseID:         created.ID,
		UserID:            owner.ID,
		DeviceFingerprint: created.DeviceFingerprint,
		LicenseType:       created.Type,
		ExpiresAt:         created.ExpiresAt,
		IssuedAt:          issued,
	})

	expiresAt := created.ExpiresAt
	return &models.ProcessLicenseResponse{
		Success:     true,
		Message:     "License processed successfully",
		UnlockCode:  created.UnlockCode,
		ExpiresAt:   &expiresAt,
		LicenseType: created.Type,
	}, nil
}

// resolveOwner ищет владельца по user_id, затем по email, иначе создаёт покупателя.
func (s *Service) resolveOwner(ctx context.Context, req models.ProcessLicenseRequest) (*models.User, error) {
	if _, err := uuid.Parse(req.UserID); err == nil {
		user, err := s.repo.GetUserByID(ctx, req.UserID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		return nil, services.BadRequest("customer_email is required for a new customer")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	first, last := splitName(req.CustomerName)
	user, err = s.repo.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: password.NoLogin,
		FirstName:    first,
		LastName:     last,
		Role:         models.RoleCustomer,
		Active:       true,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("customer provisioned", slog.String("user_id", user.ID))
	return user, nil
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Customer", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ValidateLicense проверяет пару код разблокировки и отпечаток устройства.
// Плохая лицензия не считается ошибкой: результат возвращается в ответе.
// Каждый вызов добавляет ровно одну запись в журнал проверок.
func (s *Service) ValidateLicense(ctx context.Context, req models.ValidateLicenseRequest, meta models.RequestMeta) (*models.ValidateLicenseResponse, error) {
	const op = "license.ValidateLicense"

	var (
		result  string
		errMsg  string
		license *models.License
		owner   *models.User
	)

	// Postgres не принимает NUL в text, поэтому ни поиск, ни запись в журнал не прошли бы.
	req.UnlockCode = stripNUL(req.UnlockCode)
	req.DeviceFingerprint = stripNUL(req.DeviceFingerprint)

	license, err := s.repo.GetLicenseByUnlockCode(ctx, req.UnlockCode, req.DeviceFingerprint)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		license = nil
		result, errMsg = models.ValidationNotFound, "License not found"
	case err != nil:
		s.log.Error("license lookup failed", sl.Op(op), sl.Err(err))
		license = nil
		result, errMsg = models.ValidationInvalid, "Validation error occurred"
	case !license.Active:
		result, errMsg = models.ValidationInvalid, "License is inactive"
	case s.now().After(license.ExpiresAt):
		result, errMsg = models.ValidationExpired, "License has expired"
	default:
		owner, err = s.repo.GetUserByID(ctx, license.UserID)
		if err != nil {
			s.log.Error("license owner lookup failed", sl.Op(op), sl.Err(err))
			result, errMsg = models.ValidationInvalid, "Validation error occurred"
		} else {
			result = models.ValidationValid
		}
	}

	record := models.LicenseValidation{
		UnlockCode:        req.UnlockCode,
		DeviceFingerprint: req.DeviceFingerprint,
		Result:            result,
		RequestMeta:       meta,
	}
	if license != nil {
		record.LicenseID = &license.ID
	}
	if errMsg != "" {
		record.ErrorMessage = &errMsg
	}
	if err := s.repo.CreateLicenseValidation(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.LicenseValidated(result)
	s.publish(ctx, rabbitmq.RoutingLicenseValidated, models.LicenseValidatedEvent{
		LicenseID:         record.LicenseID,
		DeviceFingerprint: req.DeviceFingerprint,
		Result:            result,
		ValidatedAt:       s.now().UTC(),
	})

	resp := &models.ValidateLicenseResponse{
		Valid:  result == models.ValidationValid,
		Result: result,
	}
	if resp.Valid {
		resp.License = &models.ValidatedLicense{
			Type:          license.Type,
			ExpiresAt:     license.ExpiresAt,
			PaymentStatus: license.PaymentStatus,
		}
		resp.User = &models.ValidatedUser{
			ID:    owner.ID,
			Email: owner.Email,
			Name:  owner.FirstName + " " + owner.LastName,
		}
	} else {
		resp.Error = errMsg
	}
	return resp, nil
}

// GetUserDevices возвращает лицензии пользователя без кодов разблокировки, новые первыми.
func (s *Service) GetUserDevices(ctx context.Context, userID string) ([]models.Device, error) {
	const op = "license.GetUserDevices"

	licenses, err := s.repo.ListLicensesByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		// некорректный идентификатор пользователя
		return []models.Device{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	devices := make([]models.Device, 0, len(licenses))
	for _, l := range licenses {
		devices = append(devices, ToDevice(l))
	}
	return devices, nil
}

// ToDevice проецирует лицензию в устройство.
func ToDevice(l models.License) models.Device {
	return models.Device{
		ID:                l.ID,
		DeviceFingerprint: l.DeviceFingerprint,
		LicenseType:       l.Type,
		Active:            l.Active,
		ExpiresAt:         l.ExpiresAt,
		PaymentStatus:     l.PaymentStatus,
		CreatedAt:         l.CreatedAt,
	}
}

func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

func (s *Service) publish(ctx context.Context, routingKey string, event any) {
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("routing_key", routingKey), sl.Err(err))
	}
}
