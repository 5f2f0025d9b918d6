// Package admin объединяет операции административной панели: аналитику,
// устройства, лицензии и каталог версий с файлами.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/license-server/internal/models"
	"github.com/magabrotheeeer/license-server/internal/services"
	"github.com/magabrotheeeer/license-server/internal/storage/repository"
)

// Значения постраничной выборки по умолчанию.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

const (
	msgLicenseNotFound = "License not found"
	msgUserNotFound    = "User not found"
	msgLicenseTaken    = "License key or unlock code already exists"
)

// Repository описывает методы хранилища, нужные административной панели.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	ListDevices(ctx context.Context, search string, limit, offset int) ([]models.DeviceWithOwner, int, error)
	ListLicenses(ctx context.Context, filter models.LicenseFilter, limit, offset int) ([]models.LicenseWithOwner, int, error)
	GetLicenseByID(ctx context.Context, id string) (*models.License, error)
	CreateLicense(ctx context.Context, license models.License) (*models.License, error)
	UpdateLicense(ctx context.Context, license models.License) error
	DeleteLicense(ctx context.Context, id string) error

	ListVersions(ctx context.Context, activeOnly bool) ([]models.Version, error)
	GetVersionByID(ctx context.Context, id string) (*models.Version, error)
	GetVersionByString(ctx context.Context, version string) (*models.Version, error)
	CreateVersion(ctx context.Context, version models.Version) (*models.Version, error)
	UpdateVersion(ctx context.Context, version models.Version) error
	DeleteVersion(ctx context.Context, id string) error

	ListVersionFiles(ctx context.Context, versionID string, activeOnly bool) ([]models.VersionFile, error)
	GetVersionFileByID(ctx context.Context, id string) (*models.VersionFile, error)
	CreateVersionFile(ctx context.Context, file models.VersionFile) (*models.VersionFile, error)
	UpdateVersionFile(ctx context.Context, file models.VersionFile) error
	DeleteVersionFile(ctx context.Context, id string) error
}

// Dashboard источник данных аналитической панели.
type Dashboard interface {
	GetDashboardAnalytics(ctx context.Context, days int) (*models.Dashboard, error)
}

// Catalog сбрасывает кеш публичного каталога версий.
type Catalog interface {
	InvalidateCatalog(versionIDs ...string)
}

// CodeGenerator создаёт коды разблокировки.
type CodeGenerator interface {
	Generate(deviceFingerprint string) string
}

// Service административная панель.
type Service struct {
	repo      Repository
	dashboard Dashboard
	catalog   Catalog
	codes     CodeGenerator
	log       *slog.Logger
}

// NewAdminService создает новый экземпляр Service.
func NewAdminService(repo Repository, dashboard Dashboard, catalog Catalog, codes CodeGenerator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		dashboard: dashboard,
		catalog:   catalog,
		codes:     codes,
		log:       log,
	}
}

// GetDashboardAnalytics возвращает аналитику за последние days дней.
func (s *Service) GetDashboardAnalytics(ctx context.Context, days int) (*models.Dashboard, error) {
	const op = "admin.GetDashboardAnalytics"

	res, err := s.dashboard.GetDashboardAnalytics(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetDevices возвращает страницу устройств с владельцами.
// Поиск идёт по отпечатку, email и имени владельца.
func (s *Service) GetDevices(ctx context.Context, page, limit int, search string) (*models.Page[models.DeviceWithOwner], error) {
	const op = "admin.GetDevices"

	page, limit = normalizePage(page, limit)
	offset := models.Pagination{Page: page, Limit: limit}.Offset()

	devices, total, err := s.repo.ListDevices(ctx, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Page[models.DeviceWithOwner]{
		Data:       devices,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetLicenses возвращает страницу лицензий с фильтром по типу и статусу оплаты.
func (s *Service) GetLicenses(ctx context.Context, page, limit int, filter models.LicenseFilter) (*models.Page[models.LicenseWithOwner], error) {
	const op = "admin.GetLicenses"

	page, limit = normalizePage(page, limit)
	offset := models.Pagination{Page: page, Limit: limit}.Offset()

	licenses, total, err := s.repo.ListLicenses(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Page[models.LicenseWithOwner]{
		Data:       licenses,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// CreateLicense выпускает лицензию вручную. Владелец должен существовать.
func (s *Service) CreateLicense(ctx context.Context, req models.CreateLicenseRequest) (*models.License, error) {
	const op = "admin.CreateLicense"

	if _, err := s.repo.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, services.NotFound(msgUserNotFound))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	license := models.License{
		LicenseKey:        req.LicenseKey,
		DeviceFingerprint: req.DeviceFingerprint,
		UnlockCode:        req.UnlockCode,
		Type:              req.Type,
		ExpiresAt:         req.ExpiresAt.UTC(),
		Active:            true,
		PaymentStatus:     models.PaymentPending,
		Amount:            req.Amount,
		PaymentReference:  req.PaymentReference,
		UserID:            req.UserID,
	}
	if license.LicenseKey == "" {
		license.LicenseKey = uuid.NewString()
	}
	if license.UnlockCode == "" {
		license.UnlockCode = s.codes.Generate(req.DeviceFingerprint)
	}
	if req.Active != nil {
		license.Active = *req.Active
	}
	if req.PaymentStatus != "" {
		license.PaymentStatus = req.PaymentStatus
	}

	created, err := s.repo.CreateLicense(ctx, license)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%s: %w", op, services.Conflict(msgLicenseTaken))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("license created by admin",
		slog.String("license_id", created.ID),
		slog.String("user_id", created.UserID),
		slog.String("type", created.Type),
	)
	return created, nil
}

// UpdateLicense меняет тип, срок, активность и сведения об оплате.
func (s *Service) UpdateLicense(ctx context.Context, id string, req models.UpdateLicenseRequest) (*models.License, error) {
	const op = "admin.UpdateLicense"

	license, err := s.license(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.Type != nil {
		license.Type = *req.Type
	}
	if req.ExpiresAt != nil {
		license.ExpiresAt = req.ExpiresAt.UTC()
	}
	if req.Active != nil {
		license.Active = *req.Active
	}
	if req.PaymentStatus != nil {
		license.PaymentStatus = *req.PaymentStatus
	}
	if req.Amount != nil {
		license.Amount = req.Amount
	}
	if req.PaymentReference != nil {
		license.PaymentReference = req.PaymentReference
	}

	if err := s.repo.UpdateLicense(ctx, *license); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, services.NotFound(msgLicenseNotFound))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.license(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteLicense безвозвратно удаляет лицензию. Журнал проверок не затрагивается.
func (s *Service) DeleteLicense(ctx context.Context, id string) (*models.DeleteResponse, error) {
	const op = "admin.DeleteLicense"

	err := s.repo.DeleteLicense(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.NotFound(msgLicenseNotFound))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("license deleted by admin", slog.String("license_id", id))
	return &models.DeleteResponse{Message: "License deleted successfully", ID: id}, nil
}

func (s *Service) license(ctx context.Context, id string) (*models.License, error) {
	license, err := s.repo.GetLicenseByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, services.NotFound(msgLicenseNotFound)
	}
	if err != nil {
		return nil, err
	}
	return license, nil
}

func (s *Service) invalidate(versionIDs ...string) {
	if s.catalog == nil {
		return
	}
	s.catalog.InvalidateCatalog(versionIDs...)
	s.log.Debug("version catalog invalidated", slog.Any("version_ids", versionIDs))
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}
