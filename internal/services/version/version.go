// Package version публикует каталог версий приложения и отвечает клиентам,
// есть ли для них обновление.
package version

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/license-server/internal/lib/semver"
	"github.com/magabrotheeeer/license-server/internal/lib/sl"
	"github.com/magabrotheeeer/license-server/internal/models"
	"github.com/magabrotheeeer/license-server/internal/storage/repository"
)

const (
	keyLatest      = "versions:latest"
	keyActive      = "versions:active"
	keyFilesPrefix = "versions:files:"
)

func keyFiles(versionID string) string {
	return keyFilesPrefix + versionID
}

// Repository описывает методы хранилища, нужные каталогу версий.
type Repository interface {
	GetLatestActiveVersion(ctx context.Context) (*models.Version, error)
	ListVersions(ctx context.Context, activeOnly bool) ([]models.Version, error)
	ListVersionFiles(ctx context.Context, versionID string, activeOnly bool) ([]models.VersionFile, error)
	CreateVersionCheck(ctx context.Context, c models.VersionCheck) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значения из кеша по ключам.
	Invalidate(keys ...string) error
}

// Metrics счётчик проверок обновлений.
type Metrics interface {
	VersionChecked(updateAvailable bool)
}

// Service каталог версий.
type Service struct {
	repo    Repository
	cache   Cache
	ttl     time.Duration
	metrics Metrics
	log     *slog.Logger
}

// NewVersionService создает новый экземпляр Service. ttl задаёт время жизни
// закешированных записей каталога.
func NewVersionService(repo Repository, cache Cache, ttl time.Duration, metrics Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		log:     log,
	}
}

// CheckVersion сравнивает версию клиента с последней активной версией.
// Каждый вызов добавляет запись в журнал проверок, даже если версий нет.
func (s *Service) CheckVersion(ctx context.Context, req models.CheckVersionRequest, meta models.RequestMeta) (*models.CheckVersionResponse, error) {
	const op = "version.CheckVersion"

	latest, err := s.latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	check := models.VersionCheck{
		UserID:            optionalUUID(req.UserID),
		DeviceFingerprint: optional(req.DeviceFingerprint),
		CurrentVersion:    req.CurrentVersion,
		RequestMeta:       meta,
	}

	resp := &models.CheckVersionResponse{
		CurrentVersion: req.CurrentVersion,
		Files:          []models.ManifestFile{},
	}
	if latest == nil {
		resp.Message = "No versions available"
	} else {
		check.LatestVersion = &latest.Version
		check.UpdateAvailable = semver.Less(req.CurrentVersion, latest.Version)
		resp.LatestVersion = &latest.Version
		resp.UpdateAvailable = check.UpdateAvailable
	}

	if err := s.repo.CreateVersionCheck(ctx, check); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.VersionChecked(resp.UpdateAvailable)

	if !resp.UpdateAvailable {
		return resp, nil
	}

	files, err := s.files(ctx, latest.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, f := range files {
		resp.Files = append(resp.Files, toManifestFile(f))
	}

	releaseDate := latest.ReleaseDate
	resp.Mandatory = latest.Mandatory
	resp.DownloadURL = &latest.DownloadURL
	resp.ReleaseNotes = latest.ReleaseNotes
	resp.FileSize = latest.FileSize
	resp.Checksum = latest.Checksum
	resp.RequiredVersion = latest.RequiredVersion
	resp.ReleaseDate = &releaseDate
	return resp, nil
}

// GetAllVersions возвращает активные версии, новые первыми.
func (s *Service) GetAllVersions(ctx context.Context) ([]models.Version, error) {
	const op = "version.GetAllVersions"

	var versions []models.Version
	if s.fromCache(keyActive, &versions) {
		return versions, nil
	}

	versions, err := s.repo.ListVersions(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(keyActive, versions)
	return versions, nil
}

// GetVersionFiles возвращает активные файлы версии по возрастанию приоритета.
func (s *Service) GetVersionFiles(ctx context.Context, versionID string) ([]models.VersionFile, error) {
	const op = "version.GetVersionFiles"

	files, err := s.files(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return files, nil
}

// InvalidateCatalog сбрасывает закешированный каталог и файлы перечисленных версий.
func (s *Service) InvalidateCatalog(versionIDs ...string) {
	keys := []string{keyLatest, keyActive}
	for _, id := range versionIDs {
		keys = append(keys, keyFiles(id))
	}
	if err := s.cache.Invalidate(keys...); err != nil {
		s.log.Warn("failed to invalidate version cache", sl.Err(err))
	}
}

func (s *Service) latest(ctx context.Context) (*models.Version, error) {
	var cached models.Version
	if s.fromCache(keyLatest, &cached) {
		return &cached, nil
	}

	latest, err := s.repo.GetLatestActiveVersion(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.toCache(keyLatest, latest)
	return latest, nil
}

func (s *Service) files(ctx context.Context, versionID string) ([]models.VersionFile, error) {
	var files []models.VersionFile
	if s.fromCache(keyFiles(versionID), &files) {
		return files, nil
	}

	files, err := s.repo.ListVersionFiles(ctx, versionID, true)
	if errors.Is(err, repository.ErrNotFound) {
		// некорректный идентификатор версии
		return []models.VersionFile{}, nil
	}
	if err != nil {
		return nil, err
	}
	s.toCache(keyFiles(versionID), files)
	return files, nil
}

func (s *Service) fromCache(key string, result any) bool {
	found, err := s.cache.Get(key, result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (s *Service) toCache(key string, value any) {
	if err := s.cache.Set(key, value, s.ttl); err != nil {
		s.log.Warn("failed to cache value", slog.String("key", key), sl.Err(err))
	}
}

func toManifestFile(f models.VersionFile) models.ManifestFile {
	return models.ManifestFile{
		ID:              f.ID,
		FileName:        f.FileName,
		FileType:        f.FileType,
		DownloadURL:     f.DownloadURL,
		DestinationPath: f.DestinationPath,
		FileSize:        f.FileSize,
		Checksum:        f.Checksum,
		Mandatory:       f.Mandatory,
		Description:     f.Description,
		Priority:        f.Priority,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optionalUUID отбрасывает идентификатор, который не является UUID.
func optionalUUID(s string) *string {
	if _, err := uuid.Parse(s); err != nil {
		return nil
	}
	return &s
}
