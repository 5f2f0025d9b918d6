package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/license-server/internal/models"
	"github.com/magabrotheeeer/license-server/internal/services"
	"github.com/magabrotheeeer/license-server/internal/storage/repository"
)

const (
	msgVersionNotFound     = "Version not found"
	msgVersionExists       = "Version already exists"
	msgVersionFileNotFound = "Version file not found"
)

// GetVersions возвращает все версии, включая неактивные, новые первыми.
func (s *Service) GetVersions(ctx context.Context) ([]models.Version, error) {
	const op = "admin.GetVersions"

	versions, err := s.repo.ListVersions(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return versions, nil
}

// CreateVersion публикует версию. Повтор строки версии даёт ErrBadRequest.
func (s *Service) CreateVersion(ctx context.Context, req models.CreateVersionRequest) (*models.Version, error) {
	const op = "admin.CreateVersion"

	_, err := s.repo.GetVersionByString(ctx, req.Version)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, services.BadRequest(msgVersionExists))
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	version := models.Version{
		Version:         req.Version,
		ReleaseNotes:    req.ReleaseNotes,
		DownloadURL:     req.DownloadURL,
		Active:          true,
		FileSize:        req.FileSize,
		Checksum:        req.Checksum,
		RequiredVersion: req.RequiredVersion,
		ReleaseDate:     req.ReleaseDate.UTC(),
	}
	if req.Mandatory != nil {
		version.Mandatory = *req.Mandatory
	}
	if req.Active != nil {
		version.Active = *req.Active
	}

	created, err := s.repo.CreateVersion(ctx, version)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%s: %w", op, services.BadRequest(msgVersionExists))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate()
	s.log.Info("version created", slog.String("version", created.Version))
	return created, nil
}

// UpdateVersion частично обновляет версию. Новая строка версии должна быть свободна.
func (s *Service) UpdateVersion(ctx context.Context, id string, req models.UpdateVersionRequest) (*models.Version, error) {
	const op = "admin.UpdateVersion"

	version, err := s.version(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.Version != nil && *req.Version != version.Version {
		_, err := s.repo.GetVersionByString(ctx, *req.Version)
		if err == nil {
			return nil, fmt.Errorf("%s: %w", op, services.Conflict(msgVersionExists))
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		version.Version = *req.Version
	}
	if req.ReleaseNotes != nil {
		version.ReleaseNotes = req.ReleaseNotes
	}
	if req.DownloadURL != nil {
		version.DownloadURL = *req.DownloadURL
	}
	if req.Mandatory != nil {
		version.Mandatory = *req.Mandatory
	}
	if req.Active != nil {
		version.Active = *req.Active
	}
	if req.FileSize != nil {
		version.FileSize = req.FileSize
	}
	if req.Checksum != nil {
		version.Checksum = req.Checksum
	}
	if req.RequiredVersion != nil {
		version.RequiredVersion = req.RequiredVersion
	}
	if req.ReleaseDate != nil {
		version.ReleaseDate = req.ReleaseDate.UTC()
	}

	if err := s.saveVersion(ctx, *version); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(id)
	updated, err := s.version(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// ToggleVersionStatus переключает активность версии.
func (s *Service) ToggleVersionStatus(ctx context.Context, id string) (*models.ToggleResponse, error) {
	const op = "admin.ToggleVersionStatus"

	version, err := s.version(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	version.Active = !version.Active
	if err := s.saveVersion(ctx, *version); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(id)
	return &models.ToggleResponse{
		ID:      id,
		Active:  version.Active,
		Message: fmt.Sprintf("Version %s successfully", activation(version.Active)),
	}, nil
}

// DeleteVersion удаляет версию вместе с её файлами.
func (s *Service) DeleteVersion(ctx context.Context, id string) (*models.DeleteResponse, error) {
	const op = "admin.DeleteVersion"

	err := s.repo.DeleteVersion(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.NotFound(msgVersionNotFound))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(id)
	s.log.Info("version deleted", slog.String("version_id", id))
	return &models.DeleteResponse{Message: "Version deleted successfully", ID: id}, nil
}

// GetVersionFiles возвращает все файлы версии по возрастанию приоритета.
func (s *Service) GetVersionFiles(ctx context.Context, versionID string) ([]models.VersionFile, error) {
	const op = "admin.GetVersionFiles"

	if _, err := s.version(ctx, versionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	files, err := s.repo.ListVersionFiles(ctx, versionID, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return files, nil
}

// CreateVersionFile добавляет файл к существующей версии.
func (s *Service) CreateVersionFile(ctx context.Context, req models.CreateVersionFileRequest) (*models.VersionFile, error) {
	const op = "admin.CreateVersionFile"

	if _, err := s.version(ctx, req.VersionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	file := models.VersionFile{
		VersionID:       req.VersionID,
		FileName:        req.FileName,
		FileType:        req.FileType,
		DownloadURL:     req.DownloadURL,
		DestinationPath: req.DestinationPath,
		FileSize:        req.FileSize,
		Checksum:        req.Checksum,
		Mandatory:       true,
		Active:          true,
		Description:     req.Description,
	}
	if req.Mandatory != nil {
		file.Mandatory = *req.Mandatory
	}
	if req.Active != nil {
		file.Active = *req.Active
	}
	if req.Priority != nil {
		file.Priority = *req.Priority
	}

	created, err := s.repo.CreateVersionFile(ctx, file)
	if errors.Is(err, repository.ErrForeignKey) {
		return nil, fmt.Errorf("%s: %w", op, services.NotFound(msgVersionNotFound))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(req.VersionID)
	s.log.Info("version file created",
		slog.String("version_id", created.VersionID),
		slog.String("file_name", created.FileName),
	)
	return created, nil
}

// UpdateVersionFile частично обновляет файл версии.
func (s *Service) UpdateVersionFile(ctx context.Context, id string, req models.UpdateVersionFileRequest) (*models.VersionFile, error) {
	const op = "admin.UpdateVersionFile"

	file, err := s.versionFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.FileName != nil {
		file.FileName = *req.FileName
	}
	if req.FileType != nil {
		file.FileType = *req.FileType
	}
	if req.DownloadURL != nil {
		file.DownloadURL = *req.DownloadURL
	}
	if req.DestinationPath != nil {
		file.DestinationPath = *req.DestinationPath
	}
	if req.FileSize != nil {
		file.FileSize = req.FileSize
	}
	if req.Checksum != nil {
		file.Checksum = req.Checksum
	}
	if req.Mandatory != nil {
		file.Mandatory = *req.Mandatory
	}
	if req.Active != nil {
		file.Active = *req.Active
	}
	if req.Description != nil {
		file.Description = req.Description
	}
	if req.Priority != nil {
		file.Priority = *req.Priority
	}

	if err := s.saveVersionFile(ctx, *file); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(file.VersionID)
	updated, err := s.versionFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// ToggleVersionFileStatus переключает активность файла версии.
func (s *Service) ToggleVersionFileStatus(ctx context.Context, id string) (*models.ToggleResponse, error) {
	const op = "admin.ToggleVersionFileStatus"

	file, err := s.versionFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	file.Active = !file.Active
	if err := s.saveVersionFile(ctx, *file); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(file.VersionID)
	return &models.ToggleResponse{
		ID:      id,
		Active:  file.Active,
		Message: fmt.Sprintf("Version file %s successfully", activation(file.Active)),
	}, nil
}

// DeleteVersionFile удаляет файл версии.
func (s *Service) DeleteVersionFile(ctx context.Context, id string) (*models.DeleteResponse, error) {
	const op = "admin.DeleteVersionFile"

	file, err := s.versionFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.repo.DeleteVersionFile(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.NotFound(msgVersionFileNotFound))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(file.VersionID)
	return &models.DeleteResponse{Message: "Version file deleted successfully", ID: id}, nil
}

func (s *Service) version(ctx context.Context, id string) (*models.Version, error) {
	version, err := s.repo.GetVersionByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, services.NotFound(msgVersionNotFound)
	}
	if err != nil {
		return nil, err
	}
	return version, nil
}

func (s *Service) saveVersion(ctx context.Context, version models.Version) error {
	err := s.repo.UpdateVersion(ctx, version)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return services.NotFound(msgVersionNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return services.Conflict(msgVersionExists)
	}
	return err
}

func (s *Service) versionFile(ctx context.Context, id string) (*models.VersionFile, error) {
	file, err := s.repo.GetVersionFileByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, services.NotFound(msgVersionFileNotFound)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *Service) saveVersionFile(ctx context.Context, file models.VersionFile) error {
	err := s.repo.UpdateVersionFile(ctx, file)
	if errors.Is(err, repository.ErrNotFound) {
		return services.NotFound(msgVersionFileNotFound)
	}
	return err
}

func activation(active bool) string {
	if active {
		return "activated"
	}
	return "deactivated"
}
