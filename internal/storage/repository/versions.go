package repository

import (
	"context"

	"github.com/magabrotheeeer/license-server/internal/models"
)

const versionColumns = `id, version, release_notes, download_url, mandatory, active, file_size,
	checksum, required_version, release_date, created_at, updated_at`

func scanVersion(row scanner) (*models.Version, error) {
	var v models.Version
	if err := row.Scan(&v.ID, &v.Version, &v.ReleaseNotes, &v.DownloadURL, &v.Mandatory,
		&v.Active, &v.FileSize, &v.Checksum, &v.RequiredVersion, &v.ReleaseDate,
		&v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVersion сохраняет версию приложения.
func (s *Storage) CreateVersion(ctx context.Context, version models.Version) (*models.Version, error) {
	const op = "storage.CreateVersion"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO versions (version, release_notes, download_url, mandatory, active,
			      file_size, checksum, required_version, release_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + versionColumns
	v, err := scanVersion(s.DB.QueryRowContext(ctx, query,
		version.Version, version.ReleaseNotes, version.DownloadURL, version.Mandatory,
		version.Active, version.FileSize, version.Checksum, version.RequiredVersion,
		version.ReleaseDate))
	if err != nil {
		return nil, wrap(op, err)
	}
	return v, nil
}

// GetVersionByID возвращает версию по id.
func (s *Storage) GetVersionByID(ctx context.Context, id string) (*models.Version, error) {
	const op = "storage.GetVersionByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	v, err := scanVersion(s.DB.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM versions WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return v, nil
}

// GetVersionByString возвращает версию по строке версии.
func (s *Storage) GetVersionByString(ctx context.Context, version string) (*models.Version, error) {
	const op = "storage.GetVersionByString"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	v, err := scanVersion(s.DB.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM versions WHERE version = $1`, version))
	if err != nil {
		return nil, wrap(op, err)
	}
	return v, nil
}

// GetLatestActiveVersion возвращает последнюю созданную активную версию.
func (s *Storage) GetLatestActiveVersion(ctx context.Context) (*models.Version, error) {
	const op = "storage.GetLatestActiveVersion"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + versionColumns + ` FROM versions
			  WHERE active = TRUE
			  ORDER BY created_at DESC
			  LIMIT 1`
	v, err := scanVersion(s.DB.QueryRowContext(ctx, query))
	if err != nil {
		return nil, wrap(op, err)
	}
	return v, nil
}

// ListVersions возвращает версии, новые первыми. При activeOnly только активные.
func (s *Storage) ListVersions(ctx context.Context, activeOnly bool) ([]models.Version, error) {
	const op = "storage.ListVersions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + versionColumns + ` FROM versions
			  WHERE ($1 = FALSE OR active = TRUE)
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Version, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, *v)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateVersion сохраняет изменяемые поля версии.
func (s *Storage) UpdateVersion(ctx context.Context, version models.Version) error {
	const op = "storage.UpdateVersion"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE versions
			  SET version = $1, release_notes = $2, download_url = $3, mandatory = $4,
			      active = $5, file_size = $6, checksum = $7, required_version = $8,
			      release_date = $9, updated_at = NOW()
			  WHERE id = $10`
	res, err := s.DB.ExecContext(ctx, query,
		version.Version, version.ReleaseNotes, version.DownloadURL, version.Mandatory,
		version.Active, version.FileSize, version.Checksum, version.RequiredVersion,
		version.ReleaseDate, version.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectAffected(op, res)
}

// DeleteVersion удаляет версию вместе с её файлами.
func (s *Storage) DeleteVersion(ctx context.Context, id string) error {
	const op = "storage.DeleteVersion"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM versions WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return expectAffected(op, res)
}

// CreateVersionCheck добавляет запись в журнал проверок обновлений.
func (s *Storage) CreateVersionCheck(ctx context.Context, c models.VersionCheck) error {
	const op = "storage.CreateVersionCheck"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO version_checks (user_id, device_fingerprint, current_version,
			      latest_version, update_available, ip_address, user_agent, country, city)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := s.DB.ExecContext(ctx, query,
		c.UserID, c.DeviceFingerprint, c.CurrentVersion, c.LatestVersion, c.UpdateAvailable,
		c.IPAddress, c.UserAgent, c.Country, c.City); err != nil {
		return wrap(op, err)
	}
	return nil
}
