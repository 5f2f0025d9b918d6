package repository

import (
	"context"

	"github.com/magabrotheeeer/license-server/internal/models"
)

const versionFileColumns = `id, version_id, file_name, file_type, download_url, destination_path,
	file_size, checksum, mandatory, active, description, priority, created_at, updated_at`

func scanVersionFile(row scanner) (*models.VersionFile, error) {
	var f models.VersionFile
	if err := row.Scan(&f.ID, &f.VersionID, &f.FileName, &f.FileType, &f.DownloadURL,
		&f.DestinationPath, &f.FileSize, &f.Checksum, &f.Mandatory, &f.Active,
		&f.Description, &f.Priority, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateVersionFile сохраняет файл версии.
func (s *Storage) CreateVersionFile(ctx context.Context, file models.VersionFile) (*models.VersionFile, error) {
	const op = "storage.CreateVersionFile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO version_files (version_id, file_name, file_type, download_url,
			      destination_path, file_size, checksum, mandatory, active, description, priority)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING ` + versionFileColumns
	f, err := scanVersionFile(s.DB.QueryRowContext(ctx, query,
		file.VersionID, file.FileName, file.FileType, file.DownloadURL, file.DestinationPath,
		file.FileSize, file.Checksum, file.Mandatory, file.Active, file.Description, file.Priority))
	if err != nil {
		return nil, wrap(op, err)
	}
	return f, nil
}

// GetVersionFileByID возвращает файл версии по id.
func (s *Storage) GetVersionFileByID(ctx context.Context, id string) (*models.VersionFile, error) {
	const op = "storage.GetVersionFileByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	f, err := scanVersionFile(s.DB.QueryRowContext(ctx,
		`SELECT `+versionFileColumns+` FROM version_files WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return f, nil
}

// ListVersionFiles возвращает файлы версии по возрастанию приоритета.
// При activeOnly только активные.
func (s *Storage) ListVersionFiles(ctx context.Context, versionID string, activeOnly bool) ([]models.VersionFile, error) {
	const op = "storage.ListVersionFiles"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + versionFileColumns + ` FROM version_files
			  WHERE version_id = $1 AND ($2 = FALSE OR active = TRUE)
			  ORDER BY priority ASC, created_at ASC`
	rows, err := s.DB.QueryContext(ctx, query, versionID, activeOnly)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.VersionFile, 0)
	for rows.Next() {
		f, err := scanVersionFile(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, *f)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateVersionFile сохраняет изменяемые поля файла версии.
func (s *Storage) UpdateVersionFile(ctx context.Context, file models.VersionFile) error {
	const op = "storage.UpdateVersionFile"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE version_files
			  SET file_name = $1, file_type = $2, download_url = $3, destination_path = $4,
			      file_size = $5, checksum = $6, mandatory = $7, active = $8,
			      description = $9, priority = $10, updated_at = NOW()
			  WHERE id = $11`
	res, err := s.DB.ExecContext(ctx, query,
		file.FileName, file.FileType, file.DownloadURL, file.DestinationPath, file.FileSize,
		file.Checksum, file.Mandatory, file.Active, file.Description, file.Priority, file.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectAffected(op, res)
}

// DeleteVersionFile удаляет файл версии.
func (s *Storage) DeleteVersionFile(ctx context.Context, id string) error {
	const op = "storage.DeleteVersionFile"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM version_files WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return expectAffected(op, res)
}
