package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/license-server/internal/models"
)

const licenseColumns = `id, license_key, device_fingerprint, unlock_code, type, expires_at, active,
	payment_status, amount, payment_reference, user_id, created_at, updated_at`

func scanLicense(row scanner) (*models.License, error) {
	var l models.License
	if err := row.Scan(&l.ID, &l.LicenseKey, &l.DeviceFingerprint, &l.UnlockCode, &l.Type,
		&l.ExpiresAt, &l.Active, &l.PaymentStatus, &l.Amount, &l.PaymentReference, &l.UserID,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLicense сохраняет лицензию и возвращает её с заполненными id и датами.
func (s *Storage) CreateLicense(ctx context.Context, license models.License) (*models.License, error) {
	const op = "storage.CreateLicense"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO licenses (license_key, device_fingerprint, unlock_code, type, expires_at,
			      active, payment_status, amount, payment_reference, user_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + licenseColumns
	l, err := scanLicense(s.DB.QueryRowContext(ctx, query,
		license.LicenseKey, license.DeviceFingerprint, license.UnlockCode, license.Type,
		license.ExpiresAt, license.Active, license.PaymentStatus, license.Amount,
		license.PaymentReference, license.UserID))
	if err != nil {
		return nil, wrap(op, err)
	}
	return l, nil
}

// GetLicenseByID возвращает лицензию по id.
func (s *Storage) GetLicenseByID(ctx context.Context, id string) (*models.License, error) {
	const op = "storage.GetLicenseByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	l, err := scanLicense(s.DB.QueryRowContext(ctx,
		`SELECT `+licenseColumns+` FROM licenses WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return l, nil
}

// GetActiveLicenseByFingerprint возвращает активную лицензию устройства.
func (s *Storage) GetActiveLicenseByFingerprint(ctx context.Context, fingerprint string) (*models.License, error) {
	const op = "storage.GetActiveLicenseByFingerprint"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + licenseColumns + ` FROM licenses
			  WHERE device_fingerprint = $1 AND active = TRUE
			  ORDER BY created_at DESC
			  LIMIT 1`
	l, err := scanLicense(s.DB.QueryRowContext(ctx, query, fingerprint))
	if err != nil {
		return nil, wrap(op, err)
	}
	return l, nil
}

// GetLicenseByUnlockCode возвращает лицензию по точному совпадению кода и отпечатка устройства.
func (s *Storage) GetLicenseByUnlockCode(ctx context.Context, unlockCode, fingerprint string) (*models.License, error) {
	const op = "storage.GetLicenseByUnlockCode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + licenseColumns + ` FROM licenses
			  WHERE unlock_code = $1 AND device_fingerprint = $2`
	l, err := scanLicense(s.DB.QueryRowContext(ctx, query, unlockCode, fingerprint))
	if err != nil {
		return nil, wrap(op, err)
	}
	return l, nil
}

// ListLicensesByUser возвращает все лицензии пользователя, новые первыми.
func (s *Storage) ListLicensesByUser(ctx context.Context, userID string) ([]models.License, error) {
	const op = "storage.ListLicensesByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+licenseColumns+` FROM licenses
			  WHERE user_id = $1
			  ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.License, 0)
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, *l)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// ListLicenses возвращает страницу лицензий вместе с владельцами,
// с фильтром по типу и статусу оплаты.
func (s *Storage) ListLicenses(ctx context.Context, filter models.LicenseFilter, limit, offset int) ([]models.LicenseWithOwner, int, error) {
	const op = "storage.ListLicenses"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	var where []string
	var args []any
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("l.type = $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where = append(where, fmt.Sprintf("l.payment_status = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}
	from := ` FROM licenses l JOIN users u ON u.id = l.user_id`

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*)`+from+cond, args...).Scan(&total); err != nil {
		return nil, 0, wrap(op, err)
	}

	query := fmt.Sprintf(`SELECT l.id, l.license_key, l.device_fingerprint, l.unlock_code, l.type,
			      l.expires_at, l.active, l.payment_status, l.amount, l.payment_reference,
			      l.user_id, l.created_at, l.updated_at,
			      u.id, u.email, u.first_name, u.last_name, u.role
			  %s%s
			  ORDER BY l.created_at DESC
			  LIMIT $%d OFFSET $%d`, from, cond, len(args)+1, len(args)+2)
	rows, err := s.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.LicenseWithOwner, 0, limit)
	for rows.Next() {
		var l models.LicenseWithOwner
		if err = rows.Scan(&l.ID, &l.LicenseKey, &l.DeviceFingerprint, &l.UnlockCode, &l.Type,
			&l.ExpiresAt, &l.Active, &l.PaymentStatus, &l.Amount, &l.PaymentReference, &l.UserID,
			&l.CreatedAt, &l.UpdatedAt,
			&l.User.ID, &l.User.Email, &l.User.FirstName, &l.User.LastName, &l.User.Role); err != nil {
			return nil, 0, wrap(op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, wrap(op, err)
	}
	return result, total, nil
}

// ListDevices возвращает страницу устройств вместе с владельцами.
// Поиск ведётся по отпечатку устройства, email, имени и фамилии владельца.
func (s *Storage) ListDevices(ctx context.Context, search string, limit, offset int) ([]models.DeviceWithOwner, int, error) {
	const op = "storage.ListDevices"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	cond := ""
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, likePattern(search))
		cond = ` WHERE l.device_fingerprint ILIKE $1 ESCAPE '\' OR u.email ILIKE $1 ESCAPE '\'
			  OR u.first_name ILIKE $1 ESCAPE '\' OR u.last_name ILIKE $1 ESCAPE '\'`
	}
	from := ` FROM licenses l JOIN users u ON u.id = l.user_id`

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*)`+from+cond, args...).Scan(&total); err != nil {
		return nil, 0, wrap(op, err)
	}

	query := fmt.Sprintf(`SELECT l.id, l.device_fingerprint, l.type, l.active, l.expires_at,
			      l.payment_status, l.created_at, u.id, u.email, u.first_name, u.last_name, u.role
			  %s%s
			  ORDER BY l.created_at DESC
			  LIMIT $%d OFFSET $%d`, from, cond, len(args)+1, len(args)+2)
	rows, err := s.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.DeviceWithOwner, 0, limit)
	for rows.Next() {
		var d models.DeviceWithOwner
		if err = rows.Scan(&d.ID, &d.DeviceFingerprint, &d.LicenseType, &d.Active, &d.ExpiresAt,
			&d.PaymentStatus, &d.CreatedAt, &d.User.ID, &d.User.Email, &d.User.FirstName,
			&d.User.LastName, &d.User.Role); err != nil {
			return nil, 0, wrap(op, err)
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, wrap(op, err)
	}
	return result, total, nil
}

// UpdateLicense сохраняет изменяемые поля лицензии.
func (s *Storage) UpdateLicense(ctx context.Context, license models.License) error {
	const op = "storage.UpdateLicense"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE licenses
			  SET type = $1, expires_at = $2, active = $3, payment_status = $4,
			      amount = $5, payment_reference = $6, updated_at = NOW()
			  WHERE id = $7`
	res, err := s.DB.ExecContext(ctx, query,
		license.Type, license.ExpiresAt, license.Active, license.PaymentStatus,
		license.Amount, license.PaymentReference, license.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectAffected(op, res)
}

// DeleteLicense удаляет лицензию. Журнал проверок сохраняется.
func (s *Storage) DeleteLicense(ctx context.Context, id string) error {
	const op = "storage.DeleteLicense"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return expectAffected(op, res)
}

// CreateLicenseValidation добавляет запись в журнал проверок лицензий.
func (s *Storage) CreateLicenseValidation(ctx context.Context, v models.LicenseValidation) error {
	const op = "storage.CreateLicenseValidation"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO license_validations (license_id, unlock_code, device_fingerprint, result,
			      error_message, ip_address, user_agent, country, city)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := s.DB.ExecContext(ctx, query,
		v.LicenseID, v.UnlockCode, v.DeviceFingerprint, v.Result, v.ErrorMessage,
		v.IPAddress, v.UserAgent, v.Country, v.City); err != nil {
		return wrap(op, err)
	}
	return nil
}
