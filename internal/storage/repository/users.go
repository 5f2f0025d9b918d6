package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/license-server/internal/models"
)

const userColumns = `id, email, password, first_name, last_name, second_last_name, phone,
	company, personal_id, role, active, last_login, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.SecondLastName, &u.Phone, &u.Company, &u.PersonalID, &u.Role, &u.Active,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его с заполненными id и датами.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO users (email, password, first_name, last_name, second_last_name,
			      phone, company, personal_id, role, active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.SecondLastName,
		user.Phone, user.Company, user.PersonalID, user.Role, user.Active))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по id независимо от статуса активности.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email независимо от статуса активности.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// ListActiveUsers возвращает страницу активных пользователей, новые первыми.
// Поиск ведётся без учёта регистра по email, имени и фамилии.
func (s *Storage) ListActiveUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int, error) {
	const op = "storage.ListActiveUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	where := []string{"active = TRUE"}
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, likePattern(search))
		where = append(where, `(email ILIKE $1 ESCAPE '\' OR first_name ILIKE $1 ESCAPE '\' OR last_name ILIKE $1 ESCAPE '\')`)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, wrap(op, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s
			  ORDER BY created_at DESC
			  LIMIT $%d OFFSET $%d`, userColumns, cond, len(args)+1, len(args)+2)
	rows, err := s.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, wrap(op, err)
		}
		result = append(result, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, wrap(op, err)
	}
	return result, total, nil
}

// UpdateUser сохраняет изменяемые поля пользователя.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET email = $1, password = $2, first_name = $3, last_name = $4,
			      second_last_name = $5, phone = $6, company = $7, personal_id = $8,
			      updated_at = NOW()
			  WHERE id = $9`
	res, err := s.DB.ExecContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.SecondLastName,
		user.Phone, user.Company, user.PersonalID, user.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectAffected(op, res)
}

// SetUserActive меняет статус активности пользователя.
func (s *Storage) SetUserActive(ctx context.Context, id string, active bool) error {
	const op = "storage.SetUserActive"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return wrap(op, err)
	}
	return expectAffected(op, res)
}

// UpdateLastLogin фиксирует время последнего входа.
func (s *Storage) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const op = "storage.UpdateLastLogin"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return wrap(op, err)
	}
	return expectAffected(op, res)
}

// ExistsUserWithRole проверяет, есть ли хотя бы один пользователь с ролью.
func (s *Storage) ExistsUserWithRole(ctx context.Context, role string) (bool, error) {
	const op = "storage.ExistsUserWithRole"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, role).Scan(&exists); err != nil {
		return false, wrap(op, err)
	}
	return exists, nil
}
