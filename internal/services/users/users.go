// Package users реализует справочник пользователей: создание, постраничный
// поиск, обновление профиля и мягкое удаление учётных записей.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/license-server/internal/lib/password"
	"github.com/magabrotheeeer/license-server/internal/lib/sl"
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
	msgUserNotFound = "User not found"
	msgEmailTaken   = "User with this email already exists"
)

// Repository описывает методы хранилища, нужные справочнику.
type Repository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListActiveUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int, error)
	UpdateUser(ctx context.Context, user models.User) error
	SetUserActive(ctx context.Context, id string, active bool) error
}

// Service справочник пользователей.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewUsersService создает новый экземпляр Service.
func NewUsersService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Create регистрирует покупателя. Email должен быть уникальным.
func (s *Service) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	const op = "users.Create"

	if err := s.ensureEmailFree(ctx, op, req.Email); err != nil {
		return nil, err
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.CreateUser(ctx, models.User{
		Email:          req.Email,
		PasswordHash:   hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		SecondLastName: req.SecondLastName,
		Phone:          req.Phone,
		Company:        req.Company,
		PersonalID:     req.PersonalID,
		Role:           models.RoleCustomer,
		Active:         true,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%s: %w", op, services.Conflict(msgEmailTaken))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user created", slog.String("user_id", user.ID))
	return user, nil
}

// FindAll возвращает страницу активных пользователей, новые первыми.
func (s *Service) FindAll(ctx context.Context, page, limit int, search string) (*models.Page[models.User], error) {
	const op = "users.FindAll"

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	p := models.NewPagination(page, limit, 0)

	list, total, err := s.repo.ListActiveUsers(ctx, search, p.Limit, p.Offset())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Page[models.User]{
		Data:       list,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// FindOne возвращает активного пользователя по id.
func (s *Service) FindOne(ctx context.Context, id string) (*models.User, error) {
	const op = "users.FindOne"
	user, err := s.activeUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Update меняет профиль активного пользователя. Новый пароль хешируется заново.
func (s *Service) Update(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	const op = "users.Update"

	user, err := s.activeUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.Email != nil && *req.Email != user.Email {
		if err := s.ensureEmailFree(ctx, op, *req.Email); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := password.GetHash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		user.PasswordHash = hash
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.SecondLastName != nil {
		user.SecondLastName = req.SecondLastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Company != nil {
		user.Company = req.Company
	}
	if req.PersonalID != nil {
		user.PersonalID = req.PersonalID
	}

	err = s.repo.UpdateUser(ctx, *user)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, fmt.Errorf("%s: %w", op, services.Conflict(msgEmailTaken))
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, services.NotFound(msgUserNotFound))
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.FindOne(ctx, id)
}

// Remove деактивирует пользователя. Запись в базе сохраняется.
func (s *Service) Remove(ctx context.Context, id string) error {
	const op = "users.Remove"

	if _, err := s.activeUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.setActive(ctx, id, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deactivated", slog.String("user_id", id))
	return nil
}

// ToggleStatus переключает активность пользователя, в том числе неактивного.
func (s *Service) ToggleStatus(ctx context.Context, id string) (*models.User, error) {
	const op = "users.ToggleStatus"

	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.NotFound(msgUserNotFound))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.setActive(ctx, id, !user.Active); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.Active = !user.Active

	s.log.Info("user status toggled", slog.String("user_id", id), slog.Bool("active", user.Active))
	return user, nil
}

func (s *Service) activeUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, services.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, services.NotFound(msgUserNotFound)
	}
	return user, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, op, email string) error {
	_, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Errorf("%s: %w", op, services.Conflict(msgEmailTaken))
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		s.log.Error("failed to check email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Service) setActive(ctx context.Context, id string, active bool) error {
	err := s.repo.SetUserActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return services.NotFound(msgUserNotFound)
	}
	return err
}
