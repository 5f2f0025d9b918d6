// Package auth проверяет учётные данные, выпускает JWT и создаёт
// первого администратора при запуске сервера.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/license-server/internal/lib/jwt"
	"github.com/magabrotheeeer/license-server/internal/lib/password"
	"github.com/magabrotheeeer/license-server/internal/lib/sl"
	"github.com/magabrotheeeer/license-server/internal/models"
	"github.com/magabrotheeeer/license-server/internal/services"
	"github.com/magabrotheeeer/license-server/internal/storage/repository"
)

const msgInvalidCredentials = "Invalid credentials"

// UserRepository описывает методы хранилища пользователей, нужные аутентификации.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	ExistsUserWithRole(ctx context.Context, role string) (bool, error)
}

// UserDirectory создаёт покупателей при регистрации.
type UserDirectory interface {
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
}

// Service отвечает за вход, регистрацию и профиль текущего пользователя.
type Service struct {
	users    UserRepository
	dir      UserDirectory
	jwtMaker jwt.Maker
	log      *slog.Logger
	now      func() time.Time
}

// NewAuthService создает новый экземпляр Service.
func NewAuthService(users UserRepository, dir UserDirectory, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		dir:      dir,
		jwtMaker: jwtMaker,
		log:      log,
		now:      time.Now,
	}
}

// ValidateUser возвращает активного пользователя, если пароль совпадает с хешем.
// Любая неудача даёт ErrUnauthorized.
func (s *Service) ValidateUser(ctx context.Context, email, rawPassword string) (*models.User, error) {
	const op = "auth.ValidateUser"

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.Unauthorized(msgInvalidCredentials))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.Active {
		return nil, fmt.Errorf("%s: %w", op, services.Unauthorized(msgInvalidCredentials))
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, services.Unauthorized(msgInvalidCredentials))
	}
	return user, nil
}

// Login проверяет учётные данные, фиксирует время входа и выпускает токен.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	const op = "auth.Login"

	user, err := s.ValidateUser(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("user_id", user.ID))
	return resp, nil
}

// Register создаёт покупателя и сразу выпускает для него токен.
func (s *Service) Register(ctx context.Context, req models.CreateUserRequest) (*models.AuthResponse, error) {
	const op = "auth.Register"

	user, err := s.dir.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// Me возвращает профиль активного владельца токена.
func (s *Service) Me(ctx context.Context, userID string) (*models.MeResponse, error) {
	const op = "auth.Me"

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.Unauthorized("User not found"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.Active {
		return nil, fmt.Errorf("%s: %w", op, services.Unauthorized("User is inactive"))
	}

	return &models.MeResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		LastLogin: user.LastLogin,
	}, nil
}

// Logout подтверждает выход. Токены не хранятся на сервере.
func (s *Service) Logout(_ context.Context) models.LogoutResponse {
	return models.LogoutResponse{
		Message:   "Logout successful",
		Timestamp: s.now().UTC(),
	}
}

func (s *Service) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.log.Error("failed to generate token", sl.Err(err))
		return nil, err
	}
	return &models.AuthResponse{
		AccessToken: token,
		User: models.AuthUser{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      user.Role,
		},
	}, nil
}
