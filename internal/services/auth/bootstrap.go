package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/license-server/internal/lib/password"
	"github.com/magabrotheeeer/license-server/internal/lib/sl"
	"github.com/magabrotheeeer/license-server/internal/models"
)

// BootstrapAdmin создаёт суперадминистратора, если в системе нет ни одного.
// Возвращает true, если пользователь был создан.
func (s *Service) BootstrapAdmin(ctx context.Context, email, rawPassword string) (bool, error) {
	const op = "auth.BootstrapAdmin"

	exists, err := s.users.ExistsUserWithRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return false, nil
	}

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.users.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Super",
		LastName:     "Admin",
		Role:         models.RoleSuperAdmin,
		Active:       true,
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// RunBootstrap ждёт delay и вызывает BootstrapAdmin. Ошибки только логируются.
// Отмена ctx до истечения задержки пропускает создание.
func (s *Service) RunBootstrap(ctx context.Context, delay time.Duration, email, rawPassword string) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	created, err := s.BootstrapAdmin(ctx, email, rawPassword)
	if err != nil {
		s.log.Error("failed to bootstrap admin user", sl.Err(err))
		return
	}
	if created {
		s.log.Info("default super admin created", slog.String("email", email))
		return
	}
	s.log.Debug("super admin already exists")
}
