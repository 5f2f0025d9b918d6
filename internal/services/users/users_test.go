package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-server/internal/lib/password"
	"github.com/magabrotheeeer/license-server/internal/models"
	"github.com/magabrotheeeer/license-server/internal/services"
	"github.com/magabrotheeeer/license-server/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) ListActiveUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int, error) {
	args := m.Called(ctx, search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.User), args.Int(1), args.Error(2)
}

func (m *RepoMock) UpdateUser(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *RepoMock) SetUserActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func activeUser(id string) *models.User {
	return &models.User{
		ID:        id,
		Email:     "ivan@example.com",
		FirstName: "Ivan",
		LastName:  "Petrov",
		Role:      models.RoleCustomer,
		Active:    true,
	}
}

func TestService_Create(t *testing.T) {
	req := models.CreateUserRequest{
		Email:     "ivan@example.com",
		Password:  "secret123",
		FirstName: "Ivan",
		LastName:  "Petrov",
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantKind   error
	}{
		{
			name: "успешное создание",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, req.Email).Return(nil, repository.ErrNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == req.Email &&
						u.Role == models.RoleCustomer &&
						u.Active &&
						password.CompareHash(u.PasswordHash, req.Password) == nil
				})).Return(activeUser("u-1"), nil).Once()
			},
		},
		{
			name: "email уже занят",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, req.Email).Return(activeUser("u-0"), nil).Once()
			},
			wantKind: services.ErrConflict,
		},
		{
			name: "гонка при вставке дает конфликт",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, req.Email).Return(nil, repository.ErrNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).Return(nil, repository.ErrDuplicate).Once()
			},
			wantKind: services.ErrConflict,
		},
		{
			name: "ошибка базы при проверке email",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, req.Email).Return(nil, errors.New("db down")).Once()
			},
			wantKind: errors.New("any"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := NewUsersService(repo, newNoopLogger())

			user, err := svc.Create(context.Background(), req)
			switch {
			case tt.wantKind == nil:
				require.NoError(t, err)
				assert.Equal(t, "u-1", user.ID)
			case errors.Is(tt.wantKind, services.ErrConflict):
				require.ErrorIs(t, err, services.ErrConflict)
				msg, ok := services.Message(err)
				assert.True(t, ok)
				assert.Equal(t, "User with this email already exists", msg)
			default:
				require.Error(t, err)
				assert.NotErrorIs(t, err, services.ErrConflict)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_FindAll(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		search     string
		wantLimit  int
		wantOffset int
		total      int
		wantPages  int
	}{
		{name: "значения по умолчанию", page: 0, limit: 0, wantLimit: 10, wantOffset: 0, total: 25, wantPages: 3},
		{name: "третья страница", page: 3, limit: 5, search: "ivan", wantLimit: 5, wantOffset: 10, total: 11, wantPages: 3},
		{name: "пустой результат", page: 1, limit: 10, total: 0, wantLimit: 10, wantOffset: 0, wantPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("ListActiveUsers", mock.Anything, tt.search, tt.wantLimit, tt.wantOffset).
				Return([]models.User{*activeUser("u-1")}, tt.total, nil).Once()
			svc := NewUsersService(repo, newNoopLogger())

			page, err := svc.FindAll(context.Background(), tt.page, tt.limit, tt.search)
			require.NoError(t, err)
			assert.Len(t, page.Data, 1)
			assert.Equal(t, tt.total, page.Pagination.Total)
			assert.Equal(t, tt.wantLimit, page.Pagination.Limit)
			assert.Equal(t, tt.wantPages, page.Pagination.Pages)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_FindOne(t *testing.T) {
	inactive := activeUser("u-2")
	inactive.Active = false

	tests := []struct {
		name    string
		id      string
		user    *models.User
		repoErr error
		wantErr error
	}{
		{name: "активный пользователь", id: "u-1", user: activeUser("u-1")},
		{name: "неактивный пользователь скрыт", id: "u-2", user: inactive, wantErr: services.ErrNotFound},
		{name: "нет в базе", id: "u-3", repoErr: repository.ErrNotFound, wantErr: services.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			if tt.user != nil {
				repo.On("GetUserByID", mock.Anything, tt.id).Return(tt.user, nil).Once()
			} else {
				repo.On("GetUserByID", mock.Anything, tt.id).Return(nil, tt.repoErr).Once()
			}
			svc := NewUsersService(repo, newNoopLogger())

			user, err := svc.FindOne(context.Background(), tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, user.ID)
		})
	}
}

func TestService_Update(t *testing.T) {
	newEmail := "new@example.com"
	newPassword := "changed123"
	newName := "Petr"

	t.Run("смена email, пароля и имени", func(t *testing.T) {
		repo := new(RepoMock)
		stored := activeUser("u-1")
		repo.On("GetUserByID", mock.Anything, "u-1").Return(stored, nil)
		repo.On("GetUserByEmail", mock.Anything, newEmail).Return(nil, repository.ErrNotFound).Once()
		repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Email == newEmail &&
				u.FirstName == newName &&
				u.LastName == "Petrov" &&
				password.CompareHash(u.PasswordHash, newPassword) == nil
		})).Return(nil).Once()
		svc := NewUsersService(repo, newNoopLogger())

		_, err := svc.Update(context.Background(), "u-1", models.UpdateUserRequest{
			Email:     &newEmail,
			Password:  &newPassword,
			FirstName: &newName,
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("email занят другим пользователем", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByID", mock.Anything, "u-1").Return(activeUser("u-1"), nil).Once()
		repo.On("GetUserByEmail", mock.Anything, newEmail).Return(activeUser("u-9"), nil).Once()
		svc := NewUsersService(repo, newNoopLogger())

		_, err := svc.Update(context.Background(), "u-1", models.UpdateUserRequest{Email: &newEmail})
		require.ErrorIs(t, err, services.ErrConflict)
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("тот же email не проверяется", func(t *testing.T) {
		repo := new(RepoMock)
		same := "ivan@example.com"
		repo.On("GetUserByID", mock.Anything, "u-1").Return(activeUser("u-1"), nil)
		repo.On("UpdateUser", mock.Anything, mock.Anything).Return(nil).Once()
		svc := NewUsersService(repo, newNoopLogger())

		_, err := svc.Update(context.Background(), "u-1", models.UpdateUserRequest{Email: &same})
		require.NoError(t, err)
		repo.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})

	t.Run("неактивный пользователь", func(t *testing.T) {
		repo := new(RepoMock)
		inactive := activeUser("u-1")
		inactive.Active = false
		repo.On("GetUserByID", mock.Anything, "u-1").Return(inactive, nil).Once()
		svc := NewUsersService(repo, newNoopLogger())

		_, err := svc.Update(context.Background(), "u-1", models.UpdateUserRequest{FirstName: &newName})
		require.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestService_Remove(t *testing.T) {
	t.Run("мягкое удаление", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByID", mock.Anything, "u-1").Return(activeUser("u-1"), nil).Once()
		repo.On("SetUserActive", mock.Anything, "u-1", false).Return(nil).Once()
		svc := NewUsersService(repo, newNoopLogger())

		require.NoError(t, svc.Remove(context.Background(), "u-1"))
		repo.AssertExpectations(t)
	})

	t.Run("пользователь не найден", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByID", mock.Anything, "u-1").Return(nil, repository.ErrNotFound).Once()
		svc := NewUsersService(repo, newNoopLogger())

		require.ErrorIs(t, svc.Remove(context.Background(), "u-1"), services.ErrNotFound)
		repo.AssertNotCalled(t, "SetUserActive", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_ToggleStatus(t *testing.T) {
	tests := []struct {
		name       string
		active     bool
		wantActive bool
	}{
		{name: "деактивация", active: true, wantActive: false},
		{name: "повторная активация", active: false, wantActive: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			user := activeUser("u-1")
			user.Active = tt.active
			repo.On("GetUserByID", mock.Anything, "u-1").Return(user, nil).Once()
			repo.On("SetUserActive", mock.Anything, "u-1", tt.wantActive).Return(nil).Once()
			svc := NewUsersService(repo, newNoopLogger())

			got, err := svc.ToggleStatus(context.Background(), "u-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantActive, got.Active)
			repo.AssertExpectations(t)
		})
	}

	t.Run("не найден", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByID", mock.Anything, "u-x").Return(nil, repository.ErrNotFound).Once()
		svc := NewUsersService(repo, newNoopLogger())

		_, err := svc.ToggleStatus(context.Background(), "u-x")
		require.ErrorIs(t, err, services.ErrNotFound)
	})
}
