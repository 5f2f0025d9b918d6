package version

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-server/internal/cache"
	"github.com/magabrotheeeer/license-server/internal/config"
	"github.com/magabrotheeeer/license-server/internal/models"
	"github.com/magabrotheeeer/license-server/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetLatestActiveVersion(ctx context.Context) (*models.Version, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Version), args.Error(1)
}

func (m *RepoMock) ListVersions(ctx context.Context, activeOnly bool) ([]models.Version, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Version), args.Error(1)
}

func (m *RepoMock) ListVersionFiles(ctx context.Context, versionID string, activeOnly bool) ([]models.VersionFile, error) {
	args := m.Called(ctx, versionID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VersionFile), args.Error(1)
}

func (m *RepoMock) CreateVersionCheck(ctx context.Context, c models.VersionCheck) error {
	return m.Called(ctx, c).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(keys ...string) error {
	return m.Called(keys).Error(0)
}

type metricsSpy struct{ checks []bool }

func (m *metricsSpy) VersionChecked(updateAvailable bool) { m.checks = append(m.checks, updateAvailable) }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func strPtr(s string) *string { return &s }

func latestVersion() *models.Version {
	size := int64(1024)
	return &models.Version{
		ID:              "ver-2",
		Version:         "1.2.0",
		ReleaseNotes:    strPtr("Bug fixes"),
		DownloadURL:     "https://cdn.example.com/app-1.2.0.zip",
		Mandatory:       true,
		Active:          true,
		FileSize:        &size,
		Checksum:        strPtr("abc123"),
		RequiredVersion: strPtr("1.0.0"),
		ReleaseDate:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestService_CheckVersion(t *testing.T) {
	files := []models.VersionFile{
		{ID: "f-1", FileName: "app.exe", FileType: models.FileExecutable, Priority: 0, Active: true},
		{ID: "f-2", FileName: "data.db", FileType: models.FileDatabase, Priority: 5, Active: true},
	}

	tests := []struct {
		name        string
		current     string
		latest      *models.Version
		wantUpdate  bool
		wantMessage string
		wantLatest  *string
		wantFiles   int
	}{
		{name: "доступно обновление", current: "1.1.9", latest: latestVersion(), wantUpdate: true, wantLatest: strPtr("1.2.0"), wantFiles: 2},
		{name: "та же версия", current: "1.2.0", latest: latestVersion(), wantLatest: strPtr("1.2.0")},
		{name: "версия новее опубликованной", current: "1.10.0", latest: latestVersion(), wantLatest: strPtr("1.2.0")},
		{name: "короткая запись версии", current: "1.2", latest: latestVersion(), wantLatest: strPtr("1.2.0")},
		{name: "нет версий", current: "1.0.0", wantMessage: "No versions available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			metrics := &metricsSpy{}
			if tt.latest != nil {
				repo.On("GetLatestActiveVersion", mock.Anything).Return(tt.latest, nil).Once()
			} else {
				repo.On("GetLatestActiveVersion", mock.Anything).Return(nil, repository.ErrNotFound).Once()
			}
			if tt.wantUpdate {
				repo.On("ListVersionFiles", mock.Anything, "ver-2", true).Return(files, nil).Once()
			}
			repo.On("CreateVersionCheck", mock.Anything, mock.MatchedBy(func(c models.VersionCheck) bool {
				return c.CurrentVersion == tt.current &&
					c.UpdateAvailable == tt.wantUpdate &&
					assert.ObjectsAreEqual(tt.wantLatest, c.LatestVersion)
			})).Return(nil).Once()

			svc := NewVersionService(repo, cache.Noop{}, time.Minute, metrics, newNoopLogger())
			resp, err := svc.CheckVersion(context.Background(), models.CheckVersionRequest{CurrentVersion: tt.current}, models.RequestMeta{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantUpdate, resp.UpdateAvailable)
			assert.Equal(t, tt.current, resp.CurrentVersion)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, tt.wantLatest, resp.LatestVersion)
			assert.Len(t, resp.Files, tt.wantFiles)
			assert.Equal(t, []bool{tt.wantUpdate}, metrics.checks)

			if tt.wantUpdate {
				assert.True(t, resp.Mandatory)
				assert.Equal(t, "https://cdn.example.com/app-1.2.0.zip", *resp.DownloadURL)
				assert.Equal(t, "Bug fixes", *resp.ReleaseNotes)
				assert.Equal(t, int64(1024), *resp.FileSize)
				assert.Equal(t, "1.0.0", *resp.RequiredVersion)
				assert.Equal(t, "app.exe", resp.Files[0].FileName)
				assert.Equal(t, 5, resp.Files[1].Priority)
			} else {
				assert.False(t, resp.Mandatory)
				assert.Nil(t, resp.DownloadURL)
				assert.Nil(t, resp.ReleaseNotes)
				assert.Nil(t, resp.FileSize)
				assert.Nil(t, resp.Checksum)
				assert.Nil(t, resp.RequiredVersion)
				assert.Nil(t, resp.ReleaseDate)
				assert.NotNil(t, resp.Files)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_CheckVersion_OptionalIdentifiers(t *testing.T) {
	userID := uuid.NewString()

	tests := []struct {
		name       string
		req        models.CheckVersionRequest
		wantUserID *string
		wantFP     *string
	}{
		{
			name:       "uuid и отпечаток сохраняются",
			req:        models.CheckVersionRequest{CurrentVersion: "1.0.0", UserID: userID, DeviceFingerprint: "1234567890-123456"},
			wantUserID: &userID,
			wantFP:     strPtr("1234567890-123456"),
		},
		{
			name: "некорректный user_id отбрасывается",
			req:  models.CheckVersionRequest{CurrentVersion: "1.0.0", UserID: "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetLatestActiveVersion", mock.Anything).Return(nil, repository.ErrNotFound).Once()
			repo.On("CreateVersionCheck", mock.Anything, mock.MatchedBy(func(c models.VersionCheck) bool {
				return assert.ObjectsAreEqual(tt.wantUserID, c.UserID) &&
					assert.ObjectsAreEqual(tt.wantFP, c.DeviceFingerprint) &&
					c.LatestVersion == nil
			})).Return(nil).Once()

			svc := NewVersionService(repo, cache.Noop{}, time.Minute, &metricsSpy{}, newNoopLogger())
			_, err := svc.CheckVersion(context.Background(), tt.req, models.RequestMeta{})
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_CheckVersion_Errors(t *testing.T) {
	t.Run("ошибка чтения последней версии", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetLatestActiveVersion", mock.Anything).Return(nil, errors.New("db down")).Once()
		svc := NewVersionService(repo, cache.Noop{}, time.Minute, &metricsSpy{}, newNoopLogger())

		_, err := svc.CheckVersion(context.Background(), models.CheckVersionRequest{CurrentVersion: "1.0.0"}, models.RequestMeta{})
		require.Error(t, err)
		repo.AssertNotCalled(t, "CreateVersionCheck", mock.Anything, mock.Anything)
	})

	t.Run("ошибка записи журнала", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetLatestActiveVersion", mock.Anything).Return(latestVersion(), nil).Once()
		repo.On("CreateVersionCheck", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
		svc := NewVersionService(repo, cache.Noop{}, time.Minute, &metricsSpy{}, newNoopLogger())

		_, err := svc.CheckVersion(context.Background(), models.CheckVersionRequest{CurrentVersion: "1.0.0"}, models.RequestMeta{})
		require.Error(t, err)
	})

	t.Run("ошибка кеша не мешает ответу", func(t *testing.T) {
		repo := new(RepoMock)
		c := new(CacheMock)
		c.On("Get", keyLatest, mock.Anything).Return(false, errors.New("redis down")).Once()
		c.On("Set", keyLatest, mock.Anything, time.Minute).Return(errors.New("redis down")).Once()
		repo.On("GetLatestActiveVersion", mock.Anything).Return(latestVersion(), nil).Once()
		repo.On("CreateVersionCheck", mock.Anything, mock.Anything).Return(nil).Once()
		svc := NewVersionService(repo, c, time.Minute, &metricsSpy{}, newNoopLogger())

		resp, err := svc.CheckVersion(context.Background(), models.CheckVersionRequest{CurrentVersion: "1.2.0"}, models.RequestMeta{})
		require.NoError(t, err)
		assert.False(t, resp.UpdateAvailable)
	})
}

func newRedisCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestService_CatalogCache(t *testing.T) {
	repo := new(RepoMock)
	versions := []models.Version{*latestVersion()}
	files := []models.VersionFile{{ID: "f-1", VersionID: "ver-2", FileName: "app.exe", Active: true}}

	repo.On("ListVersions", mock.Anything, true).Return(versions, nil).Twice()
	repo.On("ListVersionFiles", mock.Anything, "ver-2", true).Return(files, nil).Twice()

	svc := NewVersionService(repo, newRedisCache(t), time.Minute, &metricsSpy{}, newNoopLogger())
	ctx := context.Background()

	for range 3 {
		got, err := svc.GetAllVersions(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "1.2.0", got[0].Version)

		gotFiles, err := svc.GetVersionFiles(ctx, "ver-2")
		require.NoError(t, err)
		assert.Equal(t, files, gotFiles)
	}
	repo.AssertNumberOfCalls(t, "ListVersions", 1)
	repo.AssertNumberOfCalls(t, "ListVersionFiles", 1)

	svc.InvalidateCatalog("ver-2")

	_, err := svc.GetAllVersions(ctx)
	require.NoError(t, err)
	_, err = svc.GetVersionFiles(ctx, "ver-2")
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "ListVersions", 2)
	repo.AssertNumberOfCalls(t, "ListVersionFiles", 2)
}

func TestService_GetVersionFiles_InvalidID(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListVersionFiles", mock.Anything, "bad", true).Return(nil, repository.ErrNotFound).Once()
	svc := NewVersionService(repo, cache.Noop{}, time.Minute, &metricsSpy{}, newNoopLogger())

	files, err := svc.GetVersionFiles(context.Background(), "bad")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestService_InvalidateCatalog(t *testing.T) {
	c := new(CacheMock)
	c.On("Invalidate", []string{keyLatest, keyActive, "versions:files:a", "versions:files:b"}).Return(nil).Once()
	svc := NewVersionService(new(RepoMock), c, time.Minute, &metricsSpy{}, newNoopLogger())

	svc.InvalidateCatalog("a", "b")
	c.AssertExpectations(t)
}
