//go:build integration

package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/license-server/internal/migrations"
	"github.com/magabrotheeeer/license-server/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает активного тестового пользователя.
func (f *TestDataFactory) CreateUser(t *testing.T, email, firstName, lastName, role string) *models.User {
	t.Helper()
	u, err := f.storage.CreateUser(context.Background(), models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		Active:       true,
	})
	require.NoError(t, err)
	return u
}

// CreateLicense создает тестовую лицензию.
func (f *TestDataFactory) CreateLicense(t *testing.T, userID, fingerprint, unlockCode, licenseType string,
	expiresAt time.Time, active bool) *models.License {
	t.Helper()
	l, err := f.storage.CreateLicense(context.Background(), models.License{
		LicenseKey:        "key-" + unlockCode,
		DeviceFingerprint: fingerprint,
		UnlockCode:        unlockCode,
		Type:              licenseType,
		ExpiresAt:         expiresAt,
		Active:            active,
		PaymentStatus:     models.PaymentPending,
		UserID:            userID,
	})
	require.NoError(t, err)
	return l
}

// CreateVersion создает тестовую версию.
func (f *TestDataFactory) CreateVersion(t *testing.T, version string, active bool) *models.Version {
	t.Helper()
	v, err := f.storage.CreateVersion(context.Background(), models.Version{
		Version:     version,
		DownloadURL: "https://downloads.example.com/app-" + version + ".exe",
		Active:      active,
		ReleaseDate: time.Now().UTC().Truncate(time.Second),
	})
	require.NoError(t, err)
	return v
}

// CreateVersionFile создает тестовый файл версии.
func (f *TestDataFactory) CreateVersionFile(t *testing.T, versionID, name string, priority int, active bool) *models.VersionFile {
	t.Helper()
	file, err := f.storage.CreateVersionFile(context.Background(), models.VersionFile{
		VersionID:       versionID,
		FileName:        name,
		FileType:        models.FileExecutable,
		DownloadURL:     "https://downloads.example.com/" + name,
		DestinationPath: "C:/Program Files/App/" + name,
		Mandatory:       true,
		Active:          active,
		Priority:        priority,
	})
	require.NoError(t, err)
	return file
}

// TestVerification содержит общие функции для проверки результатов тестов.
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов.
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// CountRows возвращает количество строк в таблице.
func (v *TestVerification) CountRows(t *testing.T, table string) int {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
	require.NoError(t, err)
	return count
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../../..")
	require.NoError(t, err)
	return filepath.Join(projectRoot, "migrations")
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	require.NoError(t, migrations.Run(storage.DB, getMigrationsPath(t)))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	cleanup := func() {
		if storage != nil {
			_ = storage.Close()
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return storage, cleanup
}
