package models

import "time"

// Типы файлов версии.
const (
	FileExecutable    = "executable"
	FileReport        = "report"
	FileDatabase      = "database"
	FileDocument      = "document"
	FileLibrary       = "library"
	FileConfiguration = "configuration"
	FileInstaller     = "installer"
	FileZip           = "zip"
	FileOther         = "other"
)

// Version опубликованная версия приложения.
type Version struct {
	ID              string        `json:"id"`
	Version         string        `json:"version"`
	ReleaseNotes    *string       `json:"releaseNotes"`
	DownloadURL     string        `json:"downloadUrl"`
	Mandatory       bool          `json:"mandatory"`
	Active          bool          `json:"active"`
	FileSize        *int64        `json:"fileSize"`
	Checksum        *string       `json:"checksum"`
	RequiredVersion *string       `json:"requiredVersion"`
	ReleaseDate     time.Time     `json:"releaseDate"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	Files           []VersionFile `json:"files,omitempty"`
}

// VersionFile файл, входящий в состав версии.
type VersionFile struct {
	ID              string    `json:"id"`
	VersionID       string    `json:"versionId"`
	FileName        string    `json:"fileName"`
	FileType        string    `json:"fileType"`
	DownloadURL     string    `json:"downloadUrl"`
	DestinationPath string    `json:"destinationPath"`
	FileSize        *int64    `json:"fileSize"`
	Checksum        *string   `json:"checksum"`
	Mandatory       bool      `json:"mandatory"`
	Active          bool      `json:"active"`
	Description     *string   `json:"description"`
	Priority        int       `json:"priority"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// VersionCheck запись журнала проверок обновлений.
type VersionCheck struct {
	ID                string  `json:"id"`
	UserID            *string `json:"userId"`
	DeviceFingerprint *string `json:"deviceFingerprint"`
	CurrentVersion    string  `json:"currentVersion"`
	LatestVersion     *string `json:"latestVersion"`
	UpdateAvailable   bool    `json:"updateAvailable"`
	RequestMeta
	CreatedAt time.Time `json:"createdAt"`
}

// CheckVersionRequest параметры проверки обновления.
type CheckVersionRequest struct {
	CurrentVersion    string `json:"current_version" validate:"required"`
	DeviceFingerprint string `json:"device_fingerprint,omitempty"`
	UserID            string `json:"user_id,omitempty"`
}

// ManifestFile файл в манифесте обновления.
type ManifestFile struct {
	ID              string  `json:"id"`
	FileName        string  `json:"fileName"`
	FileType        string  `json:"fileType"`
	DownloadURL     string  `json:"downloadUrl"`
	DestinationPath string  `json:"destinationPath"`
	FileSize        *int64  `json:"fileSize"`
	Checksum        *string `json:"checksum"`
	Mandatory       bool    `json:"mandatory"`
	Description     *string `json:"description"`
	Priority        int     `json:"priority"`
}

// CheckVersionResponse результат проверки обновления.
type CheckVersionResponse struct {
	UpdateAvailable bool           `json:"updateAvailable"`
	Message         string         `json:"message,omitempty"`
	CurrentVersion  string         `json:"currentVersion"`
	LatestVersion   *string        `json:"latestVersion"`
	Mandatory       bool           `json:"mandatory"`
	DownloadURL     *string        `json:"downloadUrl"`
	ReleaseNotes    *string        `json:"releaseNotes"`
	FileSize        *int64         `json:"fileSize"`
	Checksum        *string        `json:"checksum"`
	RequiredVersion *string        `json:"requiredVersion"`
	ReleaseDate     *time.Time     `json:"releaseDate"`
	Files           []ManifestFile `json:"files"`
}

// CreateVersionRequest создание версии.
type CreateVersionRequest struct {
	Version         string    `json:"version" validate:"required"`
	ReleaseNotes    *string   `json:"release_notes,omitempty"`
	DownloadURL     string    `json:"download_url" validate:"required"`
	Mandatory       *bool     `json:"mandatory,omitempty"`
	Active          *bool     `json:"active,omitempty"`
	FileSize        *int64    `json:"file_size,omitempty" validate:"omitempty,min=0"`
	Checksum        *string   `json:"checksum,omitempty"`
	RequiredVersion *string   `json:"required_version,omitempty"`
	ReleaseDate     time.Time `json:"release_date" validate:"required"`
}

// UpdateVersionRequest частичное обновление версии.
type UpdateVersionRequest struct {
	Version         *string    `json:"version,omitempty"`
	ReleaseNotes    *string    `json:"release_notes,omitempty"`
	DownloadURL     *string    `json:"download_url,omitempty"`
	Mandatory       *bool      `json:"mandatory,omitempty"`
	Active          *bool      `json:"active,omitempty"`
	FileSize        *int64     `json:"file_size,omitempty" validate:"omitempty,min=0"`
	Checksum        *string    `json:"checksum,omitempty"`
	RequiredVersion *string    `json:"required_version,omitempty"`
	ReleaseDate     *time.Time `json:"release_date,omitempty"`
}

// CreateVersionFileRequest добавление файла к версии.
type CreateVersionFileRequest struct {
	VersionID       string  `json:"version_id" validate:"required"`
	FileName        string  `json:"file_name" validate:"required"`
	FileType        string  `json:"file_type" validate:"required,oneof=executable report database document library configuration installer zip other"`
	DownloadURL     string  `json:"download_url" validate:"required"`
	DestinationPath string  `json:"destination_path" validate:"required"`
	FileSize        *int64  `json:"file_size,omitempty" validate:"omitempty,min=0"`
	Checksum        *string `json:"checksum,omitempty"`
	Mandatory       *bool   `json:"mandatory,omitempty"`
	Active          *bool   `json:"active,omitempty"`
	Description     *string `json:"description,omitempty"`
	Priority        *int    `json:"priority,omitempty" validate:"omitempty,min=0"`
}

// UpdateVersionFileRequest частичное обновление файла версии.
type UpdateVersionFileRequest struct {
	FileName        *string `json:"file_name,omitempty"`
	FileType        *string `json:"file_type,omitempty" validate:"omitempty,oneof=executable report database document library configuration installer zip other"`
	DownloadURL     *string `json:"download_url,omitempty"`
	DestinationPath *string `json:"destination_path,omitempty"`
	FileSize        *int64  `json:"file_size,omitempty" validate:"omitempty,min=0"`
	Checksum        *string `json:"checksum,omitempty"`
	Mandatory       *bool   `json:"mandatory,omitempty"`
	Active          *bool   `json:"active,omitempty"`
	Description     *string `json:"description,omitempty"`
	Priority        *int    `json:"priority,omitempty" validate:"omitempty,min=0"`
}
