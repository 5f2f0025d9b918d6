package models

import (
	"encoding/json"
	"time"
)

// Типы событий телеметрии.
const (
	EventAppStart       = "app_start"
	EventAppClose       = "app_close"
	EventFeatureUse     = "feature_use"
	EventErrorOccurred  = "error_occurred"
	EventLicenseCheck   = "license_check"
	EventVersionCheck   = "version_check"
	EventUpdateDownload = "update_download"
	EventUpdateInstall  = "update_install"
)

// Счётчики дневной статистики.
const (
	CounterActiveUsers        = "active_users"
	CounterNewLicenses        = "new_licenses"
	CounterLicenseValidations = "license_validations"
	CounterVersionChecks      = "version_checks"
	CounterAppSessions        = "app_sessions"
)

// Разрезы дневной статистики.
const (
	BreakdownCountries    = "countries"
	BreakdownVersions     = "versions"
	BreakdownLicenseTypes = "license_types"
)

// UsageEvent событие использования приложения.
type UsageEvent struct {
	ID                string          `json:"id"`
	UserID            *string         `json:"userId"`
	LicenseID         *string         `json:"licenseId"`
	SessionID         *string         `json:"sessionId"`
	EventType         string          `json:"eventType"`
	EventName         string          `json:"eventName"`
	EventData         json.RawMessage `json:"eventData,omitempty"`
	DeviceFingerprint *string         `json:"deviceFingerprint"`
	AppVersion        *string         `json:"appVersion"`
	RequestMeta
	CreatedAt time.Time `json:"createdAt"`
}

// TrackEventRequest запрос на запись события.
type TrackEventRequest struct {
	UserID            *string         `json:"user_id,omitempty"`
	LicenseID         *string         `json:"license_id,omitempty"`
	SessionID         *string         `json:"session_id,omitempty"`
	EventType         string          `json:"event_type" validate:"required,oneof=app_start app_close feature_use error_occurred license_check version_check update_download update_install"`
	EventName         string          `json:"event_name" validate:"required"`
	EventData         json.RawMessage `json:"event_data,omitempty"`
	DeviceFingerprint *string         `json:"device_fingerprint,omitempty"`
	AppVersion        *string         `json:"app_version,omitempty"`
}

// TrackEventResponse подтверждение записи события.
type TrackEventResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyStats агрегированные счётчики за календарный день.
type DailyStats struct {
	ID                   string         `json:"id"`
	Date                 time.Time      `json:"date"`
	ActiveUsers          int            `json:"activeUsers"`
	NewLicenses          int            `json:"newLicenses"`
	LicenseValidations   int            `json:"licenseValidations"`
	VersionChecks        int            `json:"versionChecks"`
	AppSessions          int            `json:"appSessions"`
	TotalSessionDuration int64          `json:"totalSessionDuration"`
	Countries            map[string]int `json:"countries"`
	Versions             map[string]int `json:"versions"`
	LicenseTypes         map[string]int `json:"licenseTypes"`
}

// DashboardPeriod окно отчёта.
type DashboardPeriod struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      int       `json:"days"`
}

// DashboardTotals суммы счётчиков за окно.
type DashboardTotals struct {
	ActiveUsers          int   `json:"activeUsers"`
	NewLicenses          int   `json:"newLicenses"`
	LicenseValidations   int   `json:"licenseValidations"`
	VersionChecks        int   `json:"versionChecks"`
	AppSessions          int   `json:"appSessions"`
	TotalSessionDuration int64 `json:"totalSessionDuration"`
}

// Add прибавляет счётчики одного дня.
func (t *DashboardTotals) Add(s DailyStats) {
	t.ActiveUsers += s.ActiveUsers
	t.NewLicenses += s.NewLicenses
	t.LicenseValidations += s.LicenseValidations
	t.VersionChecks += s.VersionChecks
	t.AppSessions += s.AppSessions
	t.TotalSessionDuration += s.TotalSessionDuration
}

// Dashboard данные аналитической панели.
type Dashboard struct {
	Period     DashboardPeriod `json:"period"`
	Totals     DashboardTotals `json:"totals"`
	DailyStats []DailyStats    `json:"dailyStats"`
}
