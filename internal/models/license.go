package models

import (
	"regexp"
	"time"
)

// Типы лицензий.
const (
	LicenseTrial        = "trial"
	LicenseBasic        = "basic"
	LicenseProfessional = "professional"
	LicenseEnterprise   = "enterprise"
)

// Статусы оплаты лицензии.
const (
	PaymentPending  = "pending"
	PaymentVerified = "verified"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Результаты проверки лицензии.
const (
	ValidationValid    = "valid"
	ValidationInvalid  = "invalid"
	ValidationExpired  = "expired"
	ValidationNotFound = "not_found"
)

// FingerprintPattern формат отпечатка устройства: десять цифр, дефис, шесть цифр.
var FingerprintPattern = regexp.MustCompile(`^\d{10}-\d{6}$`)

// License лицензия, привязанная к одному устройству пользователя.
type License struct {
	ID                string    `json:"id"`
	LicenseKey        string    `json:"licenseKey"`
	DeviceFingerprint string    `json:"deviceFingerprint"`
	UnlockCode        string    `json:"unlockCode"`
	Type              string    `json:"type"`
	ExpiresAt         time.Time `json:"expiresAt"`
	Active            bool      `json:"active"`
	PaymentStatus     string    `json:"paymentStatus"`
	Amount            *float64  `json:"amount,omitempty"`
	PaymentReference  *string   `json:"paymentReference,omitempty"`
	UserID            string    `json:"userId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// LicenseValidation запись журнала попыток проверки лицензии.
type LicenseValidation struct {
	ID                string  `json:"id"`
	LicenseID         *string `json:"licenseId"`
	UnlockCode        string  `json:"unlockCode"`
	DeviceFingerprint string  `json:"deviceFingerprint"`
	Result            string  `json:"result"`
	ErrorMessage      *string `json:"errorMessage,omitempty"`
	RequestMeta
	CreatedAt time.Time `json:"createdAt"`
}

// RequestMeta метаданные HTTP-запроса, сохраняемые в журналах.
type RequestMeta struct {
	IPAddress *string `json:"ipAddress,omitempty"`
	UserAgent *string `json:"userAgent,omitempty"`
	Country   *string `json:"country,omitempty"`
	City      *string `json:"city,omitempty"`
}

// ProcessLicenseRequest запрос на выпуск лицензии для устройства.
type ProcessLicenseRequest struct {
	DeviceFingerprint string `json:"device_fingerprint"`
	UserID            string `json:"user_id,omitempty"`
	CustomerEmail     string `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerName      string `json:"customer_name,omitempty"`
	LicenseType       string `json:"license_type,omitempty" validate:"omitempty,oneof=trial basic professional enterprise"`
}

// ProcessLicenseResponse результат выпуска лицензии.
type ProcessLicenseResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	UnlockCode  string     `json:"unlockCode"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	LicenseType string     `json:"licenseType,omitempty"`
}

// ValidateLicenseRequest запрос на проверку кода разблокировки.
type ValidateLicenseRequest struct {
	UnlockCode        string `json:"unlock_code"`
	DeviceFingerprint string `json:"device_fingerprint"`
}

// ValidatedLicense сведения о лицензии при успешной проверке.
type ValidatedLicense struct {
	Type          string    `json:"type"`
	ExpiresAt     time.Time `json:"expiresAt"`
	PaymentStatus string    `json:"paymentStatus"`
}

// ValidatedUser сведения о владельце при успешной проверке.
type ValidatedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ValidateLicenseResponse результат проверки лицензии.
type ValidateLicenseResponse struct {
	Valid   bool              `json:"valid"`
	Result  string            `json:"result"`
	License *ValidatedLicense `json:"license,omitempty"`
	User    *ValidatedUser    `json:"user,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Device проекция лицензии без кода разблокировки.
type Device struct {
	ID                string    `json:"id"`
	DeviceFingerprint string    `json:"deviceFingerprint"`
	LicenseType       string    `json:"licenseType"`
	Active            bool      `json:"active"`
	ExpiresAt         time.Time `json:"expiresAt"`
	PaymentStatus     string    `json:"paymentStatus"`
	CreatedAt         time.Time `json:"createdAt"`
}

// DeviceWithOwner устройство вместе с владельцем для административного списка.
type DeviceWithOwner struct {
	Device
	User AuthUser `json:"user"`
}

// LicenseWithOwner лицензия вместе с владельцем для административного списка.
type LicenseWithOwner struct {
	License
	User AuthUser `json:"user"`
}

// CreateLicenseRequest создание лицензии администратором.
// Пустые license_key и unlock_code генерируются автоматически.
type CreateLicenseRequest struct {
	LicenseKey        string    `json:"license_key,omitempty"`
	DeviceFingerprint string    `json:"device_fingerprint" validate:"required"`
	UnlockCode        string    `json:"unlock_code,omitempty"`
	Type              string    `json:"type" validate:"required,oneof=trial basic professional enterprise"`
	ExpiresAt         time.Time `json:"expires_at" validate:"required"`
	Active            *bool     `json:"active,omitempty"`
	PaymentStatus     string    `json:"payment_status,omitempty" validate:"omitempty,oneof=pending verified failed refunded"`
	Amount            *float64  `json:"amount,omitempty" validate:"omitempty,min=0"`
	PaymentReference  *string   `json:"payment_reference,omitempty"`
	UserID            string    `json:"user_id" validate:"required,uuid"`
}

// UpdateLicenseRequest частичное обновление лицензии.
type UpdateLicenseRequest struct {
	Type             *string    `json:"type,omitempty" validate:"omitempty,oneof=trial basic professional enterprise"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Active           *bool      `json:"active,omitempty"`
	PaymentStatus    *string    `json:"payment_status,omitempty" validate:"omitempty,oneof=pending verified failed refunded"`
	Amount           *float64   `json:"amount,omitempty" validate:"omitempty,min=0"`
	PaymentReference *string    `json:"payment_reference,omitempty"`
}

// LicenseFilter фильтр административного списка лицензий.
type LicenseFilter struct {
	Type          string
	PaymentStatus string
}
