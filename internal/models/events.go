package models

import "time"

// LicenseIssuedEvent публикуется после выдачи новой лицензии.
type LicenseIssuedEvent struct {
	LicenseID         string    `json:"license_id"`
	UserID            string    `json:"user_id"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	LicenseType       string    `json:"license_type"`
	ExpiresAt         time.Time `json:"expires_at"`
	IssuedAt          time.Time `json:"issued_at"`
}

// LicenseValidatedEvent публикуется после каждой проверки кода разблокировки.
type LicenseValidatedEvent struct {
	LicenseID         *string   `json:"license_id,omitempty"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	Result            string    `json:"result"`
	ValidatedAt       time.Time `json:"validated_at"`
}
