package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/magabrotheeeer/license-server/internal/models"
)

// Колонки daily_stats, которые разрешено увеличивать.
var dailyCounters = map[string]struct{}{
	models.CounterActiveUsers:        {},
	models.CounterNewLicenses:        {},
	models.CounterLicenseValidations: {},
	models.CounterVersionChecks:      {},
	models.CounterAppSessions:        {},
}

var dailyBreakdowns = map[string]struct{}{
	models.BreakdownCountries:    {},
	models.BreakdownVersions:     {},
	models.BreakdownLicenseTypes: {},
}

// CreateUsageEvent сохраняет событие телеметрии.
func (s *Storage) CreateUsageEvent(ctx context.Context, e models.UsageEvent) (*models.UsageEvent, error) {
	const op = "storage.CreateUsageEvent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var data any
	if len(e.EventData) > 0 {
		data = string(e.EventData)
	}

	query := `INSERT INTO usage_analytics (user_id, license_id, session_id, event_type, event_name,
			      event_data, device_fingerprint, app_version, ip_address, user_agent, country, city)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id, created_at`
	if err := s.DB.QueryRowContext(ctx, query,
		e.UserID, e.LicenseID, e.SessionID, e.EventType, e.EventName, data,
		e.DeviceFingerprint, e.AppVersion, e.IPAddress, e.UserAgent, e.Country, e.City,
	).Scan(&e.ID, &e.CreatedAt); err != nil {
		return nil, wrap(op, err)
	}
	return &e, nil
}

// IncrementDailyCounter атомарно увеличивает счётчик за день, создавая строку дня при необходимости.
func (s *Storage) IncrementDailyCounter(ctx context.Context, day time.Time, counter string) error {
	const op = "storage.IncrementDailyCounter"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if _, ok := dailyCounters[counter]; !ok {
		return fmt.Errorf("%s: unknown counter %q", op, counter)
	}

	query := fmt.Sprintf(`INSERT INTO daily_stats (date, %[1]s) VALUES ($1, 1)
			  ON CONFLICT (date) DO UPDATE
			  SET %[1]s = daily_stats.%[1]s + 1, updated_at = NOW()`, counter)
	if _, err := s.DB.ExecContext(ctx, query, dateOnly(day)); err != nil {
		return wrap(op, err)
	}
	return nil
}

// IncrementDailyBreakdown атомарно увеличивает значение ключа в разрезе дневной статистики.
func (s *Storage) IncrementDailyBreakdown(ctx context.Context, day time.Time, breakdown, key string) error {
	const op = "storage.IncrementDailyBreakdown"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if _, ok := dailyBreakdowns[breakdown]; !ok {
		return fmt.Errorf("%s: unknown breakdown %q", op, breakdown)
	}

	query := fmt.Sprintf(`INSERT INTO daily_stats (date, %[1]s) VALUES ($1, jsonb_build_object($2::text, 1))
			  ON CONFLICT (date) DO UPDATE
			  SET %[1]s = daily_stats.%[1]s || jsonb_build_object(
			          $2::text, COALESCE((daily_stats.%[1]s ->> $2::text)::int, 0) + 1),
			      updated_at = NOW()`, breakdown)
	if _, err := s.DB.ExecContext(ctx, query, dateOnly(day), key); err != nil {
		return wrap(op, err)
	}
	return nil
}

// ListDailyStats возвращает дневную статистику за интервал [from, to] по возрастанию даты.
func (s *Storage) ListDailyStats(ctx context.Context, from, to time.Time) ([]models.DailyStats, error) {
	const op = "storage.ListDailyStats"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, date, active_users, new_licenses, license_validations, version_checks,
			      app_sessions, total_session_duration, countries, versions, license_types
			  FROM daily_stats
			  WHERE date BETWEEN $1 AND $2
			  ORDER BY date ASC`
	rows, err := s.DB.QueryContext(ctx, query, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.DailyStats, 0)
	for rows.Next() {
		var d models.DailyStats
		var countries, versions, licenseTypes []byte
		if err = rows.Scan(&d.ID, &d.Date, &d.ActiveUsers, &d.NewLicenses, &d.LicenseValidations,
			&d.VersionChecks, &d.AppSessions, &d.TotalSessionDuration,
			&countries, &versions, &licenseTypes); err != nil {
			return nil, wrap(op, err)
		}
		if d.Countries, err = decodeBreakdown(countries); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if d.Versions, err = decodeBreakdown(versions); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if d.LicenseTypes, err = decodeBreakdown(licenseTypes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

func decodeBreakdown(raw []byte) (map[string]int, error) {
	m := make(map[string]int)
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// dateOnly обрезает время до полуночи UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
