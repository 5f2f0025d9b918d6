// Package metrics содержит Prometheus-метрики сервера лицензирования.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "license_server"

// Metrics набор коллекторов сервера.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	licenseValidations  *prometheus.CounterVec
	licensesIssued      *prometheus.CounterVec
	versionChecks       *prometheus.CounterVec
	trackedEvents       *prometheus.CounterVec
	rateLimitedRequests prometheus.Counter
}

// New создает коллекторы и регистрирует их в собственном реестре
// вместе с метриками процесса и Go runtime.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		licenseValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_validations_total",
			Help:      "License validations by result.",
		}, []string{"result"}),
		licensesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "licenses_issued_total",
			Help:      "Licenses issued by type.",
		}, []string{"type"}),
		versionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_checks_total",
			Help:      "Version checks by whether an update was available.",
		}, []string{"update_available"}),
		trackedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracked_events_total",
			Help:      "Usage events by type.",
		}, []string{"event_type"}),
		rateLimitedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.licenseValidations,
		m.licensesIssued,
		m.versionChecks,
		m.trackedEvents,
		m.rateLimitedRequests,
	)
	return m
}

// Handler отдает метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry реестр коллекторов.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP учитывает обработанный HTTP-запрос.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// LicenseValidated учитывает результат проверки лицензии.
func (m *Metrics) LicenseValidated(result string) {
	m.licenseValidations.WithLabelValues(result).Inc()
}

// LicenseIssued учитывает выпуск лицензии.
func (m *Metrics) LicenseIssued(licenseType string) {
	m.licensesIssued.WithLabelValues(licenseType).Inc()
}

// VersionChecked учитывает проверку обновлений.
func (m *Metrics) VersionChecked(updateAvailable bool) {
	m.versionChecks.WithLabelValues(strconv.FormatBool(updateAvailable)).Inc()
}

// EventTracked учитывает событие телеметрии.
func (m *Metrics) EventTracked(eventType string) {
	m.trackedEvents.WithLabelValues(eventType).Inc()
}

// RateLimited учитывает отклоненный ограничителем запрос.
func (m *Metrics) RateLimited() {
	m.rateLimitedRequests.Inc()
}

// Noop заглушка для сервисов, запущенных без метрик.
type Noop struct{}

func (Noop) LicenseValidated(string) {}
func (Noop) LicenseIssued(string)    {}
func (Noop) VersionChecked(bool)     {}
func (Noop) EventTracked(string)     {}
