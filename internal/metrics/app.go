package metrics

import (
	"time"

	"github.com/chatlens/chatlens/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Chat pipeline metrics
	ChatTurnsTotal              = "app_chat_turns_total"
	AdmissionDeniedTotal        = "app_admission_denied_total"
	ProviderErrorsTotal         = "app_provider_errors_total"
	ExchangeRecordFailuresTotal = "app_exchange_record_failures_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordChatTurn records one completed dispatch with its outcome kind.
func RecordChatTurn(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ChatTurnsTotal,
			1,
			map[string]string{
				"outcome": outcome,
			},
		)
	}
}

// RecordAdmissionDenied records a locally denied chat turn. The key is not
// used as a label to keep metric cardinality bounded.
func RecordAdmissionDenied(key string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AdmissionDeniedTotal,
			1,
			nil,
		)
	}
}

// RecordProviderError records a classified provider failure.
func RecordProviderError(class string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ProviderErrorsTotal,
			1,
			map[string]string{
				"class": class,
			},
		)
	}
}

// RecordExchangeRecordFailure records a best-effort persistence failure so
// operators can see swallowed store errors.
func RecordExchangeRecordFailure() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ExchangeRecordFailuresTotal,
			1,
			nil,
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
