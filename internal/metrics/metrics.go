package metrics

import (
	"strconv"
	"time"

	"github.com/namelens/nutrilens/internal/observability"
)

// Metric names following Prometheus conventions
const (
	RequestsTotal      = "fdc_requests_total"
	RequestDurationMs  = "fdc_request_duration_ms"
	UsageResetsTotal   = "fdc_usage_resets_total"
	UsageCount         = "fdc_usage_count"
	ErrorsTotal        = "errors_total"
	OutcomeSuccess     = "success"
	OutcomeUnspecified = "unknown"
)

// RecordRequest records the terminal state of one FDC call. outcome is an
// error kind, or "success".
func RecordRequest(outcome string, status int, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	if outcome == "" {
		outcome = OutcomeUnspecified
	}

	tags := map[string]string{"outcome": outcome}
	if status > 0 {
		tags["http_status"] = strconv.Itoa(status)
	}
	_ = observability.TelemetrySystem.Counter(RequestsTotal, 1, tags)
	_ = observability.TelemetrySystem.Histogram(RequestDurationMs, duration, map[string]string{"outcome": outcome})
}

// RecordUsageReset records a manual quota reset.
func RecordUsageReset() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(UsageResetsTotal, 1, nil)
	}
}

// SetUsageCount records the ledger count after a write.
func SetUsageCount(count int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(UsageCount, float64(count), nil)
	}
}

// RecordError records a CLI-edge error by envelope code.
func RecordError(errorCode string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ErrorsTotal,
			1,
			map[string]string{"error_code": errorCode},
		)
	}
}
