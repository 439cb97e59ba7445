// Package metrics names the r6lens telemetry series and records them through
// the global telemetry system. Every recorder is a no-op while metrics are
// disabled.
package metrics

import (
	"time"

	"github.com/r6lens/r6lens/internal/observability"
)

func counter(name string, value float64, tags map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(name, value, tags)
	}
}

func gauge(name string, value float64, tags map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(name, value, tags)
	}
}

func histogram(name string, d time.Duration, tags map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Histogram(name, d, tags)
	}
}

func outcome(ok bool, good, bad string) string {
	if ok {
		return good
	}
	return bad
}
