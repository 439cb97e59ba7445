package metrics

import "time"

// Facade and lifecycle metric names
const (
	LookupsTotal        = "app_lookups_total"
	InFlightLookups     = "app_lookups_in_flight"
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"
	ServerStartTime     = "app_server_start_time_seconds"
	CachePurgedTotal    = "app_cache_purged_total"
)

// RecordLookup counts one stats or leaderboard lookup served by the CLI or the
// HTTP facade. resource is "stats/<kind>" or "leaderboard".
func RecordLookup(resource string, success bool) {
	counter(LookupsTotal, 1, map[string]string{
		"resource": resource,
		"status":   outcome(success, "success", "failure"),
	})
}

func SetInFlightLookups(count int64) {
	gauge(InFlightLookups, float64(count), nil)
}

// RecordHealthCheck records one checker run and its latency.
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	counter(HealthCheckTotal, 1, map[string]string{
		"check":  checkName,
		"status": outcome(healthy, "healthy", "unhealthy"),
	})
	histogram(HealthCheckDuration, duration, map[string]string{"check": checkName})
}

// SetServerStartTime publishes the facade start time as a Unix timestamp.
func SetServerStartTime(timestamp int64) {
	gauge(ServerStartTime, float64(timestamp), nil)
}

// RecordCachePurge counts payload cache rows removed by a purge.
func RecordCachePurge(removed int64) {
	if removed > 0 {
		counter(CachePurgedTotal, float64(removed), nil)
	}
}
