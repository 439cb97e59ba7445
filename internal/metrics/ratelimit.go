package metrics

import (
	"strconv"
	"time"
)

// Rate limit and upstream API metric names
const (
	RateLimitAdmissionsTotal = "ratelimit_admissions_total"
	RateLimitWaitDuration    = "ratelimit_wait_ms"
	APIRequestsTotal         = "api_requests_total"
	APICacheTotal            = "api_cache_total"
)

// Admission results
const (
	AdmissionImmediate = "admitted"
	AdmissionWaited    = "waited"
	AdmissionRejected  = "rejected"
)

// RecordAdmission counts one governor decision.
func RecordAdmission(result string) {
	counter(RateLimitAdmissionsTotal, 1, map[string]string{"result": result})
}

// RecordAdmissionWait records how long a caller was held by the blocking policy.
func RecordAdmissionWait(wait time.Duration) {
	histogram(RateLimitWaitDuration, wait, nil)
}

// RecordAPIRequest counts one upstream request by error kind and status.
func RecordAPIRequest(kind string, status int) {
	counter(APIRequestsTotal, 1, map[string]string{
		"outcome": kind,
		"status":  strconv.Itoa(status),
	})
}

// RecordCacheLookup counts payload cache hits and misses.
func RecordCacheLookup(hit bool) {
	counter(APICacheTotal, 1, map[string]string{"result": outcome(hit, "hit", "miss")})
}
