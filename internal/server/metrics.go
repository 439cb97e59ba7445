package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/config"
	apperrors "github.com/r6lens/r6lens/internal/errors"
	"github.com/r6lens/r6lens/internal/observability"
)

const defaultMetricsPort = 9090

var metricsProxyClient = &http.Client{Timeout: 5 * time.Second}

// Headers that describe the exporter connection rather than the payload.
var hopByHop = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// exporterURL locates the Prometheus exporter: the bound port first, then the
// configured one.
func exporterURL() string {
	port := observability.GetMetricsPort()
	if port == 0 {
		port = defaultMetricsPort
		if cfg := config.GetConfig(); cfg != nil && cfg.Metrics.Port > 0 {
			port = cfg.Metrics.Port
		}
	}
	return fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
}

// MetricsHandler re-serves the exporter's scrape output on the facade port,
// so quota and upstream counters can be collected without a second listener.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if observability.PrometheusExporter == nil {
		apperrors.RespondWithError(w, r, apperrors.NewServiceUnavailableError("Metrics exporter not initialized"))
		return
	}

	target := exporterURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.Wrap(ctx, apperrors.CodeInternal, err, "Unable to construct metrics request"))
		return
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := metricsProxyClient.Do(req)
	if err != nil {
		envelope := apperrors.Wrap(ctx, apperrors.CodeExternalService, err, "Prometheus exporter unavailable").
			WithDetails(map[string]any{"metrics_url": target})
		apperrors.RespondWithError(w, r, envelope)
		return
	}
	defer resp.Body.Close() // nolint:errcheck

	copyScrapeHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("Failed to relay metrics scrape",
			zap.String("metrics_url", target),
			zap.Error(err))
	}
}

func copyScrapeHeaders(dst, src http.Header) {
	for key, values := range src {
		if hopByHop[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
	if dst.Get("Content-Type") == "" {
		dst.Set("Content-Type", "text/plain; version=0.0.4")
	}
}
