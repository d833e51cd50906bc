package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/therealutkarshpriyadarshi/slash/pkg/api/health/middleware"
	"github.com/therealutkarshpriyadarshi/slash/pkg/config"
)

// RESTHandler builds the /healthz and /metrics mux the `serve` command
// exposes, mirroring the teacher's pkg/api/rest/server.go route
// registration style (a bare *http.ServeMux, no router dependency),
// wrapped in the JWT-auth and rate-limit middleware per cfg.
func RESTHandler(reporter *Reporter, cfg config.ServeConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", reporter.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = middleware.RateLimit(middleware.NewRateLimiter(middleware.RateLimitConfig{
		Enabled:        cfg.RateLimitQPS > 0,
		RequestsPerSec: cfg.RateLimitQPS,
		Burst:          cfg.RateLimitBurst,
	}))(handler)
	handler = middleware.Auth(middleware.AuthConfig{
		Enabled:     cfg.AuthEnabled,
		JWTSecret:   cfg.JWTSecret,
		PublicPaths: []string{"/healthz"},
	})(handler)
	return handler
}

func (r *Reporter) handleHealthz(w http.ResponseWriter, req *http.Request) {
	snap := r.Current()
	w.Header().Set("Content-Type", "application/json")

	status := "serving"
	if snap.Phase == "" {
		status = "not_serving"
	}

	body := map[string]interface{}{
		"status":                   status,
		"phase":                    snap.Phase,
		"uptime_seconds":           r.Uptime().Seconds(),
		"delta_squared":            snap.DeltaSquared,
		"cluster_count":            snap.ClusterCount,
		"outlier_count":            snap.OutlierCount,
		"merges_performed":         snap.MergesPerformed,
		"density_splits_performed": snap.DensitySplitsPerformed,
		"bcubed_f1":                snap.BCubedF1,
		"checked_at":               time.Now().Format(time.RFC3339),
	}
	if status == "not_serving" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}
