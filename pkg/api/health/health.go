// Package health implements the optional service surface described in
// SPEC_FULL.md §2.6: a gRPC health/reflection endpoint plus a REST
// /healthz and /metrics pair, letting a supervisor poll liveness and
// progress of a long-running `cluster`/`recluster` invocation the same
// way the teacher's gRPC server reports "is the vector index up",
// retargeted to "is the clustering job alive, and what phase is it in".
package health

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/therealutkarshpriyadarshi/slash/pkg/observability"
)

// ServiceName is the gRPC health service name SLASH reports under.
const ServiceName = "slash.Clustering"

// Snapshot is the last observed pipeline progress, surfaced through the
// gRPC health check's Details map (via structpb) and the REST /healthz
// body.
type Snapshot struct {
	Phase                  string
	DeltaSquared           uint64
	ClusterCount           int
	OutlierCount           int
	MergesPerformed        int
	DensitySplitsPerformed int
	BCubedF1               float64
}

// Reporter tracks run progress and exposes it through a gRPC
// health.Server. It wraps the teacher's health/stats pattern
// (pkg/api/grpc/server.go's Stats()) retargeted from per-namespace
// index stats to a single pipeline snapshot.
type Reporter struct {
	grpcHealth *health.Server
	startTime  time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewReporter creates a Reporter and marks the service NOT_SERVING until
// the first snapshot is recorded.
func NewReporter() *Reporter {
	r := &Reporter{
		grpcHealth: health.NewServer(),
		startTime:  time.Now(),
	}
	r.grpcHealth.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return r
}

// GRPCHealthServer returns the underlying grpc_health_v1.HealthServer for
// registration with a *grpc.Server.
func (r *Reporter) GRPCHealthServer() grpc_health_v1.HealthServer {
	return r.grpcHealth
}

// Update records a new progress snapshot and flips the gRPC health status
// to SERVING; call once the pipeline has made enough progress to report.
func (r *Reporter) Update(snap Snapshot) {
	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()
	r.grpcHealth.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
}

// MarkDone flips the gRPC health status back to NOT_SERVING, mirroring
// the teacher's graceful-shutdown convention: a finished one-shot job is
// no longer "serving" anything.
func (r *Reporter) MarkDone() {
	r.grpcHealth.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// Current returns the last recorded snapshot.
func (r *Reporter) Current() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Uptime returns how long the Reporter has existed.
func (r *Reporter) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// DetailsStruct renders the current snapshot as a structpb.Struct, for
// embedding in a grpc_health_v1.HealthCheckResponse's Details extension
// or logging it structurally.
func (r *Reporter) DetailsStruct() (*structpb.Struct, error) {
	snap := r.Current()
	return structpb.NewStruct(map[string]interface{}{
		"phase":                    snap.Phase,
		"delta_squared":            float64(snap.DeltaSquared),
		"cluster_count":            float64(snap.ClusterCount),
		"outlier_count":            float64(snap.OutlierCount),
		"merges_performed":         float64(snap.MergesPerformed),
		"density_splits_performed": float64(snap.DensitySplitsPerformed),
		"bcubed_f1":                snap.BCubedF1,
		"uptime_seconds":           r.Uptime().Seconds(),
	})
}

// RecordToMetrics copies the current snapshot onto a Metrics instance.
// Nothing in this module calls it; the caller decides when to copy.
func (r *Reporter) RecordToMetrics(ctx context.Context, m *observability.Metrics) {
	snap := r.Current()
	m.RecordClusterCounter(snap.DeltaSquared, snap.OutlierCount)
	m.RecordBCubed(0, 0, snap.BCubedF1)
}
