package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus series the clustering pipeline exposes
// over the optional `serve` command's /metrics endpoint (spec §6, SPEC_FULL
// §2.3/§2.6).
type Metrics struct {
	// OptimalIndex (C5) search metrics.
	PermutationTrialsTotal prometheus.Counter
	TrialDuration          prometheus.Histogram
	BestClusterCount       prometheus.Gauge

	// ClusterCounter (C6) metrics.
	CharacteristicDistance prometheus.Gauge
	OutlierCountEstimate   prometheus.Gauge

	// SingleLinkMerger (C7) metrics.
	MergesPerformedTotal    prometheus.Counter
	OutliersAttachedTotal   prometheus.Counter
	NeighborRefinementCalls prometheus.Counter

	// DensitySplitter (C8) metrics.
	DensitySplitsTotal            prometheus.Counter
	DensityEstimatorFallbackTotal prometheus.Counter

	// Partition / recluster quality (C9).
	LastBCubedScore *prometheus.GaugeVec

	// Pipeline phase timing, one histogram per named phase (ingest,
	// optindex, merge, split, emit).
	PhaseDuration *prometheus.HistogramVec

	// HyperContrasted point cache (spec §5 pseudo-LRU).
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheSize   prometheus.Gauge

	// System metrics, shared with any long-running `serve` process.
	GoroutinesCount prometheus.Gauge
	MemoryUsage     prometheus.Gauge
}

// NewMetrics creates and registers every series above.
func NewMetrics() *Metrics {
	return &Metrics{
		PermutationTrialsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "slash_optindex_trials_total",
				Help: "Total number of permutation trials evaluated by OptimalIndex",
			},
		),
		TrialDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "slash_optindex_trial_duration_seconds",
				Help:    "Time to build a curve and score one permutation trial",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
			},
		),
		BestClusterCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "slash_optindex_best_cluster_count",
				Help: "Estimated cluster count of the best permutation found so far",
			},
		),
		CharacteristicDistance: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "slash_cluster_counter_delta_squared",
				Help: "Characteristic squared merge distance discovered by ClusterCounter",
			},
		),
		OutlierCountEstimate: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "slash_cluster_counter_outlier_estimate",
				Help: "Estimated outlier count from the last ClusterCounter pass",
			},
		),
		MergesPerformedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "slash_merger_merges_total",
				Help: "Total number of cluster unions performed by the single-link merger",
			},
		),
		OutliersAttachedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "slash_merger_outliers_attached_total",
				Help: "Total number of undersized clusters attached to a neighbor",
			},
		),
		NeighborRefinementCalls: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "slash_merger_neighbor_refinement_total",
				Help: "Total number of neighbor-refinement cluster-distance checks performed",
			},
		),
		DensitySplitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "slash_density_splits_total",
				Help: "Total number of clusters broken apart by the density post-splitter",
			},
		),
		DensityEstimatorFallbackTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "slash_density_estimator_fallback_total",
				Help: "Total number of clusters where the windowed density estimator failed calibration and fell back to exact counting",
			},
		),
		LastBCubedScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "slash_recluster_bcubed",
				Help: "Most recent BCubed precision/recall/f1 of a recluster run against its seed labels",
			},
			[]string{"component"},
		),
		PhaseDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slash_phase_duration_seconds",
				Help:    "Wall-clock time spent in each pipeline phase",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"phase"},
		),
		CacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "slash_hypercontrasted_cache_hits_total",
				Help: "Total number of HyperContrasted coordinate cache hits",
			},
		),
		CacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "slash_hypercontrasted_cache_misses_total",
				Help: "Total number of HyperContrasted coordinate cache misses",
			},
		),
		CacheSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "slash_hypercontrasted_cache_size",
				Help: "Current number of entries in the HyperContrasted coordinate cache",
			},
		),
		GoroutinesCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "slash_goroutines",
				Help: "Current number of goroutines",
			},
		),
		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "slash_memory_bytes",
				Help: "Process resident memory usage in bytes",
			},
		),
	}
}

// RecordTrial records one OptimalIndex permutation trial.
func (m *Metrics) RecordTrial(duration time.Duration, bestClusterCount int) {
	m.PermutationTrialsTotal.Inc()
	m.TrialDuration.Observe(duration.Seconds())
	m.BestClusterCount.Set(float64(bestClusterCount))
}

// RecordClusterCounter records one ClusterCounter pass's output.
func (m *Metrics) RecordClusterCounter(deltaSquared uint64, outlierCount int) {
	m.CharacteristicDistance.Set(float64(deltaSquared))
	m.OutlierCountEstimate.Set(float64(outlierCount))
}

// RecordMerges increments the merge counter by the number of unions one
// single-link pass performed.
func (m *Metrics) RecordMerges(count int) {
	m.MergesPerformedTotal.Add(float64(count))
}

// RecordOutliersAttached increments the outlier-attachment counter.
func (m *Metrics) RecordOutliersAttached(count int) {
	m.OutliersAttachedTotal.Add(float64(count))
}

// RecordNeighborRefinementCall increments the neighbor-refinement
// cluster-distance check counter.
func (m *Metrics) RecordNeighborRefinementCall() {
	m.NeighborRefinementCalls.Inc()
}

// RecordDensitySplit increments the density-split counter.
func (m *Metrics) RecordDensitySplit() {
	m.DensitySplitsTotal.Inc()
}

// RecordDensityEstimatorFallback increments the estimator-fallback
// counter (spec §4.7's Kendall tau-b calibration gate tripped).
func (m *Metrics) RecordDensityEstimatorFallback() {
	m.DensityEstimatorFallbackTotal.Inc()
}

// RecordBCubed records the three components of a recluster run's BCubed
// score against its seed labels.
func (m *Metrics) RecordBCubed(precision, recall, f1 float64) {
	m.LastBCubedScore.WithLabelValues("precision").Set(precision)
	m.LastBCubedScore.WithLabelValues("recall").Set(recall)
	m.LastBCubedScore.WithLabelValues("f1").Set(f1)
}

// RecordPhase records how long a named pipeline phase took.
func (m *Metrics) RecordPhase(phase string, duration time.Duration) {
	m.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordCacheHit records a HyperContrasted cache hit.
func (m *Metrics) RecordCacheHit() { m.CacheHits.Inc() }

// RecordCacheMiss records a HyperContrasted cache miss.
func (m *Metrics) RecordCacheMiss() { m.CacheMisses.Inc() }

// UpdateCacheSize updates the HyperContrasted cache's current size.
func (m *Metrics) UpdateCacheSize(size int) { m.CacheSize.Set(float64(size)) }

// UpdateGoroutineCount updates the goroutine gauge.
func (m *Metrics) UpdateGoroutineCount(count int) { m.GoroutinesCount.Set(float64(count)) }

// UpdateMemoryUsage updates the process memory gauge.
func (m *Metrics) UpdateMemoryUsage(bytes uint64) { m.MemoryUsage.Set(float64(bytes)) }
