package observability

import (
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	t.Run("NewMetrics", func(t *testing.T) {
		if m == nil {
			t.Fatal("NewMetrics returned nil")
		}
		if m.PermutationTrialsTotal == nil {
			t.Error("PermutationTrialsTotal not initialized")
		}
		if m.TrialDuration == nil {
			t.Error("TrialDuration not initialized")
		}
		if m.MergesPerformedTotal == nil {
			t.Error("MergesPerformedTotal not initialized")
		}
		if m.CacheHits == nil {
			t.Error("CacheHits not initialized")
		}
		if m.LastBCubedScore == nil {
			t.Error("LastBCubedScore not initialized")
		}
	})

	t.Run("RecordTrial", func(t *testing.T) {
		m.RecordTrial(10*time.Millisecond, 3)
		m.RecordTrial(5*time.Millisecond, 4)
		for i := 0; i < 20; i++ {
			m.RecordTrial(time.Duration(i)*time.Millisecond, i%5)
		}
	})

	t.Run("RecordClusterCounter", func(t *testing.T) {
		m.RecordClusterCounter(144, 7)
		m.RecordClusterCounter(900, 0)
	})

	t.Run("RecordMerges", func(t *testing.T) {
		m.RecordMerges(1)
		m.RecordMerges(5)
		m.RecordMerges(0)
	})

	t.Run("RecordOutliersAttached", func(t *testing.T) {
		m.RecordOutliersAttached(2)
		m.RecordOutliersAttached(0)
	})

	t.Run("RecordNeighborRefinementCall", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			m.RecordNeighborRefinementCall()
		}
	})

	t.Run("RecordDensitySplit", func(t *testing.T) {
		m.RecordDensitySplit()
		m.RecordDensitySplit()
	})

	t.Run("RecordDensityEstimatorFallback", func(t *testing.T) {
		m.RecordDensityEstimatorFallback()
	})

	t.Run("RecordBCubed", func(t *testing.T) {
		m.RecordBCubed(0.9, 0.8, 0.847)
		m.RecordBCubed(1.0, 1.0, 1.0)
	})

	t.Run("RecordPhase", func(t *testing.T) {
		m.RecordPhase("ingest", 50*time.Millisecond)
		m.RecordPhase("optindex", 2*time.Second)
		m.RecordPhase("merge", 100*time.Millisecond)
		m.RecordPhase("split", 30*time.Millisecond)
		m.RecordPhase("emit", 5*time.Millisecond)
	})

	t.Run("CacheHitMiss", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			m.RecordCacheHit()
		}
		for i := 0; i < 50; i++ {
			m.RecordCacheMiss()
		}
		m.UpdateCacheSize(100)
		m.UpdateCacheSize(500)
	})

	t.Run("SystemMetrics", func(t *testing.T) {
		m.UpdateGoroutineCount(100)
		m.UpdateMemoryUsage(1024 * 1024 * 512)
		for i := 0; i < 10; i++ {
			m.UpdateGoroutineCount(100 + i*10)
			m.UpdateMemoryUsage(uint64(1024 * 1024 * (500 + i*100)))
		}
	})
}

func TestConcurrentMetricUpdates(t *testing.T) {
	m := NewMetrics()
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				m.RecordTrial(time.Millisecond, j)
				m.RecordMerges(1)
				m.RecordCacheHit()
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func BenchmarkRecordTrial(b *testing.B) {
	b.Skip("Skipping benchmark due to global metric registry conflicts")
}

func BenchmarkRecordBCubed(b *testing.B) {
	b.Skip("Skipping benchmark due to global metric registry conflicts")
}
