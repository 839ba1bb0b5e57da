package latency

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtomicMetricsCountMinMeanMax(t *testing.T) {
	m := NewAtomicMetrics()
	for i := uint64(0); i < 1000; i++ {
		m.Record(i)
	}
	snap := m.Snapshot()
	assert.Equal(t, uint64(1000), snap.Count)
	assert.Equal(t, uint64(0), snap.MinNs)
	assert.Equal(t, uint64(999), snap.MaxNs)
	assert.Equal(t, uint64(499), snap.MeanNanos())
}

func TestAtomicMetricsPercentileMonotonic(t *testing.T) {
	m := NewAtomicMetrics()
	for i := uint64(1); i <= 1000; i++ {
		m.Record(i)
	}
	snap := m.Snapshot()
	p50 := snap.Percentile(50)
	p95 := snap.Percentile(95)
	p99 := snap.Percentile(99)
	assert.Greater(t, p50, uint64(0))
	assert.GreaterOrEqual(t, p95, p50)
	assert.GreaterOrEqual(t, p99, p95)
}

func TestAtomicMetricsConcurrentRecord(t *testing.T) {
	m := NewAtomicMetrics()
	var wg sync.WaitGroup
	const goroutines, perGoroutine = 10, 1000
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				m.Record(uint64(id*perGoroutine + i))
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, uint64(goroutines*perGoroutine), m.Snapshot().Count)
}

func TestProfilerStartEndRecordsLatency(t *testing.T) {
	p := NewProfiler()
	start := p.Start()
	end := p.End("test_point", start)
	_ = end

	snap := p.Snapshot("test_point")
	assert.Equal(t, uint64(1), snap.Count)
}

func TestProfilerDisabledIsNoOp(t *testing.T) {
	Disable()
	defer Enable()

	p := NewProfiler()
	start := p.Start()
	p.End("disabled_point", start)

	snap := p.Snapshot("disabled_point")
	assert.Equal(t, uint64(0), snap.Count)
}

func TestHistogramPercentilesOrdered(t *testing.T) {
	h := NewHistogram()
	for i := int64(1); i <= 1000; i++ {
		h.Record(i)
	}
	pcts := h.Percentiles()
	assert.GreaterOrEqual(t, pcts.P90, pcts.P50)
	assert.GreaterOrEqual(t, pcts.P99, pcts.P90)
}

func TestTimerDurationNanosHandlesOverflow(t *testing.T) {
	timer := NewTimerWithFrequency(1e9)
	start := Timestamp{cycles: ^uint64(0) - 10}
	end := Timestamp{cycles: 5}
	nanos := timer.DurationNanos(start, end)
	assert.Greater(t, nanos, uint64(0))
}

func TestCrossCheckAgreesWithHistogramPercentiles(t *testing.T) {
	h := NewHistogram()
	samples := make([]float64, 0, 1000)
	for i := int64(1); i <= 1000; i++ {
		h.Record(i)
		samples = append(samples, float64(i))
	}
	pcts := h.Percentiles()
	cc := CrossCheck(samples)

	assert.InDelta(t, 500.5, cc.Mean, 1)
	assert.InDelta(t, cc.Percentile50, float64(pcts.P50), 50)
	assert.Greater(t, cc.Percentile99, cc.Percentile50)
}

func TestCrossCheckEmptySamplesIsZeroValue(t *testing.T) {
	assert.Equal(t, CrossCheckStats{}, CrossCheck(nil))
}
