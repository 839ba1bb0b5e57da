package latency

import (
	gometrics "github.com/rcrowley/go-metrics"
)

// Histogram is the HDR-style percentile view of a measurement point,
// grounded on the teacher's LatencyTracker use of rcrowley/go-metrics'
// exponentially-decaying reservoir sample — the same library the teacher
// reaches for wherever it needs percentile stats over a stream of
// latencies, rather than a hand-rolled approximation.
type Histogram struct {
	inner gometrics.Histogram
}

// NewHistogram builds a Histogram over a 1028-sample exponentially decaying
// reservoir, matching the teacher's NewExpDecaySample(1028, 0.015) call.
func NewHistogram() *Histogram {
	return &Histogram{inner: gometrics.NewHistogram(gometrics.NewExpDecaySample(1028, 0.015))}
}

func (h *Histogram) Record(nanos int64) { h.inner.Update(nanos) }

func (h *Histogram) RecordDuration(nanos uint64) { h.inner.Update(int64(nanos)) }

func (h *Histogram) Count() int64 { return h.inner.Count() }
func (h *Histogram) Min() int64   { return h.inner.Min() }
func (h *Histogram) Max() int64   { return h.inner.Max() }
func (h *Histogram) Mean() float64 {
	return h.inner.Mean()
}

// Percentiles reports the fixed set the original's Histogram::percentiles
// exposes: p50/p90/p95/p99/p99.9/p99.99.
type Percentiles struct {
	P50, P90, P95, P99, P999, P9999 int64
}

func (h *Histogram) Percentiles() Percentiles {
	return Percentiles{
		P50:   int64(h.inner.Percentile(0.50)),
		P90:   int64(h.inner.Percentile(0.90)),
		P95:   int64(h.inner.Percentile(0.95)),
		P99:   int64(h.inner.Percentile(0.99)),
		P999:  int64(h.inner.Percentile(0.999)),
		P9999: int64(h.inner.Percentile(0.9999)),
	}
}

func (h *Histogram) Reset() { h.inner.Clear() }
