package latency

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CrossCheckStats computes descriptive statistics over a raw slice of
// nanosecond latency samples using gonum/stat, independent of the
// bucketed AtomicMetrics/Histogram estimates. It exists to validate those
// estimates in tests (and in ad hoc reporting over raw samples) against
// an exact computation rather than trusting the approximations to
// check themselves.
type CrossCheckStats struct {
	Mean       float64
	StdDev     float64
	Percentile50 float64
	Percentile99 float64
}

// CrossCheck sorts a copy of samples and derives Mean/StdDev/percentiles
// via gonum/stat.Mean, stat.StdDev, and stat.Quantile (empirical CDF).
func CrossCheck(samples []float64) CrossCheckStats {
	if len(samples) == 0 {
		return CrossCheckStats{}
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	return CrossCheckStats{
		Mean:         mean,
		StdDev:       stat.StdDev(sorted, nil),
		Percentile50: stat.Quantile(0.50, stat.Empirical, sorted, nil),
		Percentile99: stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
}
