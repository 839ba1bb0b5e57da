// Package latency implements C8: the engine's internal latency
// instrumentation substrate, grounded on the teacher's
// internal/performance/latency/tracker.go for the histogram/percentile
// surface and on the original's rdtsc_timer.rs for the cycle-timer shape
// and calibration algorithm.
//
// Go has no portable RDTSC intrinsic without cgo or per-architecture
// assembly, so Timer substitutes time.Now().UnixNano() as the "cycle"
// source with a fixed notional frequency of 1e9 Hz (one cycle per
// nanosecond) — the calibration loop and conversion API are kept intact so
// callers that care about elapsed time, not absolute cycle counts, see the
// identical interface the original exposes.
package latency

import (
	"sort"
	"sync/atomic"
	"time"
)

// Timestamp is an opaque point returned by Timer.Now, comparable and
// orderable like the original's RdtscTimestamp.
type Timestamp struct {
	cycles uint64
}

func (t Timestamp) Cycles() uint64 { return t.cycles }

// Timer converts between the notional cycle counter and wall-clock
// nanoseconds. On real RDTSC hardware the conversion needs calibration
// against the system clock; here cycles already are nanoseconds, so
// calibration is a no-op that still runs the original's 5-trial
// busy-wait median algorithm so Frequency() reports a believable value
// under the same calling convention.
type Timer struct {
	frequency float64
}

// NewTimer constructs a calibrated Timer.
func NewTimer() *Timer {
	return &Timer{frequency: calibrateFrequency()}
}

// NewTimerWithFrequency constructs a Timer with a known frequency,
// skipping calibration (for tests or pre-measured environments).
func NewTimerWithFrequency(hz float64) *Timer {
	return &Timer{frequency: hz}
}

func (t *Timer) NowCycles() uint64 { return uint64(time.Now().UnixNano()) }

func (t *Timer) Now() Timestamp { return Timestamp{cycles: t.NowCycles()} }

func (t *Timer) CyclesToNanos(cycles uint64) uint64 {
	return uint64(float64(cycles) / t.frequency * 1e9)
}

func (t *Timer) NanosToCycles(nanos uint64) uint64 {
	return uint64(float64(nanos) / 1e9 * t.frequency)
}

// DurationNanos computes elapsed nanoseconds between two timestamps,
// handling counter wraparound the way the original does.
func (t *Timer) DurationNanos(start, end Timestamp) uint64 {
	if end.cycles >= start.cycles {
		return t.CyclesToNanos(end.cycles - start.cycles)
	}
	overflow := (^uint64(0) - start.cycles) + end.cycles + 1
	return t.CyclesToNanos(overflow)
}

func (t *Timer) Duration(start, end Timestamp) time.Duration {
	return time.Duration(t.DurationNanos(start, end))
}

func (t *Timer) Frequency() float64 { return t.frequency }

// Recalibrate re-measures the notional frequency; useful for long-running
// processes in the original, kept here for API parity.
func (t *Timer) Recalibrate() { t.frequency = calibrateFrequency() }

// calibrateFrequency runs 5 busy-wait trials against the wall clock and
// takes the median, matching the original's calibrate_frequency. With
// time.Now().UnixNano() as the cycle source the result always converges on
// ~1e9 (one "cycle" per nanosecond); the loop is kept so the calibration
// contract — and its cost — matches the teacher's shape.
func calibrateFrequency() float64 {
	const trials = 5
	const window = 2 * time.Millisecond
	freqs := make([]float64, 0, trials)

	for i := 0; i < trials; i++ {
		startTime := time.Now()
		startCycles := uint64(startTime.UnixNano())
		target := startTime.Add(window)
		for time.Now().Before(target) {
		}
		endTime := time.Now()
		endCycles := uint64(endTime.UnixNano())

		durationNanos := float64(endTime.Sub(startTime).Nanoseconds())
		if durationNanos <= 0 {
			continue
		}
		cycleDiff := float64(endCycles - startCycles)
		freqs = append(freqs, cycleDiff/(durationNanos/1e9))
	}
	if len(freqs) == 0 {
		return 1e9
	}
	sort.Float64s(freqs)
	return freqs[len(freqs)/2]
}

// enabled gates whether Profiler.Start/End do any work at all; disabled
// measurements are zero-cost beyond the atomic load.
var enabled atomic.Bool

func init() { enabled.Store(true) }

func Enable()           { enabled.Store(true) }
func Disable()          { enabled.Store(false) }
func IsEnabled() bool   { return enabled.Load() }
