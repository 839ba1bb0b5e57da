package latency

import "sync"

// Profiler is the engine-wide latency instrumentation point: one
// AtomicMetrics and one Histogram per named measurement point, created
// lazily on first use, grounded on the original's RdtscProfiler
// (crossbeam_skiplist keyed by point name; here two maps behind a
// sync.RWMutex serve the same lazily-populated, concurrent-read-heavy role).
type Profiler struct {
	timer *Timer
	mu    sync.RWMutex
	atoms map[string]*AtomicMetrics
	hists map[string]*Histogram
}

func NewProfiler() *Profiler {
	return &Profiler{
		timer: NewTimer(),
		atoms: make(map[string]*AtomicMetrics),
		hists: make(map[string]*Histogram),
	}
}

func (p *Profiler) pointMetrics(point string) (*AtomicMetrics, *Histogram) {
	p.mu.RLock()
	a, aok := p.atoms[point]
	h, hok := p.hists[point]
	p.mu.RUnlock()
	if aok && hok {
		return a, h
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if a, aok = p.atoms[point]; !aok {
		a = NewAtomicMetrics()
		p.atoms[point] = a
	}
	if h, hok = p.hists[point]; !hok {
		h = NewHistogram()
		p.hists[point] = h
	}
	return a, h
}

// Start begins a measurement; a zero Timestamp means the substrate is
// disabled and End should no-op.
func (p *Profiler) Start() Timestamp {
	if !IsEnabled() {
		return Timestamp{}
	}
	return p.timer.Now()
}

// End closes the measurement started by start, recording its elapsed
// nanoseconds against point, and returns the elapsed duration.
func (p *Profiler) End(point string, start Timestamp) uint64 {
	if !IsEnabled() || start.cycles == 0 {
		return 0
	}
	end := p.timer.Now()
	nanos := p.timer.DurationNanos(start, end)
	p.RecordLatency(point, nanos)
	return nanos
}

// RecordLatency folds a pre-measured nanosecond latency into point's
// accumulators directly, bypassing Start/End.
func (p *Profiler) RecordLatency(point string, nanos uint64) {
	if !IsEnabled() {
		return
	}
	atoms, hist := p.pointMetrics(point)
	atoms.Record(nanos)
	hist.Record(int64(nanos))
}

// Snapshot returns the lock-free accumulator's snapshot for point, or the
// zero Snapshot if nothing has been recorded yet.
func (p *Profiler) Snapshot(point string) Snapshot {
	p.mu.RLock()
	a, ok := p.atoms[point]
	p.mu.RUnlock()
	if !ok {
		return Snapshot{}
	}
	return a.Snapshot()
}

// Percentiles returns the HDR-style histogram's percentile view for
// point, or the zero Percentiles if nothing has been recorded yet.
func (p *Profiler) Percentiles(point string) Percentiles {
	p.mu.RLock()
	h, ok := p.hists[point]
	p.mu.RUnlock()
	if !ok {
		return Percentiles{}
	}
	return h.Percentiles()
}

// Points lists every measurement point recorded so far.
func (p *Profiler) Points() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	points := make([]string, 0, len(p.atoms))
	for point := range p.atoms {
		points = append(points, point)
	}
	return points
}

// Reset clears every measurement point.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.atoms = make(map[string]*AtomicMetrics)
	p.hists = make(map[string]*Histogram)
}

// global is the process-wide profiler, mirroring the original's
// GLOBAL_RDTSC_PROFILER lazy_static instance.
var global = NewProfiler()

func Global() *Profiler { return global }
