package events

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// IngressMode selects how the engine feeds events into the pipeline; the
// engine picks one at startup per §4.6.
type IngressMode uint8

const (
	ModePriority IngressMode = iota
	ModePerClass
)

// EventHandler is invoked once per dequeued event, in registration order.
type EventHandler func(Event)

// BatchHandler is invoked once per flushed batch, in registration order,
// on the closed (no longer mutable) batch.
type BatchHandler func(*EventBatch)

// PipelineConfig configures worker count, ingress mode, and batching.
type PipelineConfig struct {
	Mode          IngressMode
	Workers       int
	ChannelCap    int
	RateLimit     float64 // 0 disables per-class throttling
	Batch         BatchConfig
	FlushInterval time.Duration
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Mode:          ModePriority,
		Workers:       0, // 0 => runtime.GOMAXPROCS at NewPipeline
		ChannelCap:    4096,
		Batch:         DefaultBatchConfig(),
		FlushInterval: 10 * time.Millisecond,
	}
}

// Pipeline is C7: the priority/per-class ingress, batch aggregator, and
// worker dispatch, wired to a panjf2000/ants bounded goroutine pool for
// handler invocation, grounded on the teacher's
// internal/architecture/fx/workerpool/worker_pool.go.
type Pipeline struct {
	cfg      PipelineConfig
	channels *Channels
	batch    *BatchProcessor
	workers  *ants.Pool
	logger   *zap.Logger

	eventHandlersMu sync.RWMutex
	eventHandlers   []EventHandler

	batchHandlersMu sync.RWMutex
	batchHandlers   []BatchHandler

	running   atomic.Bool
	wg        sync.WaitGroup
	stopFlush chan struct{}
}

// NewPipeline constructs a stopped pipeline. Call Start to begin
// processing.
func NewPipeline(cfg PipelineConfig, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(i interface{}) {
		logger.Warn("events: handler panic recovered", zap.Any("panic", i))
	}))
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		channels: NewChannels(cfg.ChannelCap, cfg.RateLimit),
		batch:    NewBatchProcessor(cfg.Batch),
		workers:  pool,
		logger:   logger,
	}, nil
}

// RegisterEventHandler adds a per-event handler; handlers fire in
// registration order.
func (p *Pipeline) RegisterEventHandler(h EventHandler) {
	p.eventHandlersMu.Lock()
	defer p.eventHandlersMu.Unlock()
	p.eventHandlers = append(p.eventHandlers, h)
}

// RegisterBatchHandler adds a per-batch handler.
func (p *Pipeline) RegisterBatchHandler(h BatchHandler) {
	p.batchHandlersMu.Lock()
	defer p.batchHandlersMu.Unlock()
	p.batchHandlers = append(p.batchHandlers, h)
}

// Submit routes e according to the configured ingress mode.
func (p *Pipeline) Submit(e Event) error {
	if p.cfg.Mode == ModePriority {
		p.channels.SendPriority(e)
		return nil
	}
	return p.channels.SendClass(e)
}

// Start launches the dequeue loop (one goroutine, matching the single
// shared priority queue / per-class select) plus the periodic flush task.
// Each handler invocation for a dequeued event runs on the ants pool, which
// recovers handler panics; the dequeue loop waits for an event's handlers to
// finish before taking the next event.
func (p *Pipeline) Start() {
	p.running.Store(true)
	p.stopFlush = make(chan struct{})

	p.wg.Add(1)
	go p.dequeueLoop()

	p.wg.Add(1)
	go p.flushLoop()
}

// Stop flips the running flag; workers finish their current event then
// exit, with a best-effort final flush round per §4.6's shutdown
// semantics.
func (p *Pipeline) Stop() {
	p.running.Store(false)
	close(p.stopFlush)
	p.wg.Wait()
	p.finalFlush()
	p.workers.Release()
}

func (p *Pipeline) dequeueLoop() {
	defer p.wg.Done()
	for p.running.Load() {
		var e Event
		var ok bool
		if p.cfg.Mode == ModePriority {
			e, ok = p.channels.Priority().Pop()
			if !ok {
				time.Sleep(time.Millisecond)
				continue
			}
		} else {
			select {
			case e = <-p.channels.ReceiveClass(ClassOrder):
				ok = true
			case e = <-p.channels.ReceiveClass(ClassTrade):
				ok = true
			case e = <-p.channels.ReceiveClass(ClassSystem):
				ok = true
			case <-time.After(time.Millisecond):
				ok = false
			}
			if !ok {
				continue
			}
		}
		p.dispatch(e)
	}
}

// dispatch invokes every registered event handler for e (via the worker
// pool, recovering panics) and appends e to the active batch, flushing
// batch handlers if the append triggered a flush.
func (p *Pipeline) dispatch(e Event) {
	p.eventHandlersMu.RLock()
	handlers := p.eventHandlers
	p.eventHandlersMu.RUnlock()

	for _, h := range handlers {
		h := h
		done := make(chan struct{})
		err := p.workers.Submit(func() {
			defer close(done)
			h(e)
		})
		if err != nil {
			p.logger.Warn("events: worker pool submit failed, running handler inline", zap.Error(err))
			h(e)
			continue
		}
		<-done
	}

	if full := p.batch.Add(e); full != nil {
		p.runBatchHandlers(full)
	}
}

func (p *Pipeline) runBatchHandlers(b *EventBatch) {
	p.batchHandlersMu.RLock()
	handlers := p.batchHandlers
	p.batchHandlersMu.RUnlock()
	for _, h := range handlers {
		h(b)
	}
	p.batch.MarkProcessed(b)
}

func (p *Pipeline) flushLoop() {
	defer p.wg.Done()
	interval := p.cfg.FlushInterval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if b := p.batch.Flush(); b != nil {
				p.runBatchHandlers(b)
			}
		case <-p.stopFlush:
			return
		}
	}
}

func (p *Pipeline) finalFlush() {
	if b := p.batch.Flush(); b != nil {
		p.runBatchHandlers(b)
	}
}

func (p *Pipeline) Stats() BatchStats { return p.batch.Stats() }
