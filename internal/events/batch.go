package events

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

// BatchConfig governs the three independent flush triggers, grounded on
// the original's BatchConfig defaults.
type BatchConfig struct {
	MaxBatchSize   int
	MaxBatchDelay  time.Duration
	MaxMemoryUsage int
}

func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxBatchSize:   1000,
		MaxBatchDelay:  10 * time.Millisecond,
		MaxMemoryUsage: 1024 * 1024,
	}
}

// EventBatch accumulates events between flushes.
type EventBatch struct {
	ID            string
	events        []Event
	createdAt     time.Time
	estimatedSize int
}

func NewEventBatch(capacity int) *EventBatch {
	return &EventBatch{events: make([]Event, 0, capacity), createdAt: time.Now()}
}

func (b *EventBatch) Add(e Event) {
	b.events = append(b.events, e)
	b.estimatedSize += estimatedSize
}

func (b *EventBatch) Len() int          { return len(b.events) }
func (b *EventBatch) IsEmpty() bool     { return len(b.events) == 0 }
func (b *EventBatch) Size() int         { return b.estimatedSize }
func (b *EventBatch) Age() time.Duration { return time.Since(b.createdAt) }
func (b *EventBatch) Events() []Event   { return b.events }

// ShouldFlush evaluates the three independent triggers: count, age, bytes.
func (b *EventBatch) ShouldFlush(cfg BatchConfig) bool {
	return b.Len() >= cfg.MaxBatchSize ||
		b.Age() >= cfg.MaxBatchDelay ||
		b.Size() >= cfg.MaxMemoryUsage
}

// BatchStats reports cumulative and current-batch statistics.
type BatchStats struct {
	ProcessedBatches  uint64
	ProcessedEvents   uint64
	PendingEvents     int
	CurrentBatchAge   time.Duration
	CurrentBatchSize  int
}

// BatchProcessor owns the active batch and swaps it out on flush,
// grounded on the original's BatchProcessor (Mutex<EventBatch> swap via
// mem::replace).
type BatchProcessor struct {
	mu                sync.Mutex
	batch             *EventBatch
	cfg               BatchConfig
	processedBatches  uint64
	processedEvents   uint64
	idCounter         uint64
}

func NewBatchProcessor(cfg BatchConfig) *BatchProcessor {
	return &BatchProcessor{
		batch: NewEventBatch(cfg.MaxBatchSize),
		cfg:   cfg,
	}
}

// Add appends event to the active batch and swaps it out for a fresh one
// if any flush trigger now holds, returning the completed batch.
func (p *BatchProcessor) Add(e Event) *EventBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batch.Add(e)
	if p.batch.ShouldFlush(p.cfg) {
		old := p.batch
		old.ID = ksuid.New().String()
		p.idCounter++
		p.batch = NewEventBatch(p.cfg.MaxBatchSize)
		return old
	}
	return nil
}

// Flush forces a swap regardless of triggers, used by the periodic flush
// task; returns nil if the active batch is empty.
func (p *BatchProcessor) Flush() *EventBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.batch.IsEmpty() {
		return nil
	}
	old := p.batch
	old.ID = ksuid.New().String()
	p.idCounter++
	p.batch = NewEventBatch(p.cfg.MaxBatchSize)
	return old
}

func (p *BatchProcessor) MarkProcessed(b *EventBatch) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processedBatches++
	p.processedEvents += uint64(b.Len())
}

func (p *BatchProcessor) Stats() BatchStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return BatchStats{
		ProcessedBatches: p.processedBatches,
		ProcessedEvents:  p.processedEvents,
		PendingEvents:    p.batch.Len(),
		CurrentBatchAge:  p.batch.Age(),
		CurrentBatchSize: p.batch.Size(),
	}
}
