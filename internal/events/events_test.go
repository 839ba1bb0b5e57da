package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityDerivation(t *testing.T) {
	cancel := NewOrderEvent(&OrderEvent{Kind: OrderCancel})
	assert.Equal(t, High, cancel.Priority())

	add := NewOrderEvent(&OrderEvent{Kind: OrderAdd})
	assert.Equal(t, Normal, add.Priority())

	halt := NewSystemEvent(&SystemEvent{Kind: TradingHalt})
	assert.Equal(t, Critical, halt.Priority())

	open := NewSystemEvent(&SystemEvent{Kind: MarketOpen})
	assert.Equal(t, Low, open.Priority())
}

func TestPriorityQueueOrdering(t *testing.T) {
	q := NewPriorityQueue()
	q.Push(NewSystemEvent(&SystemEvent{Kind: MarketOpen}))    // Low, seq 1
	q.Push(NewOrderEvent(&OrderEvent{Kind: OrderAdd}))        // Normal, seq 2
	q.Push(NewOrderEvent(&OrderEvent{Kind: OrderCancel}))     // High, seq 3
	q.Push(NewSystemEvent(&SystemEvent{Kind: TradingHalt}))   // Critical, seq 4

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, Critical, first.Priority())

	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, High, second.Priority())

	third, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, Normal, third.Priority())

	fourth, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, Low, fourth.Priority())

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestBatchFlushOnCount(t *testing.T) {
	cfg := BatchConfig{MaxBatchSize: 2, MaxBatchDelay: time.Hour, MaxMemoryUsage: 1 << 30}
	p := NewBatchProcessor(cfg)

	assert.Nil(t, p.Add(NewOrderEvent(&OrderEvent{})))
	full := p.Add(NewOrderEvent(&OrderEvent{}))
	require.NotNil(t, full)
	assert.Equal(t, 2, full.Len())
	assert.NotEmpty(t, full.ID)
}

func TestBatchFlushOnAge(t *testing.T) {
	cfg := BatchConfig{MaxBatchSize: 1000, MaxBatchDelay: time.Millisecond, MaxMemoryUsage: 1 << 30}
	p := NewBatchProcessor(cfg)
	p.Add(NewOrderEvent(&OrderEvent{}))
	time.Sleep(5 * time.Millisecond)
	full := p.Add(NewOrderEvent(&OrderEvent{}))
	require.NotNil(t, full)
}

func TestPipelinePriorityModeDispatchesAllEvents(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.Workers = 2
	cfg.FlushInterval = 2 * time.Millisecond
	pipeline, err := NewPipeline(cfg, nil)
	require.NoError(t, err)

	var count atomic.Int64
	var mu sync.Mutex
	var batches int

	pipeline.RegisterEventHandler(func(e Event) {
		count.Add(1)
	})
	pipeline.RegisterBatchHandler(func(b *EventBatch) {
		mu.Lock()
		batches++
		mu.Unlock()
	})

	pipeline.Start()
	for i := 0; i < 50; i++ {
		require.NoError(t, pipeline.Submit(NewOrderEvent(&OrderEvent{Kind: OrderAdd})))
	}
	time.Sleep(50 * time.Millisecond)
	pipeline.Stop()

	assert.Equal(t, int64(50), count.Load())
	mu.Lock()
	assert.Greater(t, batches, 0)
	mu.Unlock()
}

func TestChannelsBackpressureFailsFast(t *testing.T) {
	c := NewChannels(1, 0)
	err := c.SendClass(NewOrderEvent(&OrderEvent{Kind: OrderAdd}))
	require.NoError(t, err)
	err = c.SendClass(NewOrderEvent(&OrderEvent{Kind: OrderAdd}))
	assert.ErrorIs(t, err, ErrChannelFull)
}

// TestPipelineConcurrentSubmitRace submits from many goroutines at once
// (run with -race in CI) and asserts every accepted Submit is eventually
// observed by the event handler exactly once — the dequeue loop and the
// ants-pool dispatch must not drop or duplicate work under contention.
func TestPipelineConcurrentSubmitRace(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.Workers = 4
	cfg.ChannelCap = 8192
	cfg.FlushInterval = time.Millisecond
	pipeline, err := NewPipeline(cfg, nil)
	require.NoError(t, err)

	var count atomic.Int64
	pipeline.RegisterEventHandler(func(e Event) {
		count.Add(1)
	})
	pipeline.Start()

	const goroutines, perGoroutine = 32, 100
	var wg sync.WaitGroup
	var accepted atomic.Int64
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if err := pipeline.Submit(NewOrderEvent(&OrderEvent{Kind: OrderAdd})); err == nil {
					accepted.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	time.Sleep(100 * time.Millisecond)
	pipeline.Stop()

	assert.Equal(t, accepted.Load(), count.Load())
}
