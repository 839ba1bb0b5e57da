package pricelevel

import (
	"sync"
	"sync/atomic"

	"github.com/hftcore/lobengine/internal/types"
)

// LockFree is a price level with atomic running totals and a
// lightly-locked FIFO, grounded on the original's AtomicPriceLevel: total
// quantity and order count are true atomics updated with no mutex, while
// the order-id queue itself is guarded by a narrow RWMutex (matching the
// original's own `parking_lot::RwLock<VecDeque<OrderInfo>>` — despite the
// "Atomic" name, only the counters are genuinely lock-free there too).
// Interior cancellation never removes an id from the queue: callers
// tombstone the Order in the book's id index and the matcher skips
// tombstoned heads when popping.
type LockFree struct {
	price         types.Price
	totalQuantity atomic.Uint64
	orderCount    atomic.Uint64

	mu     sync.RWMutex
	orders []types.OrderId
	head   int // index of the current FIFO head within orders
}

func NewLockFree(price types.Price) *LockFree {
	return &LockFree{price: price, orders: make([]types.OrderId, 0, 16)}
}

func (l *LockFree) Price() types.Price { return l.price }

func (l *LockFree) Add(orderID types.OrderId, qty types.Quantity) {
	l.mu.Lock()
	l.orders = append(l.orders, orderID)
	l.mu.Unlock()
	l.totalQuantity.Add(qty.Raw())
	l.orderCount.Add(1)
}

// Front returns the current FIFO head without consuming it. Tombstoned
// entries are not filtered here — the caller checks the id against the
// order index and calls PopFront to discard them.
func (l *LockFree) Front() (types.OrderId, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.head >= len(l.orders) {
		return 0, false
	}
	return l.orders[l.head], true
}

// PopFront advances the FIFO head, compacting the backing slice
// periodically to bound memory growth from long tombstone runs.
func (l *LockFree) PopFront() (types.OrderId, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.head >= len(l.orders) {
		return 0, false
	}
	id := l.orders[l.head]
	l.head++
	if l.head > 64 && l.head*2 > len(l.orders) {
		remaining := append([]types.OrderId(nil), l.orders[l.head:]...)
		l.orders = remaining
		l.head = 0
	}
	current := l.orderCount.Load()
	if current > 0 {
		l.orderCount.Add(^uint64(0)) // decrement
	}
	return id, true
}

// Reduce atomically decrements the running total via a CAS loop, matching
// the original's fetch_sub semantics without requiring signed wraparound.
func (l *LockFree) Reduce(qty types.Quantity) {
	for {
		cur := l.totalQuantity.Load()
		next := cur - qty.Raw()
		if l.totalQuantity.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (l *LockFree) TotalQuantity() types.Quantity {
	return types.Quantity(l.totalQuantity.Load())
}

func (l *LockFree) OrderCount() int {
	return int(l.orderCount.Load())
}

func (l *LockFree) IsEmpty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.head >= len(l.orders)
}

// Orders returns a snapshot of the live (unconsumed) FIFO, head first. May
// include tombstoned ids; the caller filters against the order index.
func (l *LockFree) Orders() []types.OrderId {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]types.OrderId, len(l.orders)-l.head)
	copy(out, l.orders[l.head:])
	return out
}
