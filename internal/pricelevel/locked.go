// Package pricelevel implements the FIFO queue of resting orders at a
// single price, in two flavors with an identical observable contract: a
// mutex-backed deque (Locked) and a level with atomic counters and a
// narrowly locked id queue (LockFree) that tombstones interior
// cancellations instead of removing them in place.
package pricelevel

import (
	"container/list"
	"sync"

	"github.com/hftcore/lobengine/internal/types"
)

// Locked is a price level backed by a doubly-linked list guarded by a
// single exclusive mutex, grounded on the original's PriceLevel
// (VecDeque<OrderId> + scalar total).
type Locked struct {
	mu            sync.Mutex
	price         types.Price
	totalQuantity types.Quantity
	orderCount    int
	orders        *list.List // of types.OrderId
}

// NewLocked constructs an empty price level at the given price.
func NewLocked(price types.Price) *Locked {
	return &Locked{
		price:  price,
		orders: list.New(),
	}
}

func (l *Locked) Price() types.Price { return l.price }

// Add appends order_id to the FIFO tail and increases the running total.
func (l *Locked) Add(orderID types.OrderId, qty types.Quantity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders.PushBack(orderID)
	l.totalQuantity = l.totalQuantity.Add(qty)
	l.orderCount++
}

// Front returns the head order id without removing it.
func (l *Locked) Front() (types.OrderId, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.orders.Front()
	if e == nil {
		return 0, false
	}
	return e.Value.(types.OrderId), true
}

// PopFront removes and returns the head order id.
func (l *Locked) PopFront() (types.OrderId, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.orders.Front()
	if e == nil {
		return 0, false
	}
	l.orders.Remove(e)
	if l.orderCount > 0 {
		l.orderCount--
	}
	return e.Value.(types.OrderId), true
}

// Reduce decrements total_quantity without touching head identity; head
// quantity bookkeeping lives on the Order itself.
func (l *Locked) Reduce(qty types.Quantity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totalQuantity = l.totalQuantity.Sub(qty)
}

// Remove deletes an interior member by id in O(n) on the level's length —
// acceptable because interior cancels are rare in typical flow.
func (l *Locked) Remove(orderID types.OrderId, qty types.Quantity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for e := l.orders.Front(); e != nil; e = e.Next() {
		if e.Value.(types.OrderId) == orderID {
			l.orders.Remove(e)
			l.totalQuantity = l.totalQuantity.Sub(qty)
			if l.orderCount > 0 {
				l.orderCount--
			}
			return true
		}
	}
	return false
}

func (l *Locked) IsEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.orders.Len() == 0
}

func (l *Locked) OrderCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.orderCount
}

func (l *Locked) TotalQuantity() types.Quantity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalQuantity
}

// Orders returns a snapshot slice of the FIFO, head first.
func (l *Locked) Orders() []types.OrderId {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.OrderId, 0, l.orders.Len())
	for e := l.orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(types.OrderId))
	}
	return out
}
