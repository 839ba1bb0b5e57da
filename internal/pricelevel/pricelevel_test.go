package pricelevel

import (
	"testing"

	"github.com/hftcore/lobengine/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestLockedFIFOOrder(t *testing.T) {
	lvl := NewLocked(types.NewPriceFromFloat(100))
	lvl.Add(1, types.NewQuantityFromFloat(1))
	lvl.Add(2, types.NewQuantityFromFloat(1))

	head, ok := lvl.Front()
	assert.True(t, ok)
	assert.Equal(t, types.OrderId(1), head)

	popped, ok := lvl.PopFront()
	assert.True(t, ok)
	assert.Equal(t, types.OrderId(1), popped)

	head, ok = lvl.Front()
	assert.True(t, ok)
	assert.Equal(t, types.OrderId(2), head)
}

func TestLockedRemoveInterior(t *testing.T) {
	lvl := NewLocked(types.NewPriceFromFloat(100))
	q := types.NewQuantityFromFloat(1)
	lvl.Add(1, q)
	lvl.Add(2, q)
	lvl.Add(3, q)

	ok := lvl.Remove(2, q)
	assert.True(t, ok)
	assert.Equal(t, []types.OrderId{1, 3}, lvl.Orders())
	assert.Equal(t, q.Add(q), lvl.TotalQuantity())
}

func TestLockedEmptyWhenDrained(t *testing.T) {
	lvl := NewLocked(types.NewPriceFromFloat(100))
	assert.True(t, lvl.IsEmpty())
	lvl.Add(1, types.NewQuantityFromFloat(1))
	assert.False(t, lvl.IsEmpty())
	lvl.PopFront()
	assert.True(t, lvl.IsEmpty())
}

func TestLockFreeFIFOAndTombstoneSkip(t *testing.T) {
	lvl := NewLockFree(types.NewPriceFromFloat(100))
	q := types.NewQuantityFromFloat(1)
	lvl.Add(1, q)
	lvl.Add(2, q)

	head, ok := lvl.Front()
	assert.True(t, ok)
	assert.Equal(t, types.OrderId(1), head)

	// Simulate a tombstoned head: caller checks the order index, finds it
	// cancelled, and discards via PopFront without reducing quantity again
	// (the cancellation already reduced total_quantity).
	popped, _ := lvl.PopFront()
	assert.Equal(t, types.OrderId(1), popped)

	head, ok = lvl.Front()
	assert.True(t, ok)
	assert.Equal(t, types.OrderId(2), head)
}

func TestLockFreeTotalsAreAtomic(t *testing.T) {
	lvl := NewLockFree(types.NewPriceFromFloat(100))
	q := types.NewQuantityFromFloat(2)
	lvl.Add(1, q)
	assert.Equal(t, q, lvl.TotalQuantity())
	lvl.Reduce(q)
	assert.Equal(t, types.ZeroQuantity, lvl.TotalQuantity())
}
