package orderbook

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hftcore/lobengine/internal/types"
)

func newOrder(side types.Side, price, qty float64) *types.Order {
	return &types.Order{
		ID:        types.NextOrderId(),
		Symbol:    "SYM",
		Side:      side,
		Type:      types.Limit,
		Price:     types.NewPriceFromFloat(price),
		Quantity:  types.NewQuantityFromFloat(qty),
		Timestamp: time.Now(),
		ClientID:  types.NewClientId(),
	}
}

func bookFlavors() map[string]func(string) Book {
	return map[string]func(string) Book{
		"latched":  func(s string) Book { return NewLatchedBook(s) },
		"lockfree": func(s string) Book { return NewLockFreeBook(s) },
	}
}

func TestCrossAtEqualPrice(t *testing.T) {
	for name, newBook := range bookFlavors() {
		t.Run(name, func(t *testing.T) {
			b := newBook("SYM")
			sell := newOrder(types.Sell, 50000, 1.0)
			_, err := b.AddOrder(sell)
			require.NoError(t, err)

			buy := newOrder(types.Buy, 50000, 1.0)
			res, err := b.AddOrder(buy)
			require.NoError(t, err)

			require.Equal(t, FullMatch, res.Kind)
			require.Len(t, res.Trades, 1)
			assert.Equal(t, types.NewPriceFromFloat(50000), res.Trades[0].Price)
			assert.Equal(t, types.NewQuantityFromFloat(1.0), res.Trades[0].Quantity)

			_, ok := b.BestBid()
			assert.False(t, ok)
			_, ok = b.BestAsk()
			assert.False(t, ok)
		})
	}
}

func TestPartialSweepAcrossLevels(t *testing.T) {
	for name, newBook := range bookFlavors() {
		t.Run(name, func(t *testing.T) {
			b := newBook("SYM")
			_, err := b.AddOrder(newOrder(types.Sell, 50000, 1.0))
			require.NoError(t, err)
			_, err = b.AddOrder(newOrder(types.Sell, 50010, 2.0))
			require.NoError(t, err)

			buy := newOrder(types.Buy, 50020, 2.5)
			res, err := b.AddOrder(buy)
			require.NoError(t, err)

			require.Equal(t, PartialMatch, res.Kind)
			require.Len(t, res.Trades, 2)
			assert.Equal(t, types.NewPriceFromFloat(50000), res.Trades[0].Price)
			assert.Equal(t, types.NewQuantityFromFloat(1.0), res.Trades[0].Quantity)
			assert.Equal(t, types.NewPriceFromFloat(50010), res.Trades[1].Price)
			assert.Equal(t, types.NewQuantityFromFloat(1.5), res.Trades[1].Quantity)
			assert.Equal(t, types.NewQuantityFromFloat(0.5), res.RemainingQuantity)

			bestBid, ok := b.BestBid()
			require.True(t, ok)
			assert.Equal(t, types.NewPriceFromFloat(50020), bestBid)

			bestAsk, ok := b.BestAsk()
			require.True(t, ok)
			assert.Equal(t, types.NewPriceFromFloat(50010), bestAsk)
		})
	}
}

func TestFIFOAtPrice(t *testing.T) {
	for name, newBook := range bookFlavors() {
		t.Run(name, func(t *testing.T) {
			b := newBook("SYM")
			clientA := types.NewClientId()
			clientB := types.NewClientId()

			orderA := newOrder(types.Buy, 100, 1.0)
			orderA.ClientID = clientA
			_, err := b.AddOrder(orderA)
			require.NoError(t, err)

			orderB := newOrder(types.Buy, 100, 1.0)
			orderB.ClientID = clientB
			_, err = b.AddOrder(orderB)
			require.NoError(t, err)

			sell := newOrder(types.Sell, 100, 1.0)
			res, err := b.AddOrder(sell)
			require.NoError(t, err)

			require.Len(t, res.Trades, 1)
			assert.Equal(t, clientA, res.Trades[0].BuyerClientID)

			remaining, ok := b.GetOrder(orderB.ID)
			require.True(t, ok)
			assert.Equal(t, types.NewQuantityFromFloat(1.0), remaining.Remaining())
		})
	}
}

func TestCancelDuringRest(t *testing.T) {
	for name, newBook := range bookFlavors() {
		t.Run(name, func(t *testing.T) {
			b := newBook("SYM")
			order := newOrder(types.Buy, 50000, 1.0)
			_, err := b.AddOrder(order)
			require.NoError(t, err)

			cancelled, ok := b.CancelOrder(order.ID)
			require.True(t, ok)
			assert.Equal(t, types.Cancelled, cancelled.Status)

			snap := b.Depth(1)
			assert.Empty(t, snap.Bids)
		})
	}
}

func TestCancelUnknownReturnsNone(t *testing.T) {
	for name, newBook := range bookFlavors() {
		t.Run(name, func(t *testing.T) {
			b := newBook("SYM")
			_, ok := b.CancelOrder(types.OrderId(999999))
			assert.False(t, ok)
		})
	}
}

func TestMarketOrderBypassesPriceCheck(t *testing.T) {
	for name, newBook := range bookFlavors() {
		t.Run(name, func(t *testing.T) {
			b := newBook("SYM")
			_, err := b.AddOrder(newOrder(types.Sell, 50000, 1.0))
			require.NoError(t, err)

			market := newOrder(types.Buy, 0, 1.0)
			market.Type = types.Market
			res, err := b.AddOrder(market)
			require.NoError(t, err)
			require.Equal(t, FullMatch, res.Kind)
			require.Len(t, res.Trades, 1)
		})
	}
}

func TestSequenceMonotonic(t *testing.T) {
	for name, newBook := range bookFlavors() {
		t.Run(name, func(t *testing.T) {
			b := newBook("SYM")
			before := b.Sequence()
			_, err := b.AddOrder(newOrder(types.Buy, 100, 1.0))
			require.NoError(t, err)
			after := b.Sequence()
			assert.Greater(t, after, before)
		})
	}
}

// TestConcurrentAddAndCancelRace hammers both book flavors with concurrent
// AddOrder calls from many goroutines, then cancels every submitted id from
// concurrent goroutines (run with -race in CI). It asserts only what must
// hold regardless of interleaving: AddOrder never errors and no trade
// carries a zero quantity.
func TestConcurrentAddAndCancelRace(t *testing.T) {
	for name, newBook := range bookFlavors() {
		t.Run(name, func(t *testing.T) {
			b := newBook("SYM")
			const goroutines = 16
			const ordersPerGoroutine = 50

			var wg sync.WaitGroup
			var mu sync.Mutex
			var totalTrades int
			ids := make([]types.OrderId, 0, goroutines*ordersPerGoroutine)

			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					side := types.Buy
					if id%2 == 0 {
						side = types.Sell
					}
					for i := 0; i < ordersPerGoroutine; i++ {
						order := newOrder(side, 100, 0.1)
						res, err := b.AddOrder(order)
						require.NoError(t, err)
						for _, tr := range res.Trades {
							assert.False(t, tr.Quantity.IsZero())
						}
						mu.Lock()
						totalTrades += len(res.Trades)
						ids = append(ids, order.ID)
						mu.Unlock()
					}
				}(g)
			}
			wg.Wait()

			var cwg sync.WaitGroup
			for _, id := range ids {
				cwg.Add(1)
				go func(orderID types.OrderId) {
					defer cwg.Done()
					b.CancelOrder(orderID)
				}(id)
			}
			cwg.Wait()

			assert.GreaterOrEqual(t, totalTrades, 0)
		})
	}
}
