package orderbook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/huandu/skiplist"

	"github.com/hftcore/lobengine/internal/pool"
	"github.com/hftcore/lobengine/internal/pricelevel"
	"github.com/hftcore/lobengine/internal/types"
)

// LockFreeBook is the "Lock-free" concurrent flavor of §4.4: each price
// level is a pricelevel.LockFree with atomic counters, cancellation
// tombstones the resting Order instead of physically removing it from the
// level's queue, and the best-price caches are atomics with dirty flags
// exactly as in LatchedBook. The outer per-side ordered maps still use
// skiplist for level lookup/insertion/removal — those structural changes
// are comparatively rare next to per-level mutation, which is where the
// lock-free property matters for throughput.
type LockFreeBook struct {
	symbol string

	mu   sync.RWMutex
	bids *skiplist.SkipList
	asks *skiplist.SkipList

	orders sync.Map // types.OrderId -> *types.Order

	bestBidCache atomic.Int64
	bestAskCache atomic.Int64
	bidDirty     atomic.Bool
	askDirty     atomic.Bool

	seq atomic.Uint64
}

func NewLockFreeBook(symbol string) *LockFreeBook {
	b := &LockFreeBook{
		symbol: symbol,
		bids:   skiplist.New(priceKeyDesc{}),
		asks:   skiplist.New(priceKeyAsc{}),
	}
	b.bestAskCache.Store(int64(types.MaxPrice))
	b.bidDirty.Store(true)
	b.askDirty.Store(true)
	return b
}

func (b *LockFreeBook) Symbol() string   { return b.symbol }
func (b *LockFreeBook) Sequence() uint64 { return b.seq.Load() }
func (b *LockFreeBook) nextSeq() uint64  { return b.seq.Add(1) }

func (b *LockFreeBook) sideList(side types.Side) *skiplist.SkipList {
	if side == types.Buy {
		return b.bids
	}
	return b.asks
}

func (b *LockFreeBook) getOrCreateLevel(side types.Side, price types.Price) *pricelevel.LockFree {
	list := b.sideList(side)

	b.mu.RLock()
	if el := list.Get(price); el != nil {
		lvl := el.Value.(*pricelevel.LockFree)
		b.mu.RUnlock()
		return lvl
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if el := list.Get(price); el != nil {
		return el.Value.(*pricelevel.LockFree)
	}
	lvl := pricelevel.NewLockFree(price)
	list.Set(price, lvl)
	return lvl
}

func (b *LockFreeBook) markDirty(side types.Side) {
	if side == types.Buy {
		b.bidDirty.Store(true)
	} else {
		b.askDirty.Store(true)
	}
}

func (b *LockFreeBook) refreshBestBid() (types.Price, bool) {
	b.mu.RLock()
	front := b.bids.Front()
	b.mu.RUnlock()
	if front == nil {
		b.bestBidCache.Store(0)
		b.bidDirty.Store(false)
		return 0, false
	}
	p := front.Key().(types.Price)
	b.bestBidCache.Store(int64(p))
	b.bidDirty.Store(false)
	return p, true
}

func (b *LockFreeBook) refreshBestAsk() (types.Price, bool) {
	b.mu.RLock()
	front := b.asks.Front()
	b.mu.RUnlock()
	if front == nil {
		b.bestAskCache.Store(int64(types.MaxPrice))
		b.askDirty.Store(false)
		return 0, false
	}
	p := front.Key().(types.Price)
	b.bestAskCache.Store(int64(p))
	b.askDirty.Store(false)
	return p, true
}

func (b *LockFreeBook) BestBid() (types.Price, bool) {
	if b.bidDirty.Load() {
		return b.refreshBestBid()
	}
	v := b.bestBidCache.Load()
	if v == 0 {
		return 0, false
	}
	return types.Price(v), true
}

func (b *LockFreeBook) BestAsk() (types.Price, bool) {
	if b.askDirty.Load() {
		return b.refreshBestAsk()
	}
	v := b.bestAskCache.Load()
	if v == int64(types.MaxPrice) {
		return 0, false
	}
	return types.Price(v), true
}

func (b *LockFreeBook) GetOrder(orderID types.OrderId) (*types.Order, bool) {
	v, ok := b.orders.Load(orderID)
	if !ok {
		return nil, false
	}
	return v.(*types.Order), true
}

// CancelOrder tombstones the order in place rather than removing it from
// its level's queue: the order's Tombstoned flag is set and its quantity
// is subtracted from the level total immediately, so depth/volume queries
// are accurate even though the id lingers in the FIFO until a future match
// pass pops it. A level left with no live quantity is removed from its side
// map.
func (b *LockFreeBook) CancelOrder(orderID types.OrderId) (*types.Order, bool) {
	v, ok := b.orders.Load(orderID)
	if !ok {
		return nil, false
	}
	o := v.(*types.Order)
	if o.IsFullyFilled() || o.Tombstoned {
		return nil, false
	}

	lvl := b.getOrCreateLevel(o.Side, o.Price)
	lvl.Reduce(o.Remaining())
	o.Tombstoned = true
	o.Status = types.Cancelled
	b.orders.Delete(orderID)
	if lvl.TotalQuantity().IsZero() {
		b.mu.Lock()
		list := b.sideList(o.Side)
		if el := list.Get(o.Price); el != nil && el.Value.(*pricelevel.LockFree) == lvl && lvl.TotalQuantity().IsZero() {
			list.Remove(o.Price)
		}
		b.mu.Unlock()
	}
	b.markDirty(o.Side)
	b.nextSeq()
	return o, true
}

func (b *LockFreeBook) TotalVolume(side types.Side) types.Quantity {
	var total types.Quantity
	b.mu.RLock()
	defer b.mu.RUnlock()
	list := b.sideList(side)
	for el := list.Front(); el != nil; el = el.Next() {
		total = total.Add(el.Value.(*pricelevel.LockFree).TotalQuantity())
	}
	return total
}

func (b *LockFreeBook) Depth(levels int) BookSnapshot {
	snap := BookSnapshot{Symbol: b.symbol, Timestamp: time.Now(), Sequence: b.Sequence()}
	b.mu.RLock()
	defer b.mu.RUnlock()
	count := 0
	for el := b.bids.Front(); el != nil && count < levels; el = el.Next() {
		lvl := el.Value.(*pricelevel.LockFree)
		snap.Bids = append(snap.Bids, PriceLevelSnapshot{Price: el.Key().(types.Price), Quantity: lvl.TotalQuantity()})
		count++
	}
	count = 0
	for el := b.asks.Front(); el != nil && count < levels; el = el.Next() {
		lvl := el.Value.(*pricelevel.LockFree)
		snap.Asks = append(snap.Asks, PriceLevelSnapshot{Price: el.Key().(types.Price), Quantity: lvl.TotalQuantity()})
		count++
	}
	return snap
}

func (b *LockFreeBook) AddOrder(order *types.Order) (MatchResult, error) {
	opposite := order.Side.Opposite()
	list := b.sideList(opposite)

	tradesBuf := pool.Global.Acquire(4)
	defer pool.Global.Release(tradesBuf)
	var emptiedPrices []types.Price

	for order.Remaining() > 0 {
		b.mu.RLock()
		front := list.Front()
		b.mu.RUnlock()
		if front == nil {
			break
		}
		levelPrice := front.Key().(types.Price)
		if !canMatch(order, levelPrice) {
			break
		}
		lvl := front.Value.(*pricelevel.LockFree)

		matchedAnyAtLevel := false
		for order.Remaining() > 0 {
			headID, ok := lvl.Front()
			if !ok {
				break
			}
			v, ok := b.orders.Load(headID)
			if !ok {
				lvl.PopFront()
				continue
			}
			resting := v.(*types.Order)
			if resting.Tombstoned {
				lvl.PopFront()
				continue
			}

			q := order.Remaining().Min(resting.Remaining())
			if q.IsZero() {
				break
			}

			buyerID, sellerID, buyerClient, sellerClient := buyerSellerIDs(order, resting)
			*tradesBuf = append(*tradesBuf, types.Trade{
				ID:             types.NextTradeId(),
				Symbol:         b.symbol,
				BuyerOrderID:   buyerID,
				SellerOrderID:  sellerID,
				Price:          levelPrice,
				Quantity:       q,
				Timestamp:      time.Now(),
				BuyerClientID:  buyerClient,
				SellerClientID: sellerClient,
			})

			resting.Fill(q)
			order.Fill(q)
			lvl.Reduce(q)
			b.nextSeq()
			matchedAnyAtLevel = true

			if resting.IsFullyFilled() {
				lvl.PopFront()
				b.orders.Delete(headID)
			}
		}

		if matchedAnyAtLevel {
			b.markDirty(opposite)
		}
		if lvl.IsEmpty() {
			emptiedPrices = append(emptiedPrices, levelPrice)
		}
		if !matchedAnyAtLevel {
			break
		}
	}

	for _, p := range emptiedPrices {
		b.mu.Lock()
		if el := list.Get(p); el != nil {
			if l2 := el.Value.(*pricelevel.LockFree); l2.IsEmpty() {
				list.Remove(p)
			}
		}
		b.mu.Unlock()
	}

	remaining := order.Remaining()
	if remaining > 0 {
		lvl := b.getOrCreateLevel(order.Side, order.Price)
		lvl.Add(order.ID, remaining)
		b.orders.Store(order.ID, order)
		b.markDirty(order.Side)
		b.nextSeq()
	}

	trades := make([]types.Trade, len(*tradesBuf))
	copy(trades, *tradesBuf)

	result := MatchResult{Trades: trades, RemainingQuantity: remaining}
	switch {
	case len(trades) == 0:
		result.Kind = NoMatch
	case remaining > 0:
		result.Kind = PartialMatch
	default:
		result.Kind = FullMatch
	}
	return result, nil
}

var _ Book = (*LockFreeBook)(nil)
