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

// priceKeyDesc orders skiplist keys by descending price, used for the bid
// side so Front() yields the best (highest) bid. Grounded on
// VictorVVedtion-perp-dex's priceKeyDesc comparator.
type priceKeyDesc struct{}

func (priceKeyDesc) Compare(lhs, rhs interface{}) int {
	a, b := lhs.(types.Price), rhs.(types.Price)
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

func (priceKeyDesc) CalcScore(key interface{}) float64 {
	return -float64(key.(types.Price))
}

// priceKeyAsc orders ascending, used for the ask side.
type priceKeyAsc struct{}

func (priceKeyAsc) Compare(lhs, rhs interface{}) int {
	a, b := lhs.(types.Price), rhs.(types.Price)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (priceKeyAsc) CalcScore(key interface{}) float64 {
	return float64(key.(types.Price))
}

// LatchedBook is the "Latched" concurrent flavor of §4.4: bid/ask ordered
// maps are huandu/skiplist instances with a per-level exclusive mutex
// (pricelevel.Locked) guarding each level's mutation, plus an orders_by_id
// map behind a single RWMutex and atomic best-price caches.
type LatchedBook struct {
	symbol string

	mu   sync.RWMutex // guards the two skiplists' structure (insert/remove of levels)
	bids *skiplist.SkipList
	asks *skiplist.SkipList

	ordersMu sync.RWMutex
	orders   map[types.OrderId]*types.Order

	bestBidCache atomic.Int64 // 0 => none
	bestAskCache atomic.Int64 // math.MaxInt64 => none
	bidDirty     atomic.Bool
	askDirty     atomic.Bool

	seq atomic.Uint64
}

// NewLatchedBook constructs an empty book for symbol.
func NewLatchedBook(symbol string) *LatchedBook {
	b := &LatchedBook{
		symbol: symbol,
		bids:   skiplist.New(priceKeyDesc{}),
		asks:   skiplist.New(priceKeyAsc{}),
		orders: make(map[types.OrderId]*types.Order),
	}
	b.bestAskCache.Store(int64(types.MaxPrice))
	b.bidDirty.Store(true)
	b.askDirty.Store(true)
	return b
}

func (b *LatchedBook) Symbol() string    { return b.symbol }
func (b *LatchedBook) Sequence() uint64  { return b.seq.Load() }
func (b *LatchedBook) nextSeq() uint64   { return b.seq.Add(1) }

func (b *LatchedBook) sideList(side types.Side) *skiplist.SkipList {
	if side == types.Buy {
		return b.bids
	}
	return b.asks
}

// getOrCreateLevel returns the price level for (side, price), creating it
// under the structural lock if absent.
func (b *LatchedBook) getOrCreateLevel(side types.Side, price types.Price) *pricelevel.Locked {
	list := b.sideList(side)

	b.mu.RLock()
	if el := list.Get(price); el != nil {
		lvl := el.Value.(*pricelevel.Locked)
		b.mu.RUnlock()
		return lvl
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if el := list.Get(price); el != nil {
		return el.Value.(*pricelevel.Locked)
	}
	lvl := pricelevel.NewLocked(price)
	list.Set(price, lvl)
	return lvl
}

func (b *LatchedBook) removeLevelIfEmpty(side types.Side, price types.Price, lvl *pricelevel.Locked) {
	if !lvl.IsEmpty() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if el := b.sideList(side).Get(price); el != nil {
		if l2 := el.Value.(*pricelevel.Locked); l2.IsEmpty() {
			b.sideList(side).Remove(price)
		}
	}
}

func (b *LatchedBook) markDirty(side types.Side) {
	if side == types.Buy {
		b.bidDirty.Store(true)
	} else {
		b.askDirty.Store(true)
	}
}

// refreshBestBid scans the bid skiplist's front (best) and publishes it to
// the cache, clearing the dirty flag.
func (b *LatchedBook) refreshBestBid() (types.Price, bool) {
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

func (b *LatchedBook) refreshBestAsk() (types.Price, bool) {
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

func (b *LatchedBook) BestBid() (types.Price, bool) {
	if b.bidDirty.Load() {
		return b.refreshBestBid()
	}
	v := b.bestBidCache.Load()
	if v == 0 {
		return 0, false
	}
	return types.Price(v), true
}

func (b *LatchedBook) BestAsk() (types.Price, bool) {
	if b.askDirty.Load() {
		return b.refreshBestAsk()
	}
	v := b.bestAskCache.Load()
	if v == int64(types.MaxPrice) {
		return 0, false
	}
	return types.Price(v), true
}

func (b *LatchedBook) GetOrder(orderID types.OrderId) (*types.Order, bool) {
	b.ordersMu.RLock()
	defer b.ordersMu.RUnlock()
	o, ok := b.orders[orderID]
	return o, ok
}

// CancelOrder removes the order from its price level and the id index,
// returning it with Status=Cancelled, or (nil,false) if absent or already
// fully filled (and thus already discarded from the book).
func (b *LatchedBook) CancelOrder(orderID types.OrderId) (*types.Order, bool) {
	b.ordersMu.Lock()
	o, ok := b.orders[orderID]
	if !ok {
		b.ordersMu.Unlock()
		return nil, false
	}
	delete(b.orders, orderID)
	b.ordersMu.Unlock()

	lvl := b.getOrCreateLevel(o.Side, o.Price)
	lvl.Remove(orderID, o.Remaining())
	b.removeLevelIfEmpty(o.Side, o.Price, lvl)
	b.markDirty(o.Side)
	b.nextSeq()

	o.Status = types.Cancelled
	return o, true
}

func (b *LatchedBook) TotalVolume(side types.Side) types.Quantity {
	var total types.Quantity
	b.mu.RLock()
	defer b.mu.RUnlock()
	list := b.sideList(side)
	for el := list.Front(); el != nil; el = el.Next() {
		total = total.Add(el.Value.(*pricelevel.Locked).TotalQuantity())
	}
	return total
}

func (b *LatchedBook) Depth(levels int) BookSnapshot {
	snap := BookSnapshot{Symbol: b.symbol, Timestamp: time.Now(), Sequence: b.Sequence()}
	b.mu.RLock()
	defer b.mu.RUnlock()
	count := 0
	for el := b.bids.Front(); el != nil && count < levels; el = el.Next() {
		lvl := el.Value.(*pricelevel.Locked)
		snap.Bids = append(snap.Bids, PriceLevelSnapshot{Price: el.Key().(types.Price), Quantity: lvl.TotalQuantity()})
		count++
	}
	count = 0
	for el := b.asks.Front(); el != nil && count < levels; el = el.Next() {
		lvl := el.Value.(*pricelevel.Locked)
		snap.Asks = append(snap.Asks, PriceLevelSnapshot{Price: el.Key().(types.Price), Quantity: lvl.TotalQuantity()})
		count++
	}
	return snap
}

// AddOrder implements §4.3's matching algorithm against the opposite-side
// skiplist, then inserts any residual quantity into the incoming order's
// own side.
func (b *LatchedBook) AddOrder(order *types.Order) (MatchResult, error) {
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
		lvl := front.Value.(*pricelevel.Locked)

		matchedAnyAtLevel := false
		for order.Remaining() > 0 {
			headID, ok := lvl.Front()
			if !ok {
				break
			}
			b.ordersMu.RLock()
			resting, ok := b.orders[headID]
			b.ordersMu.RUnlock()
			if !ok || resting.Tombstoned {
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
				b.ordersMu.Lock()
				delete(b.orders, headID)
				b.ordersMu.Unlock()
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
			if l2 := el.Value.(*pricelevel.Locked); l2.IsEmpty() {
				list.Remove(p)
			}
		}
		b.mu.Unlock()
	}

	remaining := order.Remaining()
	if remaining > 0 {
		lvl := b.getOrCreateLevel(order.Side, order.Price)
		lvl.Add(order.ID, remaining)
		b.ordersMu.Lock()
		b.orders[order.ID] = order
		b.ordersMu.Unlock()
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

var _ Book = (*LatchedBook)(nil)
