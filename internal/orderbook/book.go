// Package orderbook implements C3: the per-symbol order book, its
// best-price caches, and the price-time-priority matching algorithm,
// in two concurrent flavors (Latched and LockFree) sharing the same
// MatchResult contract.
package orderbook

import (
	"time"

	"github.com/hftcore/lobengine/internal/errs"
	"github.com/hftcore/lobengine/internal/types"
)

// MatchResultKind tags the outcome of an AddOrder call.
type MatchResultKind uint8

const (
	NoMatch MatchResultKind = iota
	PartialMatch
	FullMatch
)

// MatchResult is the outcome triple: the trades produced, any residual
// quantity left on the incoming order, and its kind.
type MatchResult struct {
	Kind              MatchResultKind
	Trades            []types.Trade
	RemainingQuantity types.Quantity
}

// PriceLevelSnapshot is one row of a BookSnapshot.
type PriceLevelSnapshot struct {
	Price    types.Price
	Quantity types.Quantity
}

// BookSnapshot is the depth() response: top-N levels per side plus the
// book's sequence number and a capture timestamp.
type BookSnapshot struct {
	Symbol    string
	Bids      []PriceLevelSnapshot
	Asks      []PriceLevelSnapshot
	Sequence  uint64
	Timestamp time.Time
}

// Book is the shared contract both concurrent flavors satisfy. Engine (C9)
// depends only on this interface so it can run either flavor per symbol.
type Book interface {
	Symbol() string
	AddOrder(order *types.Order) (MatchResult, error)
	CancelOrder(orderID types.OrderId) (*types.Order, bool)
	GetOrder(orderID types.OrderId) (*types.Order, bool)
	BestBid() (types.Price, bool)
	BestAsk() (types.Price, bool)
	Depth(levels int) BookSnapshot
	TotalVolume(side types.Side) types.Quantity
	Sequence() uint64
}

// ErrUnknownSymbol is unused internally (the book does not re-validate
// symbol match per §4.2: "the caller is responsible") but is provided for
// callers (the engine) that want a stable sentinel for the case.
var ErrUnknownSymbol = errs.New(errs.UnsupportedSymbol, "symbol not registered with this book")

// canMatch decides whether an incoming order may cross a resting level at
// levelPrice, per §4.3 step 2: Market accepts any price; Limit requires
// the book-relation to hold against the incoming limit price.
func canMatch(incoming *types.Order, levelPrice types.Price) bool {
	if incoming.Type == types.Market {
		return true
	}
	if incoming.Side == types.Buy {
		return incoming.Price >= levelPrice
	}
	return incoming.Price <= levelPrice
}

// buyerSeller resolves the (buyer, seller) order-id/client-id pairing for
// a trade between the incoming order and a resting order, based on the
// incoming order's side.
func buyerSellerIDs(incoming, resting *types.Order) (buyerID, sellerID types.OrderId, buyerClient, sellerClient types.ClientId) {
	if incoming.Side == types.Buy {
		return incoming.ID, resting.ID, incoming.ClientID, resting.ClientID
	}
	return resting.ID, incoming.ID, resting.ClientID, incoming.ClientID
}
