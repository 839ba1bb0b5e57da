package engine

import (
	"time"

	"github.com/hftcore/lobengine/internal/errs"
	"github.com/hftcore/lobengine/internal/orderbook"
	"github.com/hftcore/lobengine/internal/types"
)

// SubmitOrderRequest carries the caller-supplied fields of §6's
// Submit-order RPC; the engine mints OrderId and Timestamp.
type SubmitOrderRequest struct {
	Symbol   string
	Side     types.Side
	Type     types.OrderType
	Price    types.Price
	Quantity types.Quantity
	ClientID types.ClientId
}

// OrderStatus tags the outcome of a submit call.
type OrderStatus uint8

const (
	Accepted OrderStatus = iota
	Rejected
	PartiallyFilled
	FullyFilled
)

func (s OrderStatus) String() string {
	switch s {
	case Accepted:
		return "Accepted"
	case Rejected:
		return "Rejected"
	case PartiallyFilled:
		return "PartiallyFilled"
	case FullyFilled:
		return "FullyFilled"
	default:
		return "Unknown"
	}
}

// OrderResponse is the Submit-order RPC's output per §6.
type OrderResponse struct {
	Status            OrderStatus
	OrderID           types.OrderId
	Trades            []types.Trade
	RemainingQuantity types.Quantity
	Timestamp         time.Time
	RejectReason      *errs.TradingError
}

// CancelStatus tags the outcome of a cancel call.
type CancelStatus uint8

const (
	Cancelled CancelStatus = iota
	NotFound
)

func (s CancelStatus) String() string {
	if s == Cancelled {
		return "Cancelled"
	}
	return "NotFound"
}

// CancelResponse is the Cancel RPC's output per §6.
type CancelResponse struct {
	Status    CancelStatus
	Timestamp time.Time
}

// MarketData is the per-symbol read-only snapshot per §6.
type MarketData struct {
	Symbol            string
	BestBid           types.Price
	HasBestBid        bool
	BestAsk           types.Price
	HasBestAsk        bool
	BidSize           types.Quantity
	AskSize           types.Quantity
	LastTradePrice    types.Price
	LastTradeQuantity types.Quantity
	Volume            types.Quantity
	Timestamp         time.Time
}

func (m MarketData) Spread() (types.Price, bool) {
	if !m.HasBestBid || !m.HasBestAsk {
		return 0, false
	}
	return m.BestAsk - m.BestBid, true
}

func (m MarketData) MidPrice() (float64, bool) {
	if !m.HasBestBid || !m.HasBestAsk {
		return 0, false
	}
	return (m.BestBid.Float64() + m.BestAsk.Float64()) / 2, true
}

// Depth is the Depth-query RPC's output per §6, re-exported from
// orderbook.BookSnapshot under the engine's own name so callers don't need
// to import internal/orderbook directly.
type Depth = orderbook.BookSnapshot
