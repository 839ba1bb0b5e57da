package types

import "time"

// Side identifies which side of the book an order or trade leg sits on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the other side, used when the matcher selects the
// opposite-side map to walk for an incoming order.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType enumerates the supported order types. Stop and StopLimit are
// accepted at the type level (§3 supplement) but THE CORE does not
// implement stop-trigger semantics: the book treats them identically to
// Limit for matching purposes.
type OrderType uint8

const (
	Limit OrderType = iota
	Market
	Stop
	StopLimit
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case Stop:
		return "stop"
	case StopLimit:
		return "stop_limit"
	default:
		return "unknown"
	}
}

// OrderStatus is the lifecycle state of an Order.
type OrderStatus uint8

const (
	Pending OrderStatus = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Order is the resting/incoming unit the book and risk gate operate on.
// Invariants: FilledQuantity <= Quantity; Status == Filled iff
// FilledQuantity == Quantity; Price > 0 for non-Market types.
type Order struct {
	ID              OrderId
	Symbol          string
	Side            Side
	Type            OrderType
	Price           Price
	Quantity        Quantity
	FilledQuantity  Quantity
	Status          OrderStatus
	Timestamp       time.Time
	ClientID        ClientId

	// Tombstoned marks an order as logically cancelled while still
	// physically present in a lock-free price level's FIFO queue; the
	// matcher skips tombstoned heads instead of performing an O(n) removal.
	Tombstoned bool
}

// Remaining returns the quantity still eligible to be matched.
func (o *Order) Remaining() Quantity {
	return o.Quantity.Sub(o.FilledQuantity)
}

// IsFullyFilled reports whether the order has no remaining quantity.
func (o *Order) IsFullyFilled() bool {
	return o.FilledQuantity == o.Quantity
}

// Fill applies a fill of qty to the order, updating FilledQuantity and
// Status. Panics if qty would overfill, mirroring Quantity.Sub's
// non-saturating contract.
func (o *Order) Fill(qty Quantity) {
	o.FilledQuantity = o.FilledQuantity.Add(qty)
	if o.FilledQuantity > o.Quantity {
		panic("types: order overfilled")
	}
	if o.FilledQuantity == o.Quantity {
		o.Status = Filled
	} else if o.FilledQuantity > 0 {
		o.Status = PartiallyFilled
	}
}

// SignedQuantity returns the order's quantity signed by side: positive for
// Buy, negative for Sell. Used by position accounting.
func (o *Order) SignedQuantity() float64 {
	if o.Side == Sell {
		return -o.Quantity.Float64()
	}
	return o.Quantity.Float64()
}

// Trade is the immutable record of one match between a resting order and
// an incoming order. Invariants: Quantity > 0; Price > 0; BuyerOrderID and
// SellerOrderID reference orders that existed at match time.
type Trade struct {
	ID             TradeId
	Symbol         string
	BuyerOrderID   OrderId
	SellerOrderID  OrderId
	Price          Price
	Quantity       Quantity
	Timestamp      time.Time
	BuyerClientID  ClientId
	SellerClientID ClientId
}
