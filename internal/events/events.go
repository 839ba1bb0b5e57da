// Package events implements C6 (the tagged event taxonomy) and C7 (the
// event pipeline: priority/per-class ingress, batch aggregator, and
// worker dispatch).
package events

import (
	"time"

	"github.com/hftcore/lobengine/internal/types"
)

// Priority is the derived dispatch priority of an Event, per §3: a pure
// function of the variant.
type Priority uint8

const (
	Low Priority = iota
	Normal
	High
	Critical
)

// OrderEventKind tags the variant of an OrderEvent.
type OrderEventKind uint8

const (
	OrderAdd OrderEventKind = iota
	OrderCancel
	OrderModify
	OrderFill
	OrderReject
)

// OrderEvent carries one order-lifecycle transition.
type OrderEvent struct {
	Kind         OrderEventKind
	Order        *types.Order
	OrderID      types.OrderId
	Symbol       string
	ClientID     types.ClientId
	NewPrice     *types.Price
	NewQuantity  *types.Quantity
	FillQuantity types.Quantity
	FillPrice    types.Price
	RejectReason string
	Timestamp    time.Time
}

// TradeEventKind tags the variant of a TradeEvent.
type TradeEventKind uint8

const (
	TradeExecuted TradeEventKind = iota
	TradeSettlement
)

type SettlementStatus uint8

const (
	SettlementPending SettlementStatus = iota
	SettlementSettled
	SettlementFailed
)

type TradeEvent struct {
	Kind        TradeEventKind
	Trade       *types.Trade
	TradeID     types.TradeId
	Settlement  SettlementStatus
	Timestamp   time.Time
}

// HealthStatus is the severity carried by a SystemHealthCheck event.
type HealthStatus uint8

const (
	Healthy HealthStatus = iota
	Warning
	CriticalHealth
	Down
)

type SystemEventKind uint8

const (
	MarketOpen SystemEventKind = iota
	MarketClose
	TradingHalt
	TradingResume
	SystemHealthCheck
)

type SystemEvent struct {
	Kind      SystemEventKind
	Symbol    string
	Reason    string
	Component string
	Status    HealthStatus
	Timestamp time.Time
}

// EventClass is the per-class channel an Event routes to in per-class
// ingress mode.
type EventClass uint8

const (
	ClassOrder EventClass = iota
	ClassTrade
	ClassSystem
)

// Event is the tagged union of OrderEvent | TradeEvent | SystemEvent.
// Exactly one of the three pointer fields is non-nil.
type Event struct {
	Order  *OrderEvent
	Trade  *TradeEvent
	System *SystemEvent
}

func NewOrderEvent(e *OrderEvent) Event   { return Event{Order: e} }
func NewTradeEvent(e *TradeEvent) Event   { return Event{Trade: e} }
func NewSystemEvent(e *SystemEvent) Event { return Event{System: e} }

func (e Event) Class() EventClass {
	switch {
	case e.Order != nil:
		return ClassOrder
	case e.Trade != nil:
		return ClassTrade
	default:
		return ClassSystem
	}
}

func (e Event) Timestamp() time.Time {
	switch {
	case e.Order != nil:
		return e.Order.Timestamp
	case e.Trade != nil:
		return e.Trade.Timestamp
	case e.System != nil:
		return e.System.Timestamp
	default:
		return time.Time{}
	}
}

// Priority implements §3's derived priority function: Cancel/Modify are
// High, TradingHalt and Critical health are Critical, other System events
// are Low, everything else is Normal.
func (e Event) Priority() Priority {
	if e.Order != nil {
		switch e.Order.Kind {
		case OrderCancel, OrderModify:
			return High
		default:
			return Normal
		}
	}
	if e.System != nil {
		if e.System.Kind == TradingHalt {
			return Critical
		}
		if e.System.Kind == SystemHealthCheck && e.System.Status == CriticalHealth {
			return Critical
		}
		return Low
	}
	return Normal
}

// estimatedSize is a rough per-event byte cost used by the batch
// aggregator's max_memory_usage flush trigger, mirroring the original's
// mem::size_of::<Event>() approximation.
const estimatedSize = 128
