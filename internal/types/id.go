package types

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// OrderId is a monotonic unsigned integer minted from a process-wide
// counter; uniqueness is guaranteed for the process lifetime, mirroring
// the teacher's single global minting counter design note.
type OrderId uint64

var orderIDCounter uint64

// NextOrderId mints the next OrderId. Safe for concurrent use from any
// submission thread.
func NextOrderId() OrderId {
	return OrderId(atomic.AddUint64(&orderIDCounter, 1))
}

// TradeId is the monotonic identifier minted for each emitted Trade.
type TradeId uint64

var tradeIDCounter uint64

func NextTradeId() TradeId {
	return TradeId(atomic.AddUint64(&tradeIDCounter, 1))
}

// ClientId is an opaque 128-bit identifier supplied by the submitter, used
// for position attribution and P&L accounting.
type ClientId uuid.UUID

// NewClientId mints a random v4 ClientId, for callers that don't already
// have one assigned upstream (e.g. tests).
func NewClientId() ClientId {
	return ClientId(uuid.New())
}

func ParseClientId(s string) (ClientId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ClientId{}, err
	}
	return ClientId(u), nil
}

func (c ClientId) String() string {
	return uuid.UUID(c).String()
}

func (c ClientId) IsZero() bool {
	return c == ClientId{}
}
