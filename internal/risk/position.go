package risk

import (
	"sync"
	"time"

	"github.com/hftcore/lobengine/internal/types"
)

// Position is one client's net holding in one symbol, grounded on the
// original's risk-manager Position: average price tracked as a weighted
// mean on same-side adds, realized P&L booked on opposite-side trades,
// flipping through zero when a closing trade overshoots the open size.
type Position struct {
	Symbol         string
	ClientID       types.ClientId
	Quantity       float64 // signed: positive long, negative short
	AveragePrice   float64
	UnrealizedPnL  float64
	RealizedPnL    float64
	TotalPnL       float64
	MarkPrice      float64
	HasMarkPrice   bool
	LastUpdate     time.Time
	CreatedAt      time.Time
}

func NewPosition(symbol string, clientID types.ClientId) *Position {
	now := time.Now()
	return &Position{Symbol: symbol, ClientID: clientID, CreatedAt: now, LastUpdate: now}
}

func (p *Position) IsLong() bool  { return p.Quantity > 0 }
func (p *Position) IsShort() bool { return p.Quantity < 0 }
func (p *Position) IsFlat() bool  { return p.Quantity == 0 }

func (p *Position) NotionalValue() float64 { return p.Quantity * p.AveragePrice }

// UpdateMarkPrice recomputes unrealized P&L against a new mark.
func (p *Position) UpdateMarkPrice(mark float64) {
	p.MarkPrice = mark
	p.HasMarkPrice = true
	p.recalcUnrealized()
	p.TotalPnL = p.RealizedPnL + p.UnrealizedPnL
	p.LastUpdate = time.Now()
}

// AddTrade folds one fill into the position: flat-open, same-side
// weighted-average, or opposite-side realized P&L with flip-through-zero
// when the trade's quantity exceeds the open size.
func (p *Position) AddTrade(side types.Side, quantity, price float64) {
	tradeQty := quantity
	if side == types.Sell {
		tradeQty = -quantity
	}

	switch {
	case p.IsFlat():
		p.Quantity = tradeQty
		p.AveragePrice = price

	case (p.IsLong() && side == types.Buy) || (p.IsShort() && side == types.Sell):
		newTotalCost := p.NotionalValue() + quantity*price
		newTotalQty := p.Quantity + tradeQty
		if newTotalQty != 0 {
			p.AveragePrice = newTotalCost / newTotalQty
		}
		p.Quantity = newTotalQty

	default:
		closingQty := quantity
		if abs := absFloat(p.Quantity); closingQty > abs {
			closingQty = abs
		}
		var pnlPerUnit float64
		if p.IsLong() {
			pnlPerUnit = price - p.AveragePrice
		} else {
			pnlPerUnit = p.AveragePrice - price
		}
		p.RealizedPnL += pnlPerUnit * closingQty

		if p.IsLong() {
			p.Quantity -= closingQty
		} else {
			p.Quantity += closingQty
		}

		if remaining := quantity - closingQty; remaining > 0 {
			remainingTradeQty := remaining
			if side == types.Sell {
				remainingTradeQty = -remaining
			}
			p.Quantity = remainingTradeQty
			p.AveragePrice = price
		}
	}

	p.recalcUnrealized()
	p.TotalPnL = p.RealizedPnL + p.UnrealizedPnL
	p.LastUpdate = time.Now()
}

func (p *Position) recalcUnrealized() {
	if !p.HasMarkPrice || p.IsFlat() {
		p.UnrealizedPnL = 0
		return
	}
	var pnlPerUnit float64
	if p.IsLong() {
		pnlPerUnit = p.MarkPrice - p.AveragePrice
	} else {
		pnlPerUnit = p.AveragePrice - p.MarkPrice
	}
	p.UnrealizedPnL = pnlPerUnit * absFloat(p.Quantity)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Tracker aggregates every client's Position in one symbol, mirroring the
// original's PositionTracker aggregate bookkeeping.
type Tracker struct {
	mu                sync.RWMutex
	symbol            string
	positions         map[types.ClientId]*Position
	totalLongQty      float64
	totalShortQty     float64
	netQty            float64
	totalRealizedPnL  float64
	totalUnrealizedPnL float64
	totalPnL          float64
	lastUpdate        time.Time
}

func NewTracker(symbol string) *Tracker {
	return &Tracker{symbol: symbol, positions: make(map[types.ClientId]*Position), lastUpdate: time.Now()}
}

func (t *Tracker) getOrCreate(clientID types.ClientId) *Position {
	pos, ok := t.positions[clientID]
	if !ok {
		pos = NewPosition(t.symbol, clientID)
		t.positions[clientID] = pos
	}
	return pos
}

// ApplyTrade folds a fill into clientID's position and refreshes aggregates.
func (t *Tracker) ApplyTrade(clientID types.ClientId, side types.Side, quantity, price float64) *Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos := t.getOrCreate(clientID)
	pos.AddTrade(side, quantity, price)
	t.updateAggregates()
	return pos
}

// Position returns a copy of clientID's current position, or a zero
// position if none exists yet.
func (t *Tracker) Position(clientID types.ClientId) Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if pos, ok := t.positions[clientID]; ok {
		return *pos
	}
	return *NewPosition(t.symbol, clientID)
}

func (t *Tracker) UpdateMarkPrices(mark float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, pos := range t.positions {
		pos.UpdateMarkPrice(mark)
	}
	t.updateAggregates()
}

func (t *Tracker) TotalExposure() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalLongQty + absFloat(t.totalShortQty)
}

func (t *Tracker) updateAggregates() {
	t.totalLongQty, t.totalShortQty = 0, 0
	t.totalRealizedPnL, t.totalUnrealizedPnL = 0, 0
	for _, pos := range t.positions {
		switch {
		case pos.IsLong():
			t.totalLongQty += pos.Quantity
		case pos.IsShort():
			t.totalShortQty += pos.Quantity
		}
		t.totalRealizedPnL += pos.RealizedPnL
		t.totalUnrealizedPnL += pos.UnrealizedPnL
	}
	t.netQty = t.totalLongQty + t.totalShortQty
	t.totalPnL = t.totalRealizedPnL + t.totalUnrealizedPnL
	t.lastUpdate = time.Now()
}
