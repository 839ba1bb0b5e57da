package risk

import (
	"testing"

	"github.com/hftcore/lobengine/internal/errs"
	"github.com/hftcore/lobengine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asTradingError(err error) (*errs.TradingError, bool) { return errs.As(err) }

func newTestOrder(side types.Side, price, qty float64) *types.Order {
	return &types.Order{
		ID:       types.NextOrderId(),
		Symbol:   "BTCUSD",
		Side:     side,
		Type:     types.Limit,
		Price:    types.NewPriceFromFloat(price),
		Quantity: types.NewQuantityFromFloat(qty),
		ClientID: types.NewClientId(),
	}
}

func TestValidatorRejectsZeroQuantity(t *testing.T) {
	v := NewOrderValidator(DefaultValidationConfig())
	o := newTestOrder(types.Buy, 100, 0)
	err := v.ValidateOrder(o)
	require.Error(t, err)
	te, ok := asTradingError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_QUANTITY", string(te.Code))
}

func TestValidatorRejectsSizeAboveMax(t *testing.T) {
	cfg := DefaultValidationConfig()
	cfg.MaxOrderSize = 10
	v := NewOrderValidator(cfg)
	o := newTestOrder(types.Buy, 100, 50)
	err := v.ValidateOrder(o)
	require.Error(t, err)
	te, _ := asTradingError(err)
	assert.Equal(t, "ORDER_SIZE_EXCEEDS_LIMIT", string(te.Code))
}

func TestValidatorRejectsNotionalAboveLimit(t *testing.T) {
	cfg := DefaultValidationConfig()
	cfg.MaxNotionalValue = 100
	v := NewOrderValidator(cfg)
	o := newTestOrder(types.Buy, 100, 5)
	err := v.ValidateOrder(o)
	require.Error(t, err)
	te, _ := asTradingError(err)
	assert.Equal(t, "NOTIONAL_VALUE_EXCEEDS_LIMIT", string(te.Code))
}

func TestPositionFlatOpenThenSameSideWeightedAverage(t *testing.T) {
	pos := NewPosition("BTCUSD", types.NewClientId())
	pos.AddTrade(types.Buy, 1, 100)
	assert.Equal(t, 1.0, pos.Quantity)
	assert.Equal(t, 100.0, pos.AveragePrice)

	pos.AddTrade(types.Buy, 1, 110)
	assert.Equal(t, 2.0, pos.Quantity)
	assert.InDelta(t, 105.0, pos.AveragePrice, 1e-9)
}

func TestPositionOppositeSideRealizesPnLAndFlipsThroughZero(t *testing.T) {
	pos := NewPosition("BTCUSD", types.NewClientId())
	pos.AddTrade(types.Buy, 2, 100)

	pos.AddTrade(types.Sell, 3, 110)
	assert.InDelta(t, 20.0, pos.RealizedPnL, 1e-9) // (110-100)*2
	assert.Equal(t, -1.0, pos.Quantity)
	assert.Equal(t, 110.0, pos.AveragePrice) // flipped short at trade price
}

func TestGateRejectsPositionLimitBreach(t *testing.T) {
	cfg := DefaultGateConfig()
	cfg.PositionLimit = 1
	gate := NewGate(cfg, nil)
	clientID := types.NewClientId()

	o := newTestOrder(types.Buy, 100, 5)
	o.ClientID = clientID
	err := gate.Admit(o, 0, false)
	require.Error(t, err)
	te, ok := asTradingError(err)
	require.True(t, ok)
	assert.Equal(t, "POSITION_LIMIT_EXCEEDED", string(te.Code))
}

func TestGateRecordFillUpdatesPositionAndCache(t *testing.T) {
	gate := NewGate(DefaultGateConfig(), nil)
	clientID := types.NewClientId()

	gate.RecordFill("BTCUSD", clientID, types.Buy, 2, 100)
	pos := gate.Position("BTCUSD", clientID)
	assert.Equal(t, 2.0, pos.Quantity)
	assert.Equal(t, 100.0, pos.AveragePrice)

	cached := gate.cachedPosition("BTCUSD", clientID)
	assert.Equal(t, 2.0, cached.Quantity)
}

// TestGateAdmitUsesRealizedPnLNotTotal builds a position whose realized P&L
// sits safely within DailyPnLLimit but whose mark-price-driven unrealized
// P&L, if wrongly folded into the check, would breach it. Admit must follow
// realized P&L alone.
func TestGateAdmitUsesRealizedPnLNotTotal(t *testing.T) {
	cfg := DefaultGateConfig()
	cfg.DailyPnLLimit = 50
	gate := NewGate(cfg, nil)
	clientID := types.NewClientId()

	gate.RecordFill("BTCUSD", clientID, types.Buy, 10, 100)
	gate.RecordFill("BTCUSD", clientID, types.Sell, 5, 98)

	pos := gate.Position("BTCUSD", clientID)
	require.Equal(t, -10.0, pos.RealizedPnL)

	gate.UpdateMarks("BTCUSD", 50)
	pos = gate.Position("BTCUSD", clientID)
	require.Less(t, pos.TotalPnL, -cfg.DailyPnLLimit)
	require.Greater(t, pos.RealizedPnL, -cfg.DailyPnLLimit)

	o := newTestOrder(types.Buy, 100, 1)
	o.ClientID = clientID
	err := gate.Admit(o, 0, false)
	assert.NoError(t, err)
}
