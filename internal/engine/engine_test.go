package engine

import (
	"testing"

	"github.com/hftcore/lobengine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Pipeline.Workers = 2
	e, err := New(cfg, nil)
	require.NoError(t, err)
	e.AddSymbol("BTCUSD")
	e.Start()
	t.Cleanup(e.Stop)
	return e
}

func TestSubmitOrderAcceptedWhenNoCross(t *testing.T) {
	e := newTestEngine(t)
	resp := e.SubmitOrder(SubmitOrderRequest{
		Symbol:   "BTCUSD",
		Side:     types.Buy,
		Type:     types.Limit,
		Price:    types.NewPriceFromFloat(100),
		Quantity: types.NewQuantityFromFloat(1),
		ClientID: types.NewClientId(),
	})
	assert.Equal(t, Accepted, resp.Status)
	assert.Empty(t, resp.Trades)
}

func TestSubmitOrderCrossesAndFills(t *testing.T) {
	e := newTestEngine(t)
	e.SubmitOrder(SubmitOrderRequest{
		Symbol: "BTCUSD", Side: types.Sell, Type: types.Limit,
		Price: types.NewPriceFromFloat(100), Quantity: types.NewQuantityFromFloat(1),
		ClientID: types.NewClientId(),
	})
	resp := e.SubmitOrder(SubmitOrderRequest{
		Symbol: "BTCUSD", Side: types.Buy, Type: types.Limit,
		Price: types.NewPriceFromFloat(100), Quantity: types.NewQuantityFromFloat(1),
		ClientID: types.NewClientId(),
	})
	assert.Equal(t, FullyFilled, resp.Status)
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, types.NewPriceFromFloat(100), resp.Trades[0].Price)
}

func TestSubmitOrderRejectedForUnknownSymbol(t *testing.T) {
	e := newTestEngine(t)
	resp := e.SubmitOrder(SubmitOrderRequest{
		Symbol: "DOGEUSD", Side: types.Buy, Type: types.Limit,
		Price: types.NewPriceFromFloat(1), Quantity: types.NewQuantityFromFloat(1),
		ClientID: types.NewClientId(),
	})
	assert.Equal(t, Rejected, resp.Status)
	require.NotNil(t, resp.RejectReason)
}

func TestSubmitOrderRejectedByRiskGate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Risk.PositionLimit = 0.5
	e, err := New(cfg, nil)
	require.NoError(t, err)
	e.AddSymbol("BTCUSD")
	e.Start()
	defer e.Stop()

	resp := e.SubmitOrder(SubmitOrderRequest{
		Symbol: "BTCUSD", Side: types.Buy, Type: types.Limit,
		Price: types.NewPriceFromFloat(100), Quantity: types.NewQuantityFromFloat(5),
		ClientID: types.NewClientId(),
	})
	assert.Equal(t, Rejected, resp.Status)
	require.NotNil(t, resp.RejectReason)
	assert.Equal(t, "POSITION_LIMIT_EXCEEDED", string(resp.RejectReason.Code))
}

func TestCancelOrderRemovesRestingOrder(t *testing.T) {
	e := newTestEngine(t)
	submitted := e.SubmitOrder(SubmitOrderRequest{
		Symbol: "BTCUSD", Side: types.Buy, Type: types.Limit,
		Price: types.NewPriceFromFloat(100), Quantity: types.NewQuantityFromFloat(1),
		ClientID: types.NewClientId(),
	})
	resp := e.CancelOrder("BTCUSD", submitted.OrderID)
	assert.Equal(t, Cancelled, resp.Status)

	again := e.CancelOrder("BTCUSD", submitted.OrderID)
	assert.Equal(t, NotFound, again.Status)
}

func TestDepthReflectsRestingOrders(t *testing.T) {
	e := newTestEngine(t)
	e.SubmitOrder(SubmitOrderRequest{
		Symbol: "BTCUSD", Side: types.Buy, Type: types.Limit,
		Price: types.NewPriceFromFloat(99), Quantity: types.NewQuantityFromFloat(2),
		ClientID: types.NewClientId(),
	})
	depth, ok := e.Depth("BTCUSD", 10)
	require.True(t, ok)
	require.Len(t, depth.Bids, 1)
	assert.Equal(t, types.NewPriceFromFloat(99), depth.Bids[0].Price)
}

func TestModifyOrderCancelsThenResubmits(t *testing.T) {
	e := newTestEngine(t)
	submitted := e.SubmitOrder(SubmitOrderRequest{
		Symbol: "BTCUSD", Side: types.Buy, Type: types.Limit,
		Price: types.NewPriceFromFloat(100), Quantity: types.NewQuantityFromFloat(1),
		ClientID: types.NewClientId(),
	})
	resp := e.ModifyOrder("BTCUSD", submitted.OrderID, types.NewPriceFromFloat(101), types.NewQuantityFromFloat(2))
	assert.Equal(t, Accepted, resp.Status)
	assert.NotEqual(t, submitted.OrderID, resp.OrderID)

	old := e.CancelOrder("BTCUSD", submitted.OrderID)
	assert.Equal(t, NotFound, old.Status)
}
