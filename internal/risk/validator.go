// Package risk implements C5: pre-trade order validation, position and P&L
// tracking, and the circuit-breaker/cache wrapping around them, grounded on
// the teacher's internal/risk/position_manager.go and
// internal/architecture/fx/resilience/circuit_breaker.go, and on the
// original's risk-manager validation.rs / position.rs semantics.
package risk

import (
	"github.com/hftcore/lobengine/internal/errs"
	"github.com/hftcore/lobengine/internal/types"
)

// ValidationConfig toggles each check independently, mirroring the
// original's ValidationConfig.
type ValidationConfig struct {
	EnablePriceValidation    bool
	EnableSizeValidation     bool
	EnablePositionValidation bool
	EnablePnLValidation      bool
	EnableNotionalValidation bool
	EnableMarketHours        bool

	MaxOrderSize        float64
	MinOrderSize        float64
	MaxPriceDeviationPct float64
	MaxNotionalValue    float64
	SupportedSymbols    map[string]struct{}
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		EnablePriceValidation:    true,
		EnableSizeValidation:     true,
		EnablePositionValidation: true,
		EnablePnLValidation:      true,
		EnableNotionalValidation: true,
		EnableMarketHours:        false,
		MaxOrderSize:             1000,
		MinOrderSize:             0.001,
		MaxPriceDeviationPct:     5.0,
		MaxNotionalValue:         1_000_000,
		SupportedSymbols:         map[string]struct{}{"BTCUSD": {}, "ETHUSD": {}},
	}
}

// OrderValidator runs the short-circuiting check pipeline: shape, size,
// notional, then (when a reference price / position / P&L are supplied)
// price deviation, position impact, and daily P&L impact.
type OrderValidator struct {
	cfg ValidationConfig
}

func NewOrderValidator(cfg ValidationConfig) *OrderValidator {
	return &OrderValidator{cfg: cfg}
}

// ValidateOrder runs the checks that need only the order itself: shape,
// size, notional.
func (v *OrderValidator) ValidateOrder(o *types.Order) error {
	if err := v.validateShape(o); err != nil {
		return err
	}
	if v.cfg.EnableSizeValidation {
		if err := v.validateSize(o); err != nil {
			return err
		}
	}
	if v.cfg.EnableNotionalValidation {
		if err := v.validateNotional(o); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWithReferencePrice additionally checks price deviation against a
// reference (e.g. last trade or mid) when price validation is enabled.
func (v *OrderValidator) ValidateWithReferencePrice(o *types.Order, referencePrice float64, hasReference bool) error {
	if err := v.ValidateOrder(o); err != nil {
		return err
	}
	if v.cfg.EnablePriceValidation && hasReference {
		return v.validatePriceDeviation(o.Price.Float64(), referencePrice)
	}
	return nil
}

// ValidatePositionImpact rejects an order that would push the client's
// position (in the order's direction) past positionLimit.
func (v *OrderValidator) ValidatePositionImpact(o *types.Order, currentPosition, positionLimit float64) error {
	if !v.cfg.EnablePositionValidation {
		return nil
	}
	orderQty := o.Quantity.Float64()
	if o.Side == types.Sell {
		orderQty = -orderQty
	}
	newPosition := currentPosition + orderQty
	if absFloat(newPosition) > positionLimit {
		return errs.Newf(errs.PositionLimitExceeded,
			"position limit exceeded: current %.6f new %.6f limit %.6f", currentPosition, newPosition, positionLimit).
			WithDetail("current", currentPosition).
			WithDetail("new_position", newPosition).
			WithDetail("limit", positionLimit)
	}
	return nil
}

// ValidatePnLImpact rejects any order once currentPnL (the Gate passes the
// client's realized P&L) is below -pnlLimit.
func (v *OrderValidator) ValidatePnLImpact(currentPnL, pnlLimit float64) error {
	if !v.cfg.EnablePnLValidation {
		return nil
	}
	if currentPnL < -pnlLimit {
		return errs.Newf(errs.DailyPnLLimitExceeded, "daily P&L limit exceeded: current %.6f limit %.6f", currentPnL, pnlLimit).
			WithDetail("current_pnl", currentPnL).
			WithDetail("limit", pnlLimit)
	}
	return nil
}

func (v *OrderValidator) validateShape(o *types.Order) error {
	if o.Quantity.IsZero() {
		return errs.New(errs.InvalidQuantity, "order quantity must be positive")
	}
	if o.Price.IsZero() && o.Type != types.Market {
		return errs.New(errs.InvalidPrice, "order price must be positive")
	}
	if v.cfg.EnableMarketHours {
		if _, ok := v.cfg.SupportedSymbols[o.Symbol]; !ok {
			return errs.Newf(errs.UnsupportedSymbol, "symbol %s is not supported", o.Symbol).
				WithDetail("symbol", o.Symbol)
		}
	}
	return nil
}

func (v *OrderValidator) validateSize(o *types.Order) error {
	qty := o.Quantity.Float64()
	if qty > v.cfg.MaxOrderSize {
		return errs.Newf(errs.OrderSizeExceedsLimit, "order size %.6f exceeds maximum allowed %.6f", qty, v.cfg.MaxOrderSize).
			WithDetail("size", qty).WithDetail("max_size", v.cfg.MaxOrderSize)
	}
	if qty < v.cfg.MinOrderSize {
		return errs.Newf(errs.OrderSizeBelowMinimum, "order size %.6f is below minimum %.6f", qty, v.cfg.MinOrderSize).
			WithDetail("size", qty).WithDetail("min_size", v.cfg.MinOrderSize)
	}
	return nil
}

func (v *OrderValidator) validateNotional(o *types.Order) error {
	notional := o.Quantity.Float64() * o.Price.Float64()
	if notional > v.cfg.MaxNotionalValue {
		return errs.Newf(errs.NotionalValueExceedsLimit, "notional value %.6f exceeds limit %.6f", notional, v.cfg.MaxNotionalValue).
			WithDetail("notional", notional).WithDetail("limit", v.cfg.MaxNotionalValue)
	}
	return nil
}

func (v *OrderValidator) validatePriceDeviation(orderPrice, referencePrice float64) error {
	if referencePrice == 0 {
		return nil
	}
	deviationPct := absFloat((orderPrice-referencePrice)/referencePrice) * 100
	if deviationPct > v.cfg.MaxPriceDeviationPct {
		return errs.Newf(errs.PriceDeviationExceedsLimit,
			"price %.6f deviates %.4f%% from reference %.6f, limit %.4f%%",
			orderPrice, deviationPct, referencePrice, v.cfg.MaxPriceDeviationPct).
			WithDetail("price", orderPrice).WithDetail("reference_price", referencePrice).
			WithDetail("deviation", deviationPct).WithDetail("limit", v.cfg.MaxPriceDeviationPct)
	}
	return nil
}
