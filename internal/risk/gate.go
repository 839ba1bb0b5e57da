package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/hftcore/lobengine/internal/errs"
	"github.com/hftcore/lobengine/internal/types"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// GateConfig bounds the per-client position and daily P&L limits a Gate
// enforces; ValidationConfig carries the rest of the independently
// toggleable checks.
type GateConfig struct {
	Validation    ValidationConfig
	PositionLimit float64
	DailyPnLLimit float64
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		Validation:    DefaultValidationConfig(),
		PositionLimit: 10_000,
		DailyPnLLimit: 100_000,
	}
}

// Gate is the engine's single pre-trade admission point: per-symbol
// position trackers behind a short-TTL cache (grounded on the teacher's
// PositionManager), wrapped in a circuit breaker (grounded on the
// teacher's CircuitBreakerFactory) so a pathological run of rejections
// trips open rather than burning CPU on doomed validation work.
type Gate struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
	cache    *cache.Cache
	breaker  *gobreaker.CircuitBreaker
	validator *OrderValidator
	cfg      GateConfig
	logger   *zap.Logger
}

func NewGate(cfg GateConfig, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gate{
		trackers:  make(map[string]*Tracker),
		cache:     cache.New(5*time.Minute, 10*time.Minute),
		validator: NewOrderValidator(cfg.Validation),
		cfg:       cfg,
		logger:    logger,
	}
	settings := gobreaker.Settings{
		Name:        "risk-gate",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("risk: circuit breaker state changed",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	g.breaker = gobreaker.NewCircuitBreaker(settings)
	return g
}

func (g *Gate) trackerFor(symbol string) *Tracker {
	g.mu.RLock()
	t, ok := g.trackers[symbol]
	g.mu.RUnlock()
	if ok {
		return t
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok = g.trackers[symbol]; ok {
		return t
	}
	t = NewTracker(symbol)
	g.trackers[symbol] = t
	return t
}

func (g *Gate) positionCacheKey(symbol string, clientID types.ClientId) string {
	return symbol + ":" + clientID.String()
}

// cachedPosition reads through the go-cache layer before falling back to
// the authoritative tracker, mirroring PositionManager.GetPosition.
func (g *Gate) cachedPosition(symbol string, clientID types.ClientId) Position {
	key := g.positionCacheKey(symbol, clientID)
	if cached, found := g.cache.Get(key); found {
		if pos, ok := cached.(Position); ok {
			return pos
		}
	}
	pos := g.trackerFor(symbol).Position(clientID)
	g.cache.Set(key, pos, cache.DefaultExpiration)
	return pos
}

// Admit runs the full validation pipeline for an incoming order, under
// circuit-breaker protection: shape/size/notional, price deviation against
// referencePrice (if hasReference), position impact, and daily P&L impact.
// The first failing check short-circuits the rest and returns its
// *errs.TradingError.
func (g *Gate) Admit(o *types.Order, referencePrice float64, hasReference bool) error {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		if verr := g.validator.ValidateWithReferencePrice(o, referencePrice, hasReference); verr != nil {
			return nil, verr
		}
		pos := g.cachedPosition(o.Symbol, o.ClientID)
		if verr := g.validator.ValidatePositionImpact(o, pos.Quantity, g.cfg.PositionLimit); verr != nil {
			return nil, verr
		}
		if verr := g.validator.ValidatePnLImpact(pos.RealizedPnL, g.cfg.DailyPnLLimit); verr != nil {
			return nil, verr
		}
		return nil, nil
	})
	_ = result
	if err != nil {
		if _, ok := errs.As(err); ok {
			return err
		}
		return errs.Wrap(errs.InsufficientLiquidity, err, fmt.Sprintf("risk gate open for symbol %s", o.Symbol))
	}
	return nil
}

// RecordFill folds an executed trade into the client's position and
// invalidates the cached snapshot so the next Admit call reads the fresh
// position.
func (g *Gate) RecordFill(symbol string, clientID types.ClientId, side types.Side, quantity, price float64) *Position {
	pos := g.trackerFor(symbol).ApplyTrade(clientID, side, quantity, price)
	g.cache.Delete(g.positionCacheKey(symbol, clientID))
	return pos
}

// Position returns the authoritative (non-cached) current position.
func (g *Gate) Position(symbol string, clientID types.ClientId) Position {
	return g.trackerFor(symbol).Position(clientID)
}

// UpdateMarks recomputes unrealized P&L for every tracked position in
// symbol against the new mark price.
func (g *Gate) UpdateMarks(symbol string, mark float64) {
	g.trackerFor(symbol).UpdateMarkPrices(mark)
}
