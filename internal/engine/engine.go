package engine

import (
	"sync"
	"time"

	"github.com/hftcore/lobengine/internal/errs"
	"github.com/hftcore/lobengine/internal/events"
	"github.com/hftcore/lobengine/internal/latency"
	"github.com/hftcore/lobengine/internal/metrics"
	"github.com/hftcore/lobengine/internal/orderbook"
	"github.com/hftcore/lobengine/internal/risk"
	"github.com/hftcore/lobengine/internal/types"
	"go.uber.org/zap"
)

// Engine is the sole orchestration point wiring C5 (risk gate), C3 (book),
// and C7 (event pipeline) per symbol. Submission is synchronous per §5:
// admit, match, emit, return — no suspension.
type Engine struct {
	cfg      Config
	logger   *zap.Logger
	gate     *risk.Gate
	pipeline *events.Pipeline
	profiler *latency.Profiler
	metrics  *metrics.EngineMetrics // nil unless SetMetrics is called

	mu         sync.RWMutex
	books      map[string]orderbook.Book
	marketData map[string]*MarketData
	mdMu       sync.RWMutex
}

// New constructs a stopped Engine. Call Start before submitting orders.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pipeline, err := events.NewPipeline(cfg.Pipeline, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		logger:     logger,
		gate:       risk.NewGate(cfg.Risk, logger),
		pipeline:   pipeline,
		profiler:   latency.NewProfiler(),
		books:      make(map[string]orderbook.Book),
		marketData: make(map[string]*MarketData),
	}, nil
}

// SetMetrics attaches Prometheus collectors the engine updates on every
// SubmitOrder call. Optional: an Engine with no attached metrics simply
// skips the recording calls.
func (e *Engine) SetMetrics(m *metrics.EngineMetrics) { e.metrics = m }

func (e *Engine) Start() { e.pipeline.Start() }
func (e *Engine) Stop()  { e.pipeline.Stop() }

// AddSymbol registers symbol with a fresh book of the configured flavor.
// Idempotent: re-registering an already-known symbol is a no-op.
func (e *Engine) AddSymbol(symbol string) {
	e.mu.RLock()
	_, exists := e.books[symbol]
	e.mu.RUnlock()
	if exists {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists = e.books[symbol]; exists {
		return
	}
	var book orderbook.Book
	switch e.cfg.BookFlavor {
	case FlavorLockFree:
		book = orderbook.NewLockFreeBook(symbol)
	default:
		book = orderbook.NewLatchedBook(symbol)
	}
	e.books[symbol] = book
}

func (e *Engine) bookFor(symbol string) (orderbook.Book, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	book, ok := e.books[symbol]
	return book, ok
}

// SubmitOrder runs the full admit->match->emit pipeline for one incoming
// order, per §6's Submit-order RPC.
func (e *Engine) SubmitOrder(req SubmitOrderRequest) OrderResponse {
	start := e.profiler.Start()
	defer func() { e.profiler.End(string(latency.PointOrderReceived), start) }()

	now := time.Now()
	order := &types.Order{
		ID:        types.NextOrderId(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Status:    types.Pending,
		Timestamp: now,
		ClientID:  req.ClientID,
	}

	if e.metrics != nil {
		e.metrics.OrdersSubmitted.WithLabelValues(req.Symbol, req.Side.String()).Inc()
	}

	book, ok := e.bookFor(req.Symbol)
	if !ok {
		return e.reject(order, errs.Newf(errs.UnsupportedSymbol, "symbol %s is not registered", req.Symbol).
			WithDetail("symbol", req.Symbol))
	}

	referencePrice, hasReference := e.referencePrice(req.Symbol)
	if err := e.gate.Admit(order, referencePrice, hasReference); err != nil {
		return e.reject(order, err)
	}

	validatedStart := e.profiler.Start()
	result, err := book.AddOrder(order)
	e.profiler.End(string(latency.PointOrderMatched), validatedStart)
	if err != nil {
		return e.reject(order, err)
	}

	if result.Kind == orderbook.NoMatch {
		e.emitOrderEvent(events.OrderAdd, order, "")
	} else {
		e.emitOrderEvent(events.OrderFill, order, "")
	}

	for _, trade := range result.Trades {
		e.recordFill(req.Symbol, trade)
		e.emitTradeEvent(trade)
		if e.metrics != nil {
			e.metrics.TradesExecuted.Inc()
		}
	}
	e.updateMarketDataFromBook(req.Symbol, book)

	resp := OrderResponse{
		OrderID:           order.ID,
		Trades:            result.Trades,
		RemainingQuantity: result.RemainingQuantity,
		Timestamp:         time.Now(),
	}
	switch result.Kind {
	case orderbook.NoMatch:
		resp.Status = Accepted
	case orderbook.PartialMatch:
		resp.Status = PartiallyFilled
	case orderbook.FullMatch:
		resp.Status = FullyFilled
	}
	e.profiler.End(string(latency.PointOrderExecuted), start)
	if e.metrics != nil {
		e.metrics.MatchLatencySecs.Observe(time.Since(now).Seconds())
	}
	return resp
}

func (e *Engine) reject(order *types.Order, err error) OrderResponse {
	te, _ := errs.As(err)
	e.emitOrderEvent(events.OrderReject, order, err.Error())
	if e.metrics != nil {
		code := "unknown"
		if te != nil {
			code = string(te.Code)
		}
		e.metrics.OrdersRejected.WithLabelValues(order.Symbol, code).Inc()
	}
	return OrderResponse{
		Status:       Rejected,
		OrderID:      order.ID,
		Timestamp:    time.Now(),
		RejectReason: te,
	}
}

// CancelOrder removes orderID from symbol's book, per §6's Cancel RPC.
func (e *Engine) CancelOrder(symbol string, orderID types.OrderId) CancelResponse {
	book, ok := e.bookFor(symbol)
	if !ok {
		return CancelResponse{Status: NotFound, Timestamp: time.Now()}
	}
	order, found := book.CancelOrder(orderID)
	if !found {
		return CancelResponse{Status: NotFound, Timestamp: time.Now()}
	}
	e.emitOrderEvent(events.OrderCancel, order, "")
	e.updateMarketDataFromBook(symbol, book)
	return CancelResponse{Status: Cancelled, Timestamp: time.Now()}
}

// ModifyOrder implements the engine-layer cancel-then-add semantics
// resolved for the open question in §9: priority is lost, a fresh OrderId
// is minted for the replacement.
func (e *Engine) ModifyOrder(symbol string, orderID types.OrderId, newPrice types.Price, newQuantity types.Quantity) OrderResponse {
	book, ok := e.bookFor(symbol)
	if !ok {
		return OrderResponse{Status: Rejected, Timestamp: time.Now()}
	}
	existing, found := book.CancelOrder(orderID)
	if !found {
		return OrderResponse{Status: Rejected, OrderID: orderID, Timestamp: time.Now()}
	}
	e.emitOrderEvent(events.OrderModify, existing, "")
	return e.SubmitOrder(SubmitOrderRequest{
		Symbol:   symbol,
		Side:     existing.Side,
		Type:     existing.Type,
		Price:    newPrice,
		Quantity: newQuantity,
		ClientID: existing.ClientID,
	})
}

// Depth returns the top-N levels of symbol's book per §6's Depth query.
func (e *Engine) Depth(symbol string, levels int) (Depth, bool) {
	book, ok := e.bookFor(symbol)
	if !ok {
		return Depth{}, false
	}
	return book.Depth(levels), true
}

// MarketData returns symbol's read-only market data snapshot.
func (e *Engine) MarketData(symbol string) (MarketData, bool) {
	e.mdMu.RLock()
	defer e.mdMu.RUnlock()
	md, ok := e.marketData[symbol]
	if !ok {
		return MarketData{}, false
	}
	return *md, true
}

func (e *Engine) referencePrice(symbol string) (float64, bool) {
	md, ok := e.MarketData(symbol)
	if !ok || md.LastTradePrice.IsZero() {
		return 0, false
	}
	return md.LastTradePrice.Float64(), true
}

func (e *Engine) recordFill(symbol string, trade types.Trade) {
	e.gate.RecordFill(symbol, trade.BuyerClientID, types.Buy, trade.Quantity.Float64(), trade.Price.Float64())
	e.gate.RecordFill(symbol, trade.SellerClientID, types.Sell, trade.Quantity.Float64(), trade.Price.Float64())
}

func (e *Engine) updateMarketDataFromBook(symbol string, book orderbook.Book) {
	e.mdMu.Lock()
	defer e.mdMu.Unlock()
	md, ok := e.marketData[symbol]
	if !ok {
		md = &MarketData{Symbol: symbol}
		e.marketData[symbol] = md
	}
	if bid, found := book.BestBid(); found {
		md.BestBid, md.HasBestBid = bid, true
	} else {
		md.HasBestBid = false
	}
	if ask, found := book.BestAsk(); found {
		md.BestAsk, md.HasBestAsk = ask, true
	} else {
		md.HasBestAsk = false
	}
	md.Timestamp = time.Now()
}

func (e *Engine) recordTrade(symbol string, trade types.Trade) {
	e.mdMu.Lock()
	defer e.mdMu.Unlock()
	md, ok := e.marketData[symbol]
	if !ok {
		md = &MarketData{Symbol: symbol}
		e.marketData[symbol] = md
	}
	md.LastTradePrice = trade.Price
	md.LastTradeQuantity = trade.Quantity
	md.Volume = md.Volume.Add(trade.Quantity)
	md.Timestamp = trade.Timestamp
}

func (e *Engine) emitOrderEvent(kind events.OrderEventKind, order *types.Order, reason string) {
	e.pipeline.Submit(events.NewOrderEvent(&events.OrderEvent{
		Kind:         kind,
		Order:        order,
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		ClientID:     order.ClientID,
		RejectReason: reason,
		Timestamp:    time.Now(),
	}))
}

func (e *Engine) emitTradeEvent(trade types.Trade) {
	e.recordTrade(trade.Symbol, trade)
	t := trade
	e.pipeline.Submit(events.NewTradeEvent(&events.TradeEvent{
		Kind:      events.TradeExecuted,
		Trade:     &t,
		TradeID:   trade.ID,
		Timestamp: trade.Timestamp,
	}))
}
