package latency

// MeasurementPoint names a fixed measurement point in the order/trade
// lifecycle; callers may also use an arbitrary string for a custom point.
type MeasurementPoint string

const (
	PointOrderReceived        MeasurementPoint = "order_received"
	PointOrderValidated       MeasurementPoint = "order_validated"
	PointOrderMatched         MeasurementPoint = "order_matched"
	PointOrderExecuted        MeasurementPoint = "order_executed"
	PointTradeSettled         MeasurementPoint = "trade_settled"
	PointMarketDataReceived   MeasurementPoint = "market_data_received"
	PointMarketDataProcessed  MeasurementPoint = "market_data_processed"
	PointRiskChecked          MeasurementPoint = "risk_checked"
	PointEventProcessed       MeasurementPoint = "event_processed"
)
