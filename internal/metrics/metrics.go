// Package metrics exposes the engine's counters/histograms over a
// Prometheus registry and HTTP handler, grounded on the teacher's
// internal/metrics/metrics_module.go NewPrometheusRegistry/
// RegisterMetricsHandler fx wiring.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// EngineMetrics is the set of Prometheus collectors the engine updates as
// orders are admitted, matched, and rejected.
type EngineMetrics struct {
	OrdersSubmitted  *prometheus.CounterVec
	OrdersRejected   *prometheus.CounterVec
	TradesExecuted   prometheus.Counter
	MatchLatencySecs prometheus.Histogram
}

// NewPrometheusRegistry creates a fresh registry so the engine's metrics
// never collide with the default global registry's collectors.
func NewPrometheusRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// NewEngineMetrics constructs and registers the engine's collectors against
// registry.
func NewEngineMetrics(registry *prometheus.Registry) *EngineMetrics {
	m := &EngineMetrics{
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lobengine_orders_submitted_total",
			Help: "Orders submitted to the engine, labeled by symbol and side.",
		}, []string{"symbol", "side"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lobengine_orders_rejected_total",
			Help: "Orders rejected at admission, labeled by symbol and rejection code.",
		}, []string{"symbol", "code"}),
		TradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobengine_trades_executed_total",
			Help: "Trades produced by the matching engine.",
		}),
		MatchLatencySecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lobengine_match_latency_seconds",
			Help:    "End-to-end SubmitOrder latency.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
	}
	registry.MustRegister(m.OrdersSubmitted, m.OrdersRejected, m.TradesExecuted, m.MatchLatencySecs)
	return m
}

// Module wires NewPrometheusRegistry and NewEngineMetrics into fx, and
// starts the /metrics HTTP endpoint on app start, mirroring the teacher's
// Module/RegisterMetricsHandler lifecycle-hook pattern.
var Module = fx.Options(
	fx.Provide(NewPrometheusRegistry),
	fx.Provide(NewEngineMetrics),
	fx.Invoke(registerMetricsHandler),
)

func registerMetricsHandler(lc fx.Lifecycle, registry *prometheus.Registry, logger *zap.Logger) {
	server := &http.Server{
		Addr:    ":9090",
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("metrics: starting prometheus endpoint", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("metrics: server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("metrics: stopping prometheus endpoint")
			return server.Shutdown(ctx)
		},
	})
}
