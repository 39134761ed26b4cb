package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "momentum_cycles_total", Help: "Rebalance cycles by outcome"},
		[]string{"outcome"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "momentum_orders_total", Help: "Market orders submitted"},
		[]string{"side", "result"},
	)
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "momentum_api_requests_total", Help: "Exchange API requests"},
		[]string{"endpoint", "result"},
	)
	QuoteBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "momentum_quote_balance", Help: "Free quote balance after the last cycle"},
	)
	SelectedTokens = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "momentum_selected_tokens", Help: "Tokens selected in the last cycle"},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "momentum_cycle_duration_seconds",
			Help:    "Wall time of one rebalance cycle",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, OrdersTotal, APIRequestsTotal, QuoteBalance, SelectedTokens, CycleDuration)
}

// Serve exposes /metrics on addr and returns the server for shutdown.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
