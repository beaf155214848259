package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tick_rows_total", Help: "Count of tick rows read from the input file"},
	)
	RowsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tick_rows_skipped_total", Help: "Rows dropped before sessionization"},
		[]string{"reason"},
	)
	ChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "chunks_total", Help: "Chunks read from the input file"},
	)
	SessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sessions_total", Help: "Sessions analyzed"},
		[]string{"direction"},
	)
	SessionsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sessions_skipped_total", Help: "Sessions excluded from results"},
		[]string{"reason"},
	)
	NonTradingDays = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "non_trading_days_total", Help: "Weekend/holiday dates dropped"},
	)
)

func init() {
	prometheus.MustRegister(RowsTotal, RowsSkipped, ChunksTotal, SessionsTotal, SessionsSkipped, NonTradingDays)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
