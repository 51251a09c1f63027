package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    *prometheus.CounterVec
	analysesTotal *prometheus.CounterVec
	oppsTotal     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oppradar_ticks_total",
				Help: "Total number of ticker updates ingested",
			},
			[]string{"symbol"},
		),
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oppradar_analyses_total",
				Help: "Analysis cycles by outcome",
			},
			[]string{"symbol", "outcome"},
		),
		oppsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oppradar_opportunities_total",
				Help: "Detected opportunities by signal",
			},
			[]string{"signal"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oppradar_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oppradar_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oppradar_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records an ingested ticker update.
func (r *Recorder) RecordTick(symbol string) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
}

// RecordAnalysis records an analysis cycle outcome.
func (r *Recorder) RecordAnalysis(symbol, outcome string) {
	r.analysesTotal.WithLabelValues(symbol, outcome).Inc()
}

// RecordOpportunity records a detected opportunity.
func (r *Recorder) RecordOpportunity(signal string) {
	r.oppsTotal.WithLabelValues(signal).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
