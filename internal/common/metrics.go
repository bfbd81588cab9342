package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the estimation metrics. Each App owns its registry so tests
// can build several without colliding on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	EstimationCycles     *prometheus.CounterVec
	EstimationDuration   *prometheus.HistogramVec
	DegradedQuotes       *prometheus.CounterVec
	OfficialPriceLookups *prometheus.CounterVec
	EstimatedChange      *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		EstimationCycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navcast_estimation_cycles_total",
				Help: "Total number of estimation cycles by outcome",
			},
			[]string{"fund", "status"},
		),
		EstimationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navcast_estimation_duration_seconds",
				Help:    "Wall time of a full estimation cycle",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"fund"},
		),
		DegradedQuotes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navcast_degraded_quotes_total",
				Help: "Holdings whose quote failed and contributed no move",
			},
			[]string{"fund"},
		),
		OfficialPriceLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navcast_official_price_lookups_total",
				Help: "Base price resolutions by source (official, manual, none)",
			},
			[]string{"fund", "source"},
		),
		EstimatedChange: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "navcast_estimated_change_percent",
				Help: "Latest total weighted percent change per fund",
			},
			[]string{"fund"},
		),
	}
}
