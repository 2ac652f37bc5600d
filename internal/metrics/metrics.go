package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/squad-analytics/checkout-capacity/internal/constants"
)

var (
	rowsSized          *prometheus.CounterVec
	stabilizationBumps *prometheus.CounterVec
	precisionWarnings  prometheus.Counter
	searchFailures     *prometheus.CounterVec
	searchIterations   prometheus.Histogram
	requiredServers    *prometheus.GaugeVec
)

// InitMetrics registers all sizing metrics with the provided registry
func InitMetrics(registry prometheus.Registerer) {
	rowsSized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.CheckoutRowsSizedTotal,
			Help: "Total number of capacity searches completed",
		},
		[]string{constants.LabelSLAKind, constants.LabelStart},
	)
	stabilizationBumps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.CheckoutStabilizationBumpsTotal,
			Help: "Total number of starting capacities raised to restore queue stability",
		},
		[]string{constants.LabelStart},
	)
	precisionWarnings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: constants.CheckoutPrecisionWarningsTotal,
			Help: "Total number of occupancy residuals clamped to zero",
		},
	)
	searchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.CheckoutSearchFailuresTotal,
			Help: "Total number of capacity searches ending in an error",
		},
		[]string{constants.LabelReason},
	)
	searchIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    constants.CheckoutSearchIterations,
			Help:    "Capacity steps taken by the SLA phase of a search",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		},
	)
	requiredServers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: constants.CheckoutRequiredServers,
			Help: "Sum of required servers over all rows of the last run",
		},
		[]string{constants.LabelStart},
	)

	registry.MustRegister(rowsSized)
	registry.MustRegister(stabilizationBumps)
	registry.MustRegister(precisionWarnings)
	registry.MustRegister(searchFailures)
	registry.MustRegister(searchIterations)
	registry.MustRegister(requiredServers)
}

// InitMetricsAndEmitter registers metrics with Prometheus and creates a metrics emitter
func InitMetricsAndEmitter(registry prometheus.Registerer) *MetricsEmitter {
	InitMetrics(registry)
	return NewMetricsEmitter()
}

// WriteTextfile writes all metrics gathered by the registry in the text exposition format
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, gatherer)
}

// MetricsEmitter handles emission of sizing metrics; a no-op until InitMetrics is called
type MetricsEmitter struct{}

// NewMetricsEmitter creates a new metrics emitter
func NewMetricsEmitter() *MetricsEmitter {
	return &MetricsEmitter{}
}

// EmitSearchMetrics emits metrics of one completed capacity search
func (m *MetricsEmitter) EmitSearchMetrics(ctx context.Context, slaKind, start string, iterations int, bumped, clamped bool) {
	if rowsSized == nil {
		return
	}
	rowsSized.With(prometheus.Labels{constants.LabelSLAKind: slaKind, constants.LabelStart: start}).Inc()
	searchIterations.Observe(float64(iterations))
	if bumped {
		stabilizationBumps.With(prometheus.Labels{constants.LabelStart: start}).Inc()
	}
	if clamped {
		precisionWarnings.Inc()
	}
}

// EmitErrorMetrics emits error-related metrics
func (m *MetricsEmitter) EmitErrorMetrics(ctx context.Context, reason string) {
	if searchFailures == nil {
		return
	}
	searchFailures.With(prometheus.Labels{constants.LabelReason: reason}).Inc()
}

// EmitRequiredServers emits the total required servers of a run for a starting column
func (m *MetricsEmitter) EmitRequiredServers(ctx context.Context, start string, total int) {
	if requiredServers == nil {
		return
	}
	requiredServers.With(prometheus.Labels{constants.LabelStart: start}).Set(float64(total))
}
