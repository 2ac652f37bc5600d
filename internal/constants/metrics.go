// Package constants provides centralized constant definitions for checkout sizing.
package constants

// Sizing Output Metrics
// These metric names are used to emit sizing run metrics to Prometheus.
// A run is written once to a text file, so counters cover a single run.
const (
	// CheckoutRowsSizedTotal is a counter that tracks completed capacity searches.
	// Labels: sla_kind, start
	CheckoutRowsSizedTotal = "checkout_rows_sized_total"

	// CheckoutStabilizationBumpsTotal is a counter that tracks starting capacities
	// raised to the stability floor.
	// Labels: start
	CheckoutStabilizationBumpsTotal = "checkout_stabilization_bumps_total"

	// CheckoutPrecisionWarningsTotal is a counter that tracks occupancy residuals clamped to zero.
	CheckoutPrecisionWarningsTotal = "checkout_precision_warnings_total"

	// CheckoutSearchFailuresTotal is a counter that tracks searches ending in an error.
	// Labels: reason
	CheckoutSearchFailuresTotal = "checkout_search_failures_total"

	// CheckoutSearchIterations is a histogram of capacity steps taken by the SLA phase.
	CheckoutSearchIterations = "checkout_search_iterations"

	// CheckoutRequiredServers is a gauge with the sum of required PDVs over all rows.
	// Labels: start
	CheckoutRequiredServers = "checkout_required_servers"
)

// Metric Label Names
// Common label names used across metrics for consistency.
const (
	LabelSLAKind = "sla_kind"
	LabelStart   = "start"
	LabelReason  = "reason"
)
