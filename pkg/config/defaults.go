package config

/**
 * Parameters
 */

// unit conversions, rates are kept per hour
const SecondsPerHour = 3600.0
const MinutesPerHour = 60.0

// SLA kind used when none is configured
var DefaultSLAKind = MeanWait

// backoff policy used when none is configured
var DefaultBackoffPolicy = Strict

// maximum number of capacity steps in one search before giving up
var DefaultMaxIterations = 1000

// largest number of PDVs a search may start from or grow to
var DefaultMaxServers = 1000

// number of explicit occupancy buckets (k=0..N), the rest goes to the residual bucket
var DefaultOccupancyBuckets = 10

// wait time horizons (minutes) for reported tail probabilities
var DefaultTailHorizonsMinutes = []float64{1, 2, 5, 10}

// rows of column headers preceding data in the input sheet
var DefaultHeaderRows = 1

// environment variables overriding file configuration
const (
	EnvSLAKind       = "CHECKOUT_SLA_KIND"
	EnvWorkers       = "CHECKOUT_WORKERS"
	EnvMaxIterations = "CHECKOUT_MAX_ITERATIONS"
	EnvMaxServers    = "CHECKOUT_MAX_SERVERS"
	EnvBackoff       = "CHECKOUT_BACKOFF"
)
