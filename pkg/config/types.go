package config

import (
	"fmt"
	"strings"
)

// service level agreement kinds driving the capacity search
type SLAKind int

const (
	MeanWait        SLAKind = iota // 0 : average wait time over all customers below threshold
	ConditionalWait                // 1 : average wait time of customers who wait below threshold
	PercentServed                  // 2 : percentage served within a maximum wait at or above target
)

func (k SLAKind) String() string {
	switch k {
	case MeanWait:
		return "mean-wait"
	case ConditionalWait:
		return "conditional-wait"
	case PercentServed:
		return "percent-served"
	default:
		return "unknown"
	}
}

func ParseSLAKind(s string) (SLAKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultSLAKind, nil
	case "mean-wait", "meanwait":
		return MeanWait, nil
	case "conditional-wait", "conditionalwait":
		return ConditionalWait, nil
	case "percent-served", "percentserved":
		return PercentServed, nil
	default:
		return DefaultSLAKind, fmt.Errorf("unknown SLA kind %q", s)
	}
}

// choice between the last two candidates once the search crosses the SLA threshold
type BackoffPolicy int

const (
	Strict  BackoffPolicy = iota // 0 : always keep the candidate that meets the threshold
	Nearest                      // 1 : keep the candidate whose metric is closest to the threshold
)

func (p BackoffPolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Nearest:
		return "nearest"
	default:
		return "unknown"
	}
}

func ParseBackoffPolicy(s string) (BackoffPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultBackoffPolicy, nil
	case "nearest":
		return Nearest, nil
	case "strict":
		return Strict, nil
	default:
		return DefaultBackoffPolicy, fmt.Errorf("unknown backoff policy %q", s)
	}
}

// Data related to a sizing run
type SizingData struct {
	Spec SizingSpec `yaml:"spec" json:"spec"`
}

// Specifications of a sizing run
type SizingSpec struct {
	SLAKind         string    `yaml:"slaKind" json:"slaKind"`                         // mean-wait, conditional-wait, percent-served
	Backoff         string    `yaml:"backoff" json:"backoff"`                         // nearest, strict
	MaxIterations   int       `yaml:"maxIterations" json:"maxIterations"`             // bound on capacity steps per search
	MaxServers      int       `yaml:"maxServers" json:"maxServers"`                   // largest capacity a row may start from or reach
	Workers         int       `yaml:"workers" json:"workers"`                         // rows sized concurrently (0 = number of CPUs)
	Buckets         int       `yaml:"occupancyBuckets" json:"occupancyBuckets"`       // explicit occupancy buckets k=0..N
	HorizonsMinutes []float64 `yaml:"tailHorizonsMinutes" json:"tailHorizonsMinutes"` // wait thresholds for tail probabilities
	Sheet           string    `yaml:"sheet" json:"sheet"`                             // input worksheet name (empty = first)
	HeaderRows      int       `yaml:"headerRows" json:"headerRows"`                   // rows skipped before data
}

// Specifications of one input row: a store, day and period with its demand and SLA targets
type RowSpec struct {
	Store              string  `json:"store"`
	Weekday            string  `json:"weekday"`
	Period             string  `json:"period"`
	ArrivalRate        float64 `json:"arrivalRate"`        // customers/hour
	ServiceTime        float64 `json:"serviceTime"`        // mean service time (seconds)
	Current            int     `json:"current"`            // PDVs currently open
	Min                int     `json:"min"`                // minimum PDVs (0 = no floor)
	Max                int     `json:"max"`                // maximum PDVs
	Test               int     `json:"test"`               // PDVs of a what-if scenario
	SLAMeanWait        float64 `json:"slaMeanWait"`        // minutes
	SLAPercent         float64 `json:"slaPercent"`         // 0-100
	SLAMaxWait         float64 `json:"slaMaxWait"`         // minutes
	CustomersPerServer float64 `json:"customersPerServer"` // carried through, not used by the search
}

// arrival and per-server service rates (per hour)
func (r *RowSpec) Rates() (lambda float64, mu float64, err error) {
	if !(r.ArrivalRate > 0) || !(r.ServiceTime > 0) {
		return 0, 0, fmt.Errorf("invalid rates for row %s: arrivalRate=%v, serviceTime=%v",
			r.Key(), r.ArrivalRate, r.ServiceTime)
	}
	return r.ArrivalRate, SecondsPerHour / r.ServiceTime, nil
}

// mean and maximum wait thresholds converted from minutes to hours
func (r *RowSpec) WaitThresholds() (meanWait float64, maxWait float64) {
	return r.SLAMeanWait / MinutesPerHour, r.SLAMaxWait / MinutesPerHour
}

// identifying key of a row
func (r *RowSpec) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.Store, r.Weekday, r.Period)
}

func (r *RowSpec) String() string {
	return fmt.Sprintf("{row=%s, arrival=%v/h, service=%vs, pdv=[cur=%d, min=%d, max=%d, test=%d], sla=[wait=%vm, pct=%v, maxWait=%vm]}",
		r.Key(), r.ArrivalRate, r.ServiceTime, r.Current, r.Min, r.Max, r.Test, r.SLAMeanWait, r.SLAPercent, r.SLAMaxWait)
}
