package solver

import (
	"fmt"

	"github.com/squad-analytics/checkout-capacity/pkg/analyzer"
)

// whether the starting capacity already had a steady state
type StabilityStatus int

const (
	Stable   StabilityStatus = iota // 0 : starting capacity kept
	Unstable                        // 1 : starting capacity raised to the stability floor
)

func (s StabilityStatus) String() string {
	switch s {
	case Stable:
		return "STABLE"
	case Unstable:
		return "UNSTABLE"
	default:
		return "UNKNOWN"
	}
}

// outcome of a capacity search for one row and one starting capacity
type CapacityResult struct {
	Start          int              `json:"start"`          // requested starting capacity
	Servers        int              `json:"servers"`        // chosen capacity
	Status         StabilityStatus  `json:"status"`         // stabilization phase fired or not
	Metric         float64          `json:"metric"`         // SLA metric at the chosen capacity
	MeetsSLA       bool             `json:"meetsSLA"`       // chosen capacity satisfies the SLA
	Iterations     int              `json:"iterations"`     // capacity steps taken by the SLA phase
	SLATailProb    float64          `json:"slaTailProb"`    // P(W > SLA wait bound)
	MaxArrivalRate float64          `json:"maxArrivalRate"` // largest arrival rate the chosen capacity sustains under the SLA
	Report         *analyzer.Report `json:"report"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// capacity changed by the stabilization phase
func (r *CapacityResult) Changed() bool {
	return r.Status == Unstable
}

func (r *CapacityResult) String() string {
	return fmt.Sprintf("{start=%d, servers=%d, status=%s, metric=%.4f, meets=%v, iter=%d, maxRate=%.2f, warnings=%v}",
		r.Start, r.Servers, r.Status, r.Metric, r.MeetsSLA, r.Iterations, r.MaxArrivalRate, r.Warnings)
}
