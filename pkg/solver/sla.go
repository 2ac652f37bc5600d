package solver

import (
	"fmt"
	"math"

	"github.com/squad-analytics/checkout-capacity/pkg/analyzer"
	"github.com/squad-analytics/checkout-capacity/pkg/config"
)

// service level target of a row
type SLASpec struct {
	Kind      config.SLAKind
	Threshold float64 // wait time (mean-wait, conditional-wait) or target percentage (percent-served)
	MaxWait   float64 // wait bound of the percent-served kind, same time unit as the rates
}

// objective of a capacity search: a metric of the queue and the side of the threshold that satisfies it
type objective struct {
	metric func(m *analyzer.QueueModel) (float64, error)
	meets  func(v float64) bool
	target float64
}

func meanWaitObjective(sla SLASpec) objective {
	return objective{
		metric: func(m *analyzer.QueueModel) (float64, error) { return m.AverageWaitTime(), nil },
		meets:  func(v float64) bool { return v <= sla.Threshold },
		target: sla.Threshold,
	}
}

func conditionalWaitObjective(sla SLASpec) objective {
	return objective{
		metric: func(m *analyzer.QueueModel) (float64, error) { return m.AverageWaitTimeGivenWait(), nil },
		meets:  func(v float64) bool { return v <= sla.Threshold },
		target: sla.Threshold,
	}
}

func percentServedObjective(sla SLASpec) objective {
	return objective{
		metric: func(m *analyzer.QueueModel) (float64, error) { return m.PercentServedWithin(sla.MaxWait) },
		meets:  func(v float64) bool { return v >= sla.Threshold },
		target: sla.Threshold,
	}
}

func (sla SLASpec) objective() objective {
	switch sla.Kind {
	case config.ConditionalWait:
		return conditionalWaitObjective(sla)
	case config.PercentServed:
		return percentServedObjective(sla)
	default:
		return meanWaitObjective(sla)
	}
}

// wait bound whose tail probability is reported with the result
func (sla SLASpec) WaitBound() float64 {
	if sla.Kind == config.PercentServed {
		return sla.MaxWait
	}
	return sla.Threshold
}

// check validity of SLA values
func (sla SLASpec) check() error {
	bad := math.IsNaN(sla.Threshold) || math.IsNaN(sla.MaxWait)
	switch sla.Kind {
	case config.MeanWait, config.ConditionalWait:
		bad = bad || sla.Threshold <= 0
	case config.PercentServed:
		bad = bad || sla.Threshold <= 0 || sla.Threshold >= 100 || sla.MaxWait < 0
	default:
		bad = true
	}
	if bad {
		return fmt.Errorf("%w: SLA %s", analyzer.ErrInvalidArgument, sla)
	}
	return nil
}

func (sla SLASpec) String() string {
	if sla.Kind == config.PercentServed {
		return fmt.Sprintf("{kind=%s, target=%v%%, maxWait=%v}", sla.Kind, sla.Threshold, sla.MaxWait)
	}
	return fmt.Sprintf("{kind=%s, threshold=%v}", sla.Kind, sla.Threshold)
}
