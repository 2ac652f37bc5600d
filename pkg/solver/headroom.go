package solver

import (
	"fmt"

	"github.com/squad-analytics/checkout-capacity/pkg/analyzer"
	"github.com/squad-analytics/checkout-capacity/pkg/config"
)

// fraction of the service capacity kept away from the stability boundary
const StabilitySafetyFraction = 1e-6

// Headroom finds the largest arrival rate a capacity sustains while still meeting the SLA.
// Returns 0 if the SLA cannot be met at any arrival rate.
func Headroom(mu float64, servers int, sla SLASpec) (float64, error) {
	if !(mu > 0) || servers < 1 {
		return 0, fmt.Errorf("%w: mu=%v, servers=%d", analyzer.ErrInvalidArgument, mu, servers)
	}
	if err := sla.check(); err != nil {
		return 0, err
	}
	obj := sla.objective()
	capacity := float64(servers) * mu
	lambdaMin := capacity * StabilitySafetyFraction
	lambdaMax := capacity * (1 - StabilitySafetyFraction)
	if sla.Kind == config.ConditionalWait {
		// conditional wait decreases in lambda up to half the capacity, then increases
		lambdaMin = capacity / 2
	}

	eval := func(x float64) (float64, error) {
		model, err := analyzer.NewQueueModel(x, mu, servers)
		if err != nil {
			return 0, err
		}
		return obj.metric(model)
	}

	lambdaStar, ind, err := analyzer.BinarySearch(lambdaMin, lambdaMax, obj.target, eval)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate headroom, sla=%s, range=[%v, %v]: %w", sla, lambdaMin, lambdaMax, err)
	}
	switch {
	case ind < 0:
		// SLA violated over the whole range
		return 0, nil
	case ind > 0:
		// SLA met over the whole range
		return lambdaMax, nil
	default:
		return lambdaStar, nil
	}
}
