package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/squad-analytics/checkout-capacity/pkg/analyzer"
	"github.com/squad-analytics/checkout-capacity/pkg/config"
)

// capacity search exceeded its iteration bound
var ErrSearchDidNotConverge = errors.New("capacity search did not converge")

// creates a solved queue model for a capacity trial
type ModelFactory func(lambda float64, mu float64, servers int) (*analyzer.QueueModel, error)

// demand of a row: arrival rate and per-server service rate in the same time unit
type Demand struct {
	Lambda float64
	Mu     float64
}

func (d Demand) String() string {
	return fmt.Sprintf("{lambda=%v, mu=%v}", d.Lambda, d.Mu)
}

// search options
type Options struct {
	MaxIterations int                  // bound on capacity steps in the SLA phase
	MaxServers    int                  // largest capacity a search may start from or grow to
	Backoff       config.BackoffPolicy // choice between the two candidates around the threshold
	Floor         int                  // capacity never decreased below this value (0 = stability floor only)
	Horizons      []float64            // wait horizons for reported tail probabilities
	Buckets       int                  // explicit occupancy buckets
}

// options derived from a sizing specification
func OptionsFromSpec(spec *config.SizingSpec) Options {
	return Options{
		MaxIterations: spec.MaxIterations,
		MaxServers:    spec.MaxServers,
		Backoff:       spec.Policy(),
		Horizons:      spec.Horizons(),
		Buckets:       spec.Buckets,
	}
}

// Searcher finds a capacity satisfying an SLA by a discrete hill-climb over the number of servers.
// It holds no per-row state and is safe for concurrent use.
type Searcher struct {
	factory ModelFactory
	options Options
}

func NewSearcher(factory ModelFactory, options Options) *Searcher {
	if factory == nil {
		factory = analyzer.NewQueueModel
	}
	if options.MaxIterations <= 0 {
		options.MaxIterations = config.DefaultMaxIterations
	}
	if options.MaxServers <= 0 {
		options.MaxServers = config.DefaultMaxServers
	}
	if options.Buckets < 0 {
		options.Buckets = config.DefaultOccupancyBuckets
	}
	return &Searcher{factory: factory, options: options}
}

// copy of the searcher with a different minimum capacity
func (s *Searcher) WithFloor(floor int) *Searcher {
	options := s.options
	options.Floor = floor
	return &Searcher{factory: s.factory, options: options}
}

// largest capacity a search may start from or grow to
func (s *Searcher) MaxServers() int {
	return s.options.MaxServers
}

// one evaluated capacity
type trial struct {
	servers int
	model   *analyzer.QueueModel
	value   float64
	meets   bool
}

// Search runs the stabilization phase and the SLA phase for one starting capacity.
// On ErrSearchDidNotConverge the returned result holds the last evaluated capacity.
func (s *Searcher) Search(d Demand, start int, sla SLASpec) (*CapacityResult, error) {
	switch sla.Kind {
	case config.ConditionalWait:
		return s.sizeConditionalWait(d, start, sla)
	case config.PercentServed:
		return s.sizePercentServed(d, start, sla)
	default:
		return s.sizeMeanWait(d, start, sla)
	}
}

func (s *Searcher) sizeMeanWait(d Demand, start int, sla SLASpec) (*CapacityResult, error) {
	return s.size(d, start, sla, meanWaitObjective(sla))
}

func (s *Searcher) sizeConditionalWait(d Demand, start int, sla SLASpec) (*CapacityResult, error) {
	return s.size(d, start, sla, conditionalWaitObjective(sla))
}

func (s *Searcher) sizePercentServed(d Demand, start int, sla SLASpec) (*CapacityResult, error) {
	return s.size(d, start, sla, percentServedObjective(sla))
}

func (s *Searcher) size(d Demand, start int, sla SLASpec, obj objective) (*CapacityResult, error) {
	if !(d.Lambda > 0) || !(d.Mu > 0) || math.IsInf(d.Lambda, 0) || math.IsInf(d.Mu, 0) {
		return nil, fmt.Errorf("%w: demand %s", analyzer.ErrInvalidArgument, d)
	}
	if err := sla.check(); err != nil {
		return nil, err
	}
	if start > s.options.MaxServers || s.options.Floor > s.options.MaxServers {
		return nil, fmt.Errorf("%w: start=%d, floor=%d above maxServers=%d",
			analyzer.ErrInvalidArgument, start, s.options.Floor, s.options.MaxServers)
	}
	if floor := analyzer.StabilityFloor(d.Lambda, d.Mu); floor > s.options.MaxServers {
		return nil, fmt.Errorf("%w: demand %s needs at least %d servers, above maxServers=%d",
			analyzer.ErrInvalidArgument, d, floor, s.options.MaxServers)
	}

	// stabilization phase
	c, status := Stabilize(d, start)
	c = max(c, s.options.Floor)

	// SLA phase
	best, iterations, searchErr := s.climb(d, c, obj)
	if best == nil {
		return nil, searchErr
	}

	result, err := s.buildResult(d, start, status, sla, best, iterations)
	if err != nil {
		return nil, err
	}
	if searchErr != nil {
		result.Warnings = append(result.Warnings, searchErr.Error())
	}
	return result, searchErr
}

// raise a starting capacity to the stability floor if needed
func Stabilize(d Demand, start int) (int, StabilityStatus) {
	if start >= 1 && analyzer.IsStable(d.Lambda, d.Mu, start) {
		return start, Stable
	}
	return max(start, analyzer.StabilityFloor(d.Lambda, d.Mu)), Unstable
}

func (s *Searcher) evaluate(d Demand, servers int, obj objective) (*trial, error) {
	model, err := s.factory(d.Lambda, d.Mu, servers)
	if err != nil {
		return nil, err
	}
	v, err := obj.metric(model)
	if err != nil {
		return nil, err
	}
	return &trial{servers: servers, model: model, value: v, meets: obj.meets(v)}, nil
}

// hill-climb from a stable capacity: shrink while the SLA holds, grow while it does not
func (s *Searcher) climb(d Demand, c int, obj objective) (*trial, int, error) {
	cur, err := s.evaluate(d, c, obj)
	if err != nil {
		return nil, 0, err
	}
	floor := max(s.options.Floor, 1)
	iterations := 0

	if cur.meets {
		for {
			next := cur.servers - 1
			if next < floor || !analyzer.IsStable(d.Lambda, d.Mu, next) {
				return cur, iterations, nil
			}
			if iterations >= s.options.MaxIterations {
				return cur, iterations, s.notConverged(d, c, iterations)
			}
			iterations++
			cand, err := s.evaluate(d, next, obj)
			if err != nil {
				return nil, iterations, err
			}
			if !cand.meets {
				return s.backoff(cur, cand, obj), iterations, nil
			}
			cur = cand
		}
	}

	for {
		if iterations >= s.options.MaxIterations || cur.servers >= s.options.MaxServers {
			return cur, iterations, s.notConverged(d, c, iterations)
		}
		iterations++
		cand, err := s.evaluate(d, cur.servers+1, obj)
		if err != nil {
			return nil, iterations, err
		}
		if cand.meets {
			return s.backoff(cand, cur, obj), iterations, nil
		}
		cur = cand
	}
}

// choose between the capacity meeting the SLA and its neighbour violating it
func (s *Searcher) backoff(in *trial, out *trial, obj objective) *trial {
	if s.options.Backoff == config.Strict || out.servers < max(s.options.Floor, 1) {
		return in
	}
	if math.Abs(out.value-obj.target) < math.Abs(in.value-obj.target) {
		return out
	}
	return in
}

func (s *Searcher) notConverged(d Demand, c int, iterations int) error {
	return fmt.Errorf("%w: demand=%s, start=%d, iterations=%d", ErrSearchDidNotConverge, d, c, iterations)
}

func (s *Searcher) buildResult(d Demand, start int, status StabilityStatus, sla SLASpec, best *trial,
	iterations int) (*CapacityResult, error) {

	report, err := best.model.Report(s.options.Horizons, s.options.Buckets)
	if err != nil {
		return nil, err
	}
	tail, err := best.model.WaitTimeExceedsProbability(sla.WaitBound())
	if err != nil {
		return nil, err
	}
	result := &CapacityResult{
		Start:       start,
		Servers:     best.servers,
		Status:      status,
		Metric:      best.value,
		MeetsSLA:    best.meets,
		Iterations:  iterations,
		SLATailProb: tail,
		Report:      report,
	}
	if status == Unstable {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("starting capacity %d is unstable, raised to %d", start, max(start, analyzer.StabilityFloor(d.Lambda, d.Mu))))
	}
	if report.Occupancy.PrecisionWarning {
		result.Warnings = append(result.Warnings, "occupancy residual clamped to zero")
	}
	if rate, err := Headroom(d.Mu, best.servers, sla); err == nil {
		result.MaxArrivalRate = rate
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("headroom: %v", err))
	}
	return result, nil
}
