package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/squad-analytics/checkout-capacity/pkg/utils"
)

// default sizing specification
func DefaultSizingSpec() SizingSpec {
	return SizingSpec{
		SLAKind:         DefaultSLAKind.String(),
		Backoff:         DefaultBackoffPolicy.String(),
		MaxIterations:   DefaultMaxIterations,
		MaxServers:      DefaultMaxServers,
		Workers:         runtime.NumCPU(),
		Buckets:         DefaultOccupancyBuckets,
		HorizonsMinutes: append([]float64(nil), DefaultTailHorizonsMinutes...),
		HeaderRows:      DefaultHeaderRows,
	}
}

// load sizing specification from a YAML file (empty path = defaults), then apply environment overrides
func Load(path string) (*SizingSpec, error) {
	spec := DefaultSizingSpec()
	if path != "" {
		bytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		data, err := utils.FromDataToSpec(bytes, SizingData{Spec: spec})
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		spec = data.Spec
	}
	if err := spec.applyEnv(); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *SizingSpec) applyEnv() error {
	if v, ok := os.LookupEnv(EnvSLAKind); ok {
		s.SLAKind = v
	}
	if v, ok := os.LookupEnv(EnvBackoff); ok {
		s.Backoff = v
	}
	for name, field := range map[string]*int{
		EnvWorkers:       &s.Workers,
		EnvMaxIterations: &s.MaxIterations,
		EnvMaxServers:    &s.MaxServers,
	} {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", name, v, err)
		}
		*field = n
	}
	return nil
}

// check validity of the sizing specification
func (s *SizingSpec) Validate() error {
	if _, err := ParseSLAKind(s.SLAKind); err != nil {
		return err
	}
	if _, err := ParseBackoffPolicy(s.Backoff); err != nil {
		return err
	}
	if s.MaxIterations <= 0 {
		return fmt.Errorf("maxIterations must be positive, got %d", s.MaxIterations)
	}
	if s.MaxServers <= 0 {
		return fmt.Errorf("maxServers must be positive, got %d", s.MaxServers)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	if s.Buckets < 0 {
		return fmt.Errorf("occupancyBuckets must not be negative, got %d", s.Buckets)
	}
	if s.HeaderRows < 0 {
		return fmt.Errorf("headerRows must not be negative, got %d", s.HeaderRows)
	}
	for _, h := range s.HorizonsMinutes {
		if h < 0 {
			return fmt.Errorf("tail horizon must not be negative, got %v", h)
		}
	}
	return nil
}

// parsed SLA kind, validated by Load
func (s *SizingSpec) Kind() SLAKind {
	k, _ := ParseSLAKind(s.SLAKind)
	return k
}

// parsed backoff policy, validated by Load
func (s *SizingSpec) Policy() BackoffPolicy {
	p, _ := ParseBackoffPolicy(s.Backoff)
	return p
}

// tail horizons converted to hours
func (s *SizingSpec) Horizons() []float64 {
	hours := make([]float64, len(s.HorizonsMinutes))
	for i, m := range s.HorizonsMinutes {
		hours[i] = m / MinutesPerHour
	}
	return hours
}

// effective number of workers
func (s *SizingSpec) WorkerCount() int {
	if s.Workers <= 0 {
		return runtime.NumCPU()
	}
	return s.Workers
}

func (s *SizingSpec) String() string {
	return fmt.Sprintf("{sla=%s, backoff=%s, maxIter=%d, maxServers=%d, workers=%d, buckets=%d, horizons=%v}",
		s.SLAKind, s.Backoff, s.MaxIterations, s.MaxServers, s.Workers, s.Buckets, s.HorizonsMinutes)
}
