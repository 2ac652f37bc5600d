package analyzer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// probability that the waiting time exceeds a horizon
type TailProbability struct {
	Horizon float64 `json:"horizon"` // same time unit as the rates
	Prob    float64 `json:"prob"`
}

// occupancy distribution for k=0..len(Buckets)-1 plus the residual mass beyond
type Distribution struct {
	Buckets          []float64 `json:"buckets"`
	Residual         float64   `json:"residual"`
	PrecisionWarning bool      `json:"precisionWarning"` // residual was below -epsilon and clamped to 0
}

// performance metrics of a solved queue, as reported per row
type Report struct {
	Servers              int               `json:"servers"`
	Rho                  float64           `json:"rho"`
	IdleProb             float64           `json:"idleProb"`
	WaitProb             float64           `json:"waitProb"`
	AvgWaitTime          float64           `json:"avgWaitTime"`
	AvgWaitTimeGivenWait float64           `json:"avgWaitTimeGivenWait"`
	AvgQueueGivenWait    float64           `json:"avgQueueGivenWait"`
	AvgSystemSize        float64           `json:"avgSystemSize"`
	AvgRespTime          float64           `json:"avgRespTime"`
	SystemSizePerServer  float64           `json:"systemSizePerServer"`
	QueueGivenWaitPerSrv float64           `json:"queueGivenWaitPerServer"`
	Tail                 []TailProbability `json:"tail"`
	Occupancy            *Distribution     `json:"occupancy"`
}

// occupancy distribution over k=0..maxK and the residual "k>maxK" bucket
func (m *QueueModel) Occupancy(maxK int) (*Distribution, error) {
	if maxK < 0 {
		return nil, fmt.Errorf("%w: occupancy bucket count %d", ErrInvalidArgument, maxK)
	}
	buckets := make([]float64, maxK+1)
	for k := range buckets {
		p, err := m.OccupancyProbability(k)
		if err != nil {
			return nil, err
		}
		buckets[k] = p
	}
	d := &Distribution{Buckets: buckets}
	d.Residual, d.PrecisionWarning = clampResidual(1 - floats.Sum(buckets))
	return d, nil
}

// negative residuals are rounding error; only those beyond epsilon are flagged
func clampResidual(residual float64) (float64, bool) {
	if residual >= 0 {
		return residual, false
	}
	return 0, residual < -epsilon
}

// build the full metrics bundle; horizons are wait time thresholds for tail probabilities
func (m *QueueModel) Report(horizons []float64, maxK int) (*Report, error) {
	tail := make([]TailProbability, 0, len(horizons))
	for _, h := range horizons {
		p, err := m.WaitTimeExceedsProbability(h)
		if err != nil {
			return nil, err
		}
		tail = append(tail, TailProbability{Horizon: h, Prob: p})
	}
	occupancy, err := m.Occupancy(maxK)
	if err != nil {
		return nil, err
	}
	c := float64(m.servers)
	return &Report{
		Servers:              m.servers,
		Rho:                  m.rho,
		IdleProb:             m.IdleProbability(),
		WaitProb:             m.WaitProbability(),
		AvgWaitTime:          m.AverageWaitTime(),
		AvgWaitTimeGivenWait: m.AverageWaitTimeGivenWait(),
		AvgQueueGivenWait:    m.AverageQueueLengthGivenWait(),
		AvgSystemSize:        m.AverageSystemSize(),
		AvgRespTime:          m.AverageResponseTime(),
		SystemSizePerServer:  m.AverageSystemSize() / c,
		QueueGivenWaitPerSrv: m.AverageQueueLengthGivenWait() / c,
		Tail:                 tail,
		Occupancy:            occupancy,
	}, nil
}

func (r *Report) String() string {
	return fmt.Sprintf("{c=%d, rho=%.3f, p0=%.4f, pw=%.4f, wait=%.4f, waitGiven=%.4f, size=%.3f, resp=%.4f}",
		r.Servers, r.Rho, r.IdleProb, r.WaitProb, r.AvgWaitTime, r.AvgWaitTimeGivenWait, r.AvgSystemSize, r.AvgRespTime)
}
