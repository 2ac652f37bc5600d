package analyzer

import (
	"bytes"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// M/M/c queueing model: Poisson arrivals, exponential service, c identical servers
// sharing one unbounded waiting line. All quantities are computed at construction.
type QueueModel struct {
	lambda  float64 // arrival rate
	mu      float64 // service rate of a single server
	servers int     // number of servers (c)
	rho     float64 // utilization lambda/(mu*c)

	// terms a^k/k! for k=0..c (a = lambda/mu), scaled by exp(-scale) to stay finite
	weights []float64
	scale   float64
	norm    float64 // scaled normalization constant, p0 = exp(-scale)/norm

	p0      float64 // probability of an empty system
	pc      float64 // probability of exactly c customers in system
	probSum float64 // p0 + p1 + ... + p(c-1), probability of not having to wait
}

// create and solve an M/M/c model; fails with an UnstableQueueError if c*mu <= lambda
func NewQueueModel(lambda float64, mu float64, servers int) (*QueueModel, error) {
	if !(lambda > 0) || !(mu > 0) || servers < 1 || math.IsInf(lambda, 0) || math.IsInf(mu, 0) {
		return nil, fmt.Errorf("%w: lambda=%v, mu=%v, servers=%d", ErrInvalidArgument, lambda, mu, servers)
	}
	if !IsStable(lambda, mu, servers) {
		return nil, &UnstableQueueError{Lambda: lambda, Mu: mu, Servers: servers}
	}
	m := &QueueModel{
		lambda:  lambda,
		mu:      mu,
		servers: servers,
		rho:     lambda / (mu * float64(servers)),
	}
	m.solve()
	return m, nil
}

// build the weight series in log space, w(k) = w(k-1) * a/k, then rescale by its maximum
func (m *QueueModel) solve() {
	c := m.servers
	logA := math.Log(m.lambda / m.mu)
	logW := make([]float64, c+1)
	for k := 1; k <= c; k++ {
		logW[k] = logW[k-1] + logA - math.Log(float64(k))
	}
	m.scale = floats.Max(logW)

	m.weights = make([]float64, c+1)
	for k, lw := range logW {
		m.weights[k] = math.Exp(lw - m.scale)
	}
	preSum := floats.Sum(m.weights)
	finalTerm := m.weights[c]

	m.norm = preSum - finalTerm + finalTerm/(1-m.rho)
	m.p0 = math.Exp(-m.scale) / m.norm
	m.pc = finalTerm / m.norm
	m.probSum = (preSum - finalTerm) / m.norm
}

// stability condition of an M/M/c queue
func IsStable(lambda float64, mu float64, servers int) bool {
	return float64(servers)*mu > lambda
}

// smallest number of servers that keeps the queue stable
func StabilityFloor(lambda float64, mu float64) int {
	if !(mu > 0) {
		return 0
	}
	c := max(int(math.Floor(lambda/mu)), 1)
	for !IsStable(lambda, mu, c) {
		c++
	}
	for c > 1 && IsStable(lambda, mu, c-1) {
		c--
	}
	return c
}

func (m *QueueModel) GetLambda() float64 {
	return m.lambda
}

func (m *QueueModel) GetMu() float64 {
	return m.mu
}

func (m *QueueModel) GetServers() int {
	return m.servers
}

func (m *QueueModel) GetRho() float64 {
	return m.rho
}

// probability of k customers in system
func (m *QueueModel) OccupancyProbability(k int) (float64, error) {
	switch {
	case k < 0:
		return 0, fmt.Errorf("%w: occupancy index %d", ErrInvalidArgument, k)
	case k == 0:
		return m.p0, nil
	case k == m.servers:
		return m.pc, nil
	case k < m.servers:
		return m.weights[k] / m.norm, nil
	default:
		return m.pc * math.Pow(m.rho, float64(k-m.servers)), nil
	}
}

// Erlang-C: probability that an arriving customer has to queue, 1 - (p0 + ... + p(c-1)).
// Computed as pc/(1-rho), which equals 1-probSum and avoids cancellation when waiting is rare.
func (m *QueueModel) WaitProbability() float64 {
	return m.pc / (1 - m.rho)
}

func (m *QueueModel) IdleProbability() float64 {
	return m.p0
}

// average number of customers in system (queue + service)
func (m *QueueModel) AverageSystemSize() float64 {
	return m.rho/(1-m.rho)*m.WaitProbability() + float64(m.servers)*m.rho
}

// average time in queue over all customers
func (m *QueueModel) AverageWaitTime() float64 {
	return m.WaitProbability() / (float64(m.servers)*m.mu - m.lambda)
}

func (m *QueueModel) AverageQueueLengthGivenWait() float64 {
	return m.pc / ((1 - m.rho) * (1 - m.rho))
}

func (m *QueueModel) AverageWaitTimeGivenWait() float64 {
	pw := m.WaitProbability()
	if pw == 0 {
		return 0
	}
	return m.AverageQueueLengthGivenWait() / (pw * m.lambda)
}

// average time in system (waiting + service)
func (m *QueueModel) AverageResponseTime() float64 {
	return m.AverageWaitTime() + 1/m.mu
}

// average number in system by Little's law, agrees with AverageSystemSize
func (m *QueueModel) AverageSystemSizeViaResponse() float64 {
	return m.AverageResponseTime() * m.lambda
}

// average number of busy servers
func (m *QueueModel) AverageBusyServers() float64 {
	return m.lambda / m.mu
}

// P(W > t)
func (m *QueueModel) WaitTimeExceedsProbability(t float64) (float64, error) {
	if t < 0 || math.IsNaN(t) {
		return 0, fmt.Errorf("%w: wait time threshold %v", ErrInvalidArgument, t)
	}
	c := float64(m.servers)
	return m.pc / (1 - m.rho) * math.Exp(-c*m.mu*(1-m.rho)*t), nil
}

// percentage of customers served within a maximum wait time, 100*P(W <= t)
func (m *QueueModel) PercentServedWithin(t float64) (float64, error) {
	p, err := m.WaitTimeExceedsProbability(t)
	if err != nil {
		return 0, err
	}
	return 100 * (1 - p), nil
}

func (m *QueueModel) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "lambda=%v; mu=%v; c=%d; rho=%v; ", m.lambda, m.mu, m.servers, m.rho)
	fmt.Fprintf(&b, "P0=%v; Pw=%v; W=%v; Wg=%v; N=%v; ",
		m.p0, m.WaitProbability(), m.AverageWaitTime(), m.AverageWaitTimeGivenWait(), m.AverageSystemSize())
	return b.String()
}
