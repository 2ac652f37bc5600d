package manager

import (
	"encoding/json"
	"fmt"

	"github.com/squad-analytics/checkout-capacity/pkg/config"
	"github.com/squad-analytics/checkout-capacity/pkg/solver"
)

// starting capacity column of a row
type Start int

const (
	StartCurrent Start = iota // 0 : PDVs currently open
	StartMax                  // 1 : maximum PDVs
	StartTest                 // 2 : PDVs of a what-if scenario
	NumStarts
)

func (s Start) String() string {
	switch s {
	case StartCurrent:
		return "current"
	case StartMax:
		return "max"
	case StartTest:
		return "test"
	default:
		return "unknown"
	}
}

// starting capacity of a row for a column
func (s Start) Of(row *config.RowSpec) int {
	switch s {
	case StartCurrent:
		return row.Current
	case StartMax:
		return row.Max
	case StartTest:
		return row.Test
	default:
		return 0
	}
}

// outcome of sizing one row from each starting column
type RowResult struct {
	Index   int
	Row     config.RowSpec
	SLA     solver.SLASpec
	Results [NumStarts]*solver.CapacityResult // nil if the search failed outright
	Errors  [NumStarts]error
	Err     error // row could not be sized at all
}

func (r *RowResult) Result(s Start) *solver.CapacityResult {
	return r.Results[s]
}

// any search of the row ended in an error
func (r *RowResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, err := range r.Errors {
		if err != nil {
			return true
		}
	}
	return false
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// MarshalJSON keys results by starting column and renders errors as strings
func (r *RowResult) MarshalJSON() ([]byte, error) {
	type startResult struct {
		Result *solver.CapacityResult `json:"result,omitempty"`
		Error  string                 `json:"error,omitempty"`
	}
	starts := make(map[string]startResult, NumStarts)
	for s := StartCurrent; s < NumStarts; s++ {
		starts[s.String()] = startResult{Result: r.Results[s], Error: errString(r.Errors[s])}
	}
	return json.Marshal(struct {
		Index  int                    `json:"index"`
		Row    config.RowSpec         `json:"row"`
		SLA    string                 `json:"sla"`
		Starts map[string]startResult `json:"starts"`
		Error  string                 `json:"error,omitempty"`
	}{
		Index:  r.Index,
		Row:    r.Row,
		SLA:    r.SLA.String(),
		Starts: starts,
		Error:  errString(r.Err),
	})
}

func (r *RowResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("{row=%s, err=%v}", r.Row.Key(), r.Err)
	}
	return fmt.Sprintf("{row=%s, sla=%s, current=%v, max=%v, test=%v}",
		r.Row.Key(), r.SLA, r.Results[StartCurrent], r.Results[StartMax], r.Results[StartTest])
}

// Manager sizes rows with a shared searcher and SLA kind
type Manager struct {
	searcher *solver.Searcher
	kind     config.SLAKind
}

func NewManager(searcher *solver.Searcher, kind config.SLAKind) *Manager {
	if searcher == nil {
		searcher = solver.NewSearcher(nil, solver.Options{})
	}
	return &Manager{
		searcher: searcher,
		kind:     kind,
	}
}

func (m *Manager) Kind() config.SLAKind {
	return m.kind
}

// SLA of a row for the manager's kind, in hours
func (m *Manager) SLAFor(row *config.RowSpec) solver.SLASpec {
	meanWait, maxWait := row.WaitThresholds()
	if m.kind == config.PercentServed {
		return solver.SLASpec{Kind: m.kind, Threshold: row.SLAPercent, MaxWait: maxWait}
	}
	return solver.SLASpec{Kind: m.kind, Threshold: meanWait}
}

// SizeRow runs the capacity search from every starting column of a row
func (m *Manager) SizeRow(index int, row config.RowSpec) *RowResult {
	result := &RowResult{
		Index: index,
		Row:   row,
		SLA:   m.SLAFor(&row),
	}
	lambda, mu, err := row.Rates()
	if err != nil {
		result.Err = err
		return result
	}
	if row.Min > 0 && row.Max > 0 && row.Min > row.Max {
		result.Err = fmt.Errorf("invalid PDV bounds for row %s: min=%d > max=%d", row.Key(), row.Min, row.Max)
		return result
	}

	if limit := m.searcher.MaxServers(); max(row.Current, row.Min, row.Max, row.Test) > limit {
		result.Err = fmt.Errorf("invalid PDV counts for row %s: current=%d, min=%d, max=%d, test=%d exceed maxServers=%d",
			row.Key(), row.Current, row.Min, row.Max, row.Test, limit)
		return result
	}

	searcher := m.searcher.WithFloor(row.Min)
	demand := solver.Demand{Lambda: lambda, Mu: mu}
	for s := StartCurrent; s < NumStarts; s++ {
		result.Results[s], result.Errors[s] = searcher.Search(demand, s.Of(&row), result.SLA)
	}
	return result
}

// sum of chosen capacities over rows for a starting column, skipping failed searches
func TotalServers(results []*RowResult, s Start) int {
	total := 0
	for _, r := range results {
		if r == nil || r.Results[s] == nil {
			continue
		}
		total += r.Results[s].Servers
	}
	return total
}
