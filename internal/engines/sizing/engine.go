/*
Copyright 2025 The Checkout Capacity Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sizing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/squad-analytics/checkout-capacity/internal/engines/executor"
	"github.com/squad-analytics/checkout-capacity/internal/logger"
	"github.com/squad-analytics/checkout-capacity/internal/metrics"
	"github.com/squad-analytics/checkout-capacity/pkg/analyzer"
	"github.com/squad-analytics/checkout-capacity/pkg/config"
	"github.com/squad-analytics/checkout-capacity/pkg/manager"
	"github.com/squad-analytics/checkout-capacity/pkg/solver"
)

// failure reasons reported to metrics
const (
	ReasonNotConverged = "not_converged"
	ReasonInvalidRow   = "invalid_row"
	ReasonSearchError  = "search_error"
)

// Engine sizes all rows of an input in parallel.
type Engine struct {
	spec    *config.SizingSpec
	manager *manager.Manager
	emitter *metrics.MetricsEmitter
}

// NewEngine creates a new instance of the sizing engine.
// A nil emitter is replaced by a no-op one.
func NewEngine(spec *config.SizingSpec, emitter *metrics.MetricsEmitter) *Engine {
	if spec == nil {
		def := config.DefaultSizingSpec()
		spec = &def
	}
	if emitter == nil {
		emitter = metrics.NewMetricsEmitter()
	}
	searcher := solver.NewSearcher(analyzer.NewQueueModel, solver.OptionsFromSpec(spec))
	return &Engine{
		spec:    spec,
		manager: manager.NewManager(searcher, spec.Kind()),
		emitter: emitter,
	}
}

// Run sizes every row and returns the results in input order.
// Row failures are recorded in the results; the returned error reports only run-level failures.
func (e *Engine) Run(ctx context.Context, rows []config.RowSpec) ([]*manager.RowResult, error) {
	runID := uuid.New().String()
	log := logger.Log.With("run", runID)
	begin := time.Now()
	log.Infow("Sizing run started", "rows", len(rows), "spec", e.spec.String())

	results := make([]*manager.RowResult, len(rows))
	exec, err := executor.NewPoolExecutor(executor.Config{
		Workers: e.spec.WorkerCount(),
		TaskFunc: func(ctx context.Context, i int) error {
			results[i] = e.sizeRow(ctx, i, rows[i])
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	defer exec.Release()

	if err := exec.Run(ctx, len(rows)); err != nil {
		return results, fmt.Errorf("sizing run %s: %w", runID, err)
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	for s := manager.StartCurrent; s < manager.NumStarts; s++ {
		e.emitter.EmitRequiredServers(ctx, s.String(), manager.TotalServers(results, s))
	}
	log.Infow("Sizing run completed", "rows", len(rows), "failed", failed, "duration", time.Since(begin))
	return results, nil
}

func (e *Engine) sizeRow(ctx context.Context, index int, row config.RowSpec) *manager.RowResult {
	result := e.manager.SizeRow(index, row)
	if result.Err != nil {
		logger.Log.Warnw("Row skipped", "row", index, "key", row.Key(), "error", result.Err)
		e.emitter.EmitErrorMetrics(ctx, ReasonInvalidRow)
		return result
	}

	kind := e.manager.Kind().String()
	for s := manager.StartCurrent; s < manager.NumStarts; s++ {
		res, err := result.Results[s], result.Errors[s]
		if err != nil {
			reason := ReasonSearchError
			if errors.Is(err, solver.ErrSearchDidNotConverge) {
				reason = ReasonNotConverged
			}
			logger.Log.Warnw("Capacity search failed", "row", index, "key", row.Key(), "start", s.String(), "error", err)
			e.emitter.EmitErrorMetrics(ctx, reason)
		}
		if res == nil {
			continue
		}
		for _, w := range res.Warnings {
			logger.Log.Debugw("Capacity search warning", "row", index, "key", row.Key(), "start", s.String(), "warning", w)
		}
		e.emitter.EmitSearchMetrics(ctx, kind, s.String(), res.Iterations, res.Changed(), res.Report.Occupancy.PrecisionWarning)
	}
	logger.Log.Debugw("Row sized", "row", index, "result", result.String())
	return result
}
