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

package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/squad-analytics/checkout-capacity/internal/logger"
)

// PoolExecutor executes tasks on a bounded worker pool.
type PoolExecutor struct {
	config Config
	pool   *ants.Pool
}

// NewPoolExecutor creates a new pool executor.
func NewPoolExecutor(config Config) (*PoolExecutor, error) {
	if config.TaskFunc == nil {
		return nil, errors.New("executor: nil task function")
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	pool, err := ants.NewPool(config.Workers,
		ants.WithPreAlloc(true),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Log.Errorw("Worker panic", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &PoolExecutor{config: config, pool: pool}, nil
}

// Workers returns the pool capacity.
func (e *PoolExecutor) Workers() int {
	return e.pool.Cap()
}

// Run executes tasks 0..n-1 and returns the joined task errors.
// Tasks not yet started when the context is cancelled return the context error.
func (e *PoolExecutor) Run(ctx context.Context, n int) error {
	errs := make([]error, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			for j := i; j < n; j++ {
				errs[j] = err
			}
			break
		}
		index := i
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			errs[index] = e.execute(ctx, index)
		})
		if err != nil {
			wg.Done()
			errs[index] = fmt.Errorf("task %d not submitted: %w", index, err)
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (e *PoolExecutor) execute(ctx context.Context, index int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Log.Errorw("Task panic", "task", index, "panic", p)
			err = fmt.Errorf("task %d panicked: %v", index, p)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.config.TaskFunc(ctx, index)
}

// Release closes the worker pool.
func (e *PoolExecutor) Release() {
	e.pool.Release()
}
