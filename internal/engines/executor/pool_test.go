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
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolExecutor(t *testing.T) {
	_, err := NewPoolExecutor(Config{})
	assert.Error(t, err)

	e, err := NewPoolExecutor(Config{TaskFunc: func(context.Context, int) error { return nil }})
	require.NoError(t, err)
	defer e.Release()
	assert.Greater(t, e.Workers(), 0)
}

func TestPoolExecutor_RunsEveryTask(t *testing.T) {
	const n = 100
	var seen [n]atomic.Int32
	e, err := NewPoolExecutor(Config{
		Workers: 4,
		TaskFunc: func(_ context.Context, i int) error {
			seen[i].Add(1)
			return nil
		},
	})
	require.NoError(t, err)
	defer e.Release()

	require.NoError(t, e.Run(context.Background(), n))
	for i := range seen {
		assert.Equal(t, int32(1), seen[i].Load(), "task %d", i)
	}
}

func TestPoolExecutor_CollectsErrorsAndPanics(t *testing.T) {
	errOdd := errors.New("odd row")
	var done atomic.Int32
	e, err := NewPoolExecutor(Config{
		Workers: 2,
		TaskFunc: func(_ context.Context, i int) error {
			done.Add(1)
			switch {
			case i == 4:
				panic("boom")
			case i%2 == 1:
				return errOdd
			}
			return nil
		},
	})
	require.NoError(t, err)
	defer e.Release()

	err = e.Run(context.Background(), 6)
	require.Error(t, err)
	assert.ErrorIs(t, err, errOdd)
	assert.Contains(t, err.Error(), "task 4 panicked")
	assert.Equal(t, int32(6), done.Load())
}

func TestPoolExecutor_Cancelled(t *testing.T) {
	var calls atomic.Int32
	e, err := NewPoolExecutor(Config{
		Workers: 1,
		TaskFunc: func(context.Context, int) error {
			calls.Add(1)
			return nil
		},
	})
	require.NoError(t, err)
	defer e.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = e.Run(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}
