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

import "context"

// Executor defines how sizing tasks are executed.
type Executor interface {
	// Run executes tasks 0..n-1 and blocks until all of them returned or the context is cancelled.
	Run(ctx context.Context, n int) error
}

// TaskFunc is the function executed for each task index.
type TaskFunc func(ctx context.Context, index int) error

// Config holds common executor configuration.
type Config struct {
	TaskFunc TaskFunc
	Workers  int // concurrent tasks (<= 0 = number of CPUs)
}
