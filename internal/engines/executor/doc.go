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

/*
Package executor provides task execution strategies.

# Overview

The executor package runs independent sizing tasks, one per input row:

  - [PoolExecutor]: bounded goroutine pool backed by ants

Task errors and panics are collected and returned joined; a failing task
never stops the other tasks.

# Thread Safety

All executor types are safe for concurrent use from multiple goroutines.
*/
package executor
