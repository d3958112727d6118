// Copyright 2025 Emiliano Spinella (eminwux)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package fanout runs one task per index, either in order or concurrently
// with a bound. Tasks report through their own slots; none can abort the
// others.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Each calls fn for every index in [0, n). parallel <= 1 runs them in order
// on the calling goroutine. At most parallel calls are in flight; indices
// that never obtain a slot because ctx ended are still visited, one at a
// time, with that ctx.
func Each(ctx context.Context, n, parallel int, fn func(ctx context.Context, i int)) {
	if parallel <= 1 || n <= 1 {
		for i := range n {
			fn(ctx, i)
		}
		return
	}

	var g errgroup.Group
	sem := semaphore.NewWeighted(int64(parallel))
	next := 0
	for ; next < n; next++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func(i int) func() error {
			return func() error {
				defer sem.Release(1)
				fn(ctx, i)
				return nil
			}
		}(next))
	}
	_ = g.Wait()

	for i := next; i < n; i++ {
		fn(ctx, i)
	}
}
