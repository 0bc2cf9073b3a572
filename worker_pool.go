// Copyright 2025 Agentic World, LLC (Sherin Thomas)
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

package docsnake

import (
	"context"
	"sync"
)

// WorkerPool runs a fixed number of goroutines that drain a work queue.
// Discovery fans out over roots through a pool so a long seed list never
// spawns unbounded goroutines.
//
// Every accepted item runs: workers drain the queue until it is closed
// and never exit early on cancellation, so callers that pair bookkeeping
// across Submit and the item itself (Run's WaitGroup does) cannot be left
// waiting on abandoned entries. Cancellation is the item's job to
// observe; after the context ends, items checking it return immediately.
type WorkerPool struct {
	workQueue chan func()
	wg        sync.WaitGroup
	ctx       context.Context
}

// NewWorkerPool starts workers goroutines backed by a queue of
// queueSize. Submit blocks once the queue is full.
func NewWorkerPool(ctx context.Context, workers int, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	wp := &WorkerPool{
		workQueue: make(chan func(), queueSize),
		ctx:       ctx,
	}

	wp.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go wp.drain()
	}

	return wp
}

func (wp *WorkerPool) drain() {
	defer wp.wg.Done()

	for work := range wp.workQueue {
		work()
	}
}

// Submit queues a work item, blocking when the queue is full. A nil
// return means the item will run; the context error comes back only
// when the queue is full and the pool's context has been cancelled.
func (wp *WorkerPool) Submit(work func()) error {
	select {
	case wp.workQueue <- work:
		return nil

	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Close stops accepting work and waits for the queue to drain.
func (wp *WorkerPool) Close() {
	close(wp.workQueue)
	wp.wg.Wait()
}
