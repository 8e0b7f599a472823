/*
 * Copyright 2026 The Modem Core Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package taskpool runs background goroutines with panic recovery. It
// is a trimmed form of a general elastic worker pool: the Engine only
// ever needs one long-lived URC listener goroutine plus short-lived
// per-URC handler invocations, so the idle-worker aging and task
// queueing an RPC-serving pool needs are dropped; what is kept is the
// panic-recovery wrapper and the injectable panic handler.
package taskpool

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/modemcore/atcore/internal/atlog"
)

// Pool runs funcs in their own goroutines, recovering panics so one
// failing task can never take down its caller.
type Pool struct {
	panicHandler func(ctx context.Context, r any)
	logger       atlog.Logger

	wg sync.WaitGroup
}

// New returns a Pool that logs recovered panics through logger (or
// atlog.Default() if nil) unless a panic handler is set.
func New(logger atlog.Logger) *Pool {
	if logger == nil {
		logger = atlog.Default()
	}
	return &Pool{logger: logger}
}

// SetPanicHandler overrides the default log-and-continue behavior for
// panics recovered from tasks run through this Pool.
func (p *Pool) SetPanicHandler(f func(ctx context.Context, r any)) {
	p.panicHandler = f
}

// Go runs f in a new goroutine, recovering any panic.
func (p *Pool) Go(ctx context.Context, f func(ctx context.Context)) {
	p.wg.Add(1)
	go p.runTask(ctx, f)
}

// Wait blocks until every goroutine started with Go has returned.
// Used during Engine teardown to ensure the URC listener has fully
// exited before Deinitialize tears down the hardware underneath it.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) runTask(ctx context.Context, f func(ctx context.Context)) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			if p.panicHandler != nil {
				p.panicHandler(ctx, r)
			} else {
				p.logger.Error("taskpool: recovered panic", "panic", r, "stack", string(debug.Stack()))
			}
		}
	}()
	f(ctx)
}
