// Package worker runs compiled programs on VMs owned by dedicated
// goroutines.
package worker

import (
	"context"
	"fmt"

	"github.com/chazu/razen/vm"
)

// request is a unit of work to be executed on the VM goroutine.
type request struct {
	fn   func(*vm.VM) error
	done chan error
}

// Worker serializes all access to one VM through a single goroutine.
// The interpreter is single-threaded; callers on other goroutines must go
// through the worker to avoid data races.
type Worker struct {
	vm       *vm.VM
	requests chan request
	quit     chan struct{}
}

// New creates a Worker and starts the processing goroutine.
func New(v *vm.VM) *Worker {
	w := &Worker{
		vm:       v,
		requests: make(chan request, 16),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs a function on the VM, recovering from panics.
func (w *Worker) execute(fn func(*vm.VM) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker: panic: %v", r)
		}
	}()
	return fn(w.vm)
}

// Do submits fn for execution on the VM goroutine and blocks until it
// completes or ctx is done. A request already running is not interrupted
// by ctx.
func (w *Worker) Do(ctx context.Context, fn func(*vm.VM) error) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case w.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs prog on the worker's VM. The program itself is stopped
// when ctx ends, so the worker is free again shortly after.
func (w *Worker) Execute(ctx context.Context, prog *vm.Program) error {
	return w.Do(ctx, func(m *vm.VM) error { return m.ExecuteContext(ctx, prog) })
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	close(w.quit)
}
