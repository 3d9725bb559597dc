package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/chazu/razen/vm"
)

func showProgram(text string) *vm.Program {
	return &vm.Program{Instructions: []vm.Instruction{
		{Op: vm.OpPushString, Str: text},
		{Op: vm.OpPrint},
	}}
}

func newVM(out io.Writer) *vm.VM {
	return vm.New(vm.WithOutput(out), vm.WithErrorOutput(io.Discard))
}

func TestWorkerDo(t *testing.T) {
	w := New(vm.New())
	defer w.Stop()

	err := w.Do(context.Background(), func(m *vm.VM) error {
		m.SetGlobal("x", vm.Number(1))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	var seen vm.Value
	err = w.Do(context.Background(), func(m *vm.VM) error {
		seen, _ = m.Global("x")
		return errors.New("done")
	})
	if err == nil || err.Error() != "done" {
		t.Errorf("Do returned %v, want the function's error", err)
	}
	if seen.Text() != "1" {
		t.Errorf("second request saw x = %s", seen.Text())
	}
}

func TestWorkerRecoversPanic(t *testing.T) {
	w := New(vm.New())
	defer w.Stop()

	err := w.Do(context.Background(), func(*vm.VM) error { panic("boom") })
	if err == nil || err.Error() != "worker: panic: boom" {
		t.Errorf("got %v", err)
	}

	// The worker keeps serving requests after a panic.
	if err := w.Do(context.Background(), func(*vm.VM) error { return nil }); err != nil {
		t.Errorf("after panic: %v", err)
	}
}

func TestWorkerDoHonorsContext(t *testing.T) {
	w := New(vm.New())
	defer w.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	go w.Do(context.Background(), func(*vm.VM) error {
		close(started)
		<-release
		return nil
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := w.Do(ctx, func(*vm.VM) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
	close(release)
}

func TestWorkerExecute(t *testing.T) {
	var out strings.Builder
	w := New(newVM(&out))
	defer w.Stop()

	if err := w.Execute(context.Background(), showProgram("hi")); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hi\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestWorkerExecuteStopsOnCancel(t *testing.T) {
	w := New(newVM(io.Discard))
	defer w.Stop()

	endless := &vm.Program{Instructions: []vm.Instruction{{Op: vm.OpJump, Arg: 0}}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.Execute(ctx, endless); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}

	// The worker serves requests one at a time, so this only completes once
	// the endless program has stopped.
	done, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := w.Do(done, func(*vm.VM) error { return nil }); err != nil {
		t.Errorf("worker still busy after cancellation: %v", err)
	}
}

func TestRunAll(t *testing.T) {
	var jobs []Job
	for i := 0; i < 6; i++ {
		jobs = append(jobs, Job{Name: fmt.Sprintf("job%d", i), Program: showProgram(fmt.Sprint(i))})
	}
	jobs[3].Program = &vm.Program{Instructions: []vm.Instruction{
		{Op: vm.OpPushString, Str: "bad"},
		{Op: vm.OpThrow},
	}}

	results, err := RunAll(context.Background(), jobs, 2, newVM)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(results), len(jobs))
	}

	ids := map[string]bool{}
	for i, res := range results {
		if res.Name != jobs[i].Name {
			t.Errorf("result %d is %s, want %s", i, res.Name, jobs[i].Name)
		}
		if res.ID == "" || ids[res.ID] {
			t.Errorf("result %d has missing or duplicate ID %q", i, res.ID)
		}
		ids[res.ID] = true

		if i == 3 {
			var unhandled *vm.UnhandledException
			if !errors.As(res.Err, &unhandled) {
				t.Errorf("job3 error = %v, want unhandled exception", res.Err)
			}
			continue
		}
		if res.Err != nil {
			t.Errorf("%s: %v", res.Name, res.Err)
		}
		if want := fmt.Sprintf("%d\n", i); res.Output != want {
			t.Errorf("%s output = %q, want %q", res.Name, res.Output, want)
		}
		if res.Steps != 2 {
			t.Errorf("%s steps = %d, want 2", res.Name, res.Steps)
		}
	}
}

func TestRunAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunAll(ctx, []Job{{Name: "never", Program: showProgram("x")}}, 0, newVM)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
