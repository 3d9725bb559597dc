package worker

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/chazu/razen/vm"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("razen.worker")

// Job is a program to run.
type Job struct {
	Name    string
	Program *vm.Program
}

// Result is the outcome of one job. Err holds the program's own failure;
// it does not stop other jobs.
type Result struct {
	ID       string
	Name     string
	Output   string
	Err      error
	Steps    int
	Duration time.Duration
}

// Factory creates a fresh VM writing program output to out.
type Factory func(out io.Writer) *vm.VM

// RunAll runs jobs concurrently, at most limit at a time, each on its own
// VM and worker. Results are returned in job order. The error is non-nil
// only when ctx ends before every job has run; running programs are then
// stopped and their workers exit once the VM returns.
func RunAll(ctx context.Context, jobs []Job, limit int, factory Factory) ([]Result, error) {
	if limit <= 0 {
		limit = 1
	}
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = run(ctx, job, factory)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func run(ctx context.Context, job Job, factory Factory) Result {
	res := Result{ID: uuid.NewString(), Name: job.Name}
	log.Debugf("job %s (%s) starting", res.ID, job.Name)

	var out bytes.Buffer
	machine := factory(&out)
	w := New(machine)
	defer w.Stop()

	start := time.Now()
	res.Err = w.Execute(ctx, job.Program)
	res.Duration = time.Since(start)
	if ctx.Err() != nil && res.Err == ctx.Err() {
		// The VM may still be running; its output is not ours to read.
		return res
	}
	res.Output = out.String()
	res.Steps = machine.Steps()

	if res.Err != nil {
		log.Infof("job %s (%s) failed: %v", res.ID, job.Name, res.Err)
	} else {
		log.Debugf("job %s (%s) finished in %s", res.ID, job.Name, res.Duration)
	}
	return res
}
