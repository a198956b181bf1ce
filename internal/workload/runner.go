// Package workload drives a timer registry with a synthetic workload.
//
// Every worker runs every configured event Iterations times, in order,
// timing each run under the event name. Nested events are timed inside
// their parent. An event with fail_every N returns an error on every Nth
// iteration, which exercises the discard-on-failure path of the registry.
package workload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/timerset/internal/config"
	"github.com/wesleyorama2/timerset/pkg/timerset"
)

// ErrInjected is the error returned by iterations selected by fail_every.
var ErrInjected = errors.New("injected failure")

// Result summarizes a run.
type Result struct {
	Name      string        `json:"name" yaml:"name"`
	Workers   int           `json:"workers" yaml:"workers"`
	Completed int64         `json:"completed" yaml:"completed"`
	Failed    int64         `json:"failed" yaml:"failed"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

type step struct {
	name       string
	iterations int
	sleep      time.Duration
	spin       int
	failEvery  int
	nested     []step
}

// Runner executes a workload against a registry.
type Runner struct {
	name    string
	workers int
	steps   []step
	timers  *timerset.Registry

	completed atomic.Int64
	failed    atomic.Int64
	spinSink  atomic.Uint64
}

// NewRegistry builds a registry matching the workload's mode and ring size.
func NewRegistry(w *config.Workload, opts ...timerset.Option) (*timerset.Registry, error) {
	mode, err := timerset.ParseMode(w.Mode)
	if err != nil {
		return nil, err
	}

	base := []timerset.Option{timerset.WithMode(mode)}
	if w.Ring > 0 {
		base = append(base, timerset.WithSampleRing(w.Ring))
	}
	return timerset.New(append(base, opts...)...)
}

// NewRunner compiles w for execution against timers.
func NewRunner(w *config.Workload, timers *timerset.Registry) (*Runner, error) {
	steps, err := compile(w.Events)
	if err != nil {
		return nil, err
	}

	workers := w.Workers
	if workers < 1 {
		workers = 1
	}

	return &Runner{
		name:    w.Name,
		workers: workers,
		steps:   steps,
		timers:  timers,
	}, nil
}

func compile(events []config.Event) ([]step, error) {
	steps := make([]step, 0, len(events))
	for _, e := range events {
		sleep, err := e.SleepDuration()
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", e.Name, err)
		}
		nested, err := compile(e.Nested)
		if err != nil {
			return nil, err
		}
		iterations := e.Iterations
		if iterations < 1 {
			iterations = 1
		}
		steps = append(steps, step{
			name:       e.Name,
			iterations: iterations,
			sleep:      sleep,
			spin:       e.Spin,
			failEvery:  e.FailEvery,
			nested:     nested,
		})
	}
	return steps, nil
}

// Run starts the workers and waits for them. It returns ctx.Err() if the
// context was cancelled before every worker finished.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.runSteps(ctx, r.steps)
		}()
	}
	wg.Wait()

	result := &Result{
		Name:      r.name,
		Workers:   r.workers,
		Completed: r.completed.Load(),
		Failed:    r.failed.Load(),
		Elapsed:   time.Since(start),
	}
	return result, ctx.Err()
}

func (r *Runner) runSteps(ctx context.Context, steps []step) {
	for _, s := range steps {
		for i := 1; i <= s.iterations; i++ {
			if ctx.Err() != nil {
				return
			}
			err := r.timers.TimeErr(s.name, func() error {
				return r.execute(ctx, s, i)
			})
			if err != nil {
				r.failed.Add(1)
				continue
			}
			r.completed.Add(1)
		}
	}
}

func (r *Runner) execute(ctx context.Context, s step, iteration int) error {
	if s.sleep > 0 {
		timer := time.NewTimer(s.sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.spin > 0 {
		r.spinSink.Add(spin(s.spin))
	}

	if len(s.nested) > 0 {
		r.runSteps(ctx, s.nested)
	}

	if s.failEvery > 0 && iteration%s.failEvery == 0 {
		return fmt.Errorf("%s iteration %d: %w", s.name, iteration, ErrInjected)
	}
	return ctx.Err()
}

// spin burns CPU for n xorshift rounds.
func spin(n int) uint64 {
	x := uint64(88172645463325252)
	for i := 0; i < n; i++ {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
	}
	return x
}
