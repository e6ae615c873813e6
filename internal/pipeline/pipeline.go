package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Step is one unit of orchestration work.
type Step struct {
	Name string
	Run  func(ctx context.Context) error

	children []Step
	parallel bool
}

// Sequence groups steps that run one after another under a common name.
func Sequence(name string, steps ...Step) Step {
	return Step{Name: name, children: steps}
}

// Parallel groups steps that run concurrently. Each child still runs its own
// children in order. The first failure cancels the context of the others.
func Parallel(name string, steps ...Step) Step {
	return Step{Name: name, children: steps, parallel: true}
}

// Status is the outcome of a step.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result records what happened to a leaf step.
type Result struct {
	Name     string
	Status   Status
	Duration time.Duration
	Err      error
}

// Observer is notified after every leaf step.
type Observer interface {
	ObserveStep(name string, duration time.Duration, err error)
}

// StepError identifies the step that stopped the run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Pipeline executes steps and keeps their results.
type Pipeline struct {
	log      logr.Logger
	observer Observer

	mu      sync.Mutex
	results []Result
}

// New creates a Pipeline. observer may be nil.
func New(log logr.Logger, observer Observer) *Pipeline {
	return &Pipeline{log: log.WithName("pipeline"), observer: observer}
}

// Run executes steps in order and stops at the first failure. The returned
// error is a *StepError naming the failed leaf step.
func (p *Pipeline) Run(ctx context.Context, steps ...Step) error {
	for i, step := range steps {
		if err := p.run(ctx, step); err != nil {
			p.skip(steps[i+1:])
			return err
		}
	}
	return nil
}

// Results returns the results recorded so far, in completion order.
func (p *Pipeline) Results() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return out
}

func (p *Pipeline) run(ctx context.Context, step Step) error {
	switch {
	case step.parallel:
		return p.runParallel(ctx, step)
	case step.Run == nil:
		p.log.Info("entering group", "group", step.Name)
		return p.Run(ctx, step.children...)
	default:
		return p.runLeaf(ctx, step)
	}
}

func (p *Pipeline) runLeaf(ctx context.Context, step Step) error {
	if err := ctx.Err(); err != nil {
		p.record(Result{Name: step.Name, Status: StatusSkipped})
		return &StepError{Step: step.Name, Err: err}
	}

	p.log.Info("step started", "step", step.Name)
	start := time.Now()
	err := step.Run(ctx)
	duration := time.Since(start)

	if p.observer != nil {
		p.observer.ObserveStep(step.Name, duration, err)
	}

	if err != nil {
		p.log.Error(err, "step failed", "step", step.Name, "duration", duration.Round(time.Millisecond))
		p.record(Result{Name: step.Name, Status: StatusFailed, Duration: duration, Err: err})
		return &StepError{Step: step.Name, Err: err}
	}

	p.log.Info("step finished", "step", step.Name, "duration", duration.Round(time.Millisecond))
	p.record(Result{Name: step.Name, Status: StatusSucceeded, Duration: duration})
	return nil
}

// runParallel starts every child concurrently and waits for all of them.
// The first error to arrive is returned.
func (p *Pipeline) runParallel(ctx context.Context, group Step) error {
	if len(group.children) == 0 {
		return nil
	}
	p.log.Info("entering parallel group", "group", group.Name, "branches", len(group.children))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultChan := make(chan error, len(group.children))
	for _, child := range group.children {
		go func() {
			err := p.run(ctx, child)
			if err != nil {
				cancel()
			}
			resultChan <- err
		}()
	}

	var firstError error
	for range len(group.children) {
		if err := <-resultChan; err != nil && firstError == nil {
			firstError = err
		}
	}
	return firstError
}

func (p *Pipeline) skip(steps []Step) {
	for _, step := range steps {
		if step.Run == nil {
			p.skip(step.children)
			continue
		}
		p.record(Result{Name: step.Name, Status: StatusSkipped})
	}
}

func (p *Pipeline) record(r Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
}
