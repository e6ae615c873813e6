// Package runnertest provides a recording runner.Runner for tests.
package runnertest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/imamik/infermesh/internal/runner"
)

// Call is one recorded invocation. PipeTo is set for Pipe calls.
type Call struct {
	Command runner.Command
	PipeTo  *runner.Command
	Stdin   string
}

// String renders the call as a shell line.
func (c Call) String() string {
	if c.PipeTo != nil {
		return c.Command.String() + " | " + c.PipeTo.String()
	}
	return c.Command.String()
}

type rule struct {
	match  string
	output string
	err    error
}

// Recorder records every command instead of running it. Responses and
// failures are matched by substring against the rendered command line.
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	responses []rule
	failures  []rule
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// RespondTo makes Output return output for commands containing match.
func (r *Recorder) RespondTo(match, output string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, rule{match: match, output: output})
	return r
}

// FailOn makes any command containing match return err. The failing call is
// still recorded.
func (r *Recorder) FailOn(match string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, rule{match: match, err: err})
	return r
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Lines returns every recorded call rendered as a command line.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Matching returns the recorded lines containing substr.
func (r *Recorder) Matching(substr string) []string {
	var out []string
	for _, line := range r.Lines() {
		if strings.Contains(line, substr) {
			out = append(out, line)
		}
	}
	return out
}

// Index returns the position of the first line containing substr, or -1.
func (r *Recorder) Index(substr string) int {
	for i, line := range r.Lines() {
		if strings.Contains(line, substr) {
			return i
		}
	}
	return -1
}

// Run implements runner.Runner.
func (r *Recorder) Run(ctx context.Context, cmd runner.Command) error {
	_, err := r.record(ctx, Call{Command: cmd, Stdin: drain(cmd.Stdin)})
	return err
}

// Output implements runner.Runner.
func (r *Recorder) Output(ctx context.Context, cmd runner.Command) (string, error) {
	return r.record(ctx, Call{Command: cmd, Stdin: drain(cmd.Stdin)})
}

// Pipe implements runner.Runner.
func (r *Recorder) Pipe(ctx context.Context, from, to runner.Command) error {
	_, err := r.record(ctx, Call{Command: from, PipeTo: &to})
	return err
}

func (r *Recorder) record(ctx context.Context, call Call) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)

	line := call.String()
	for _, f := range r.failures {
		if strings.Contains(line, f.match) {
			return "", &runner.ExitError{Command: line, Stderr: f.err.Error(), Err: f.err}
		}
	}
	for _, resp := range r.responses {
		if strings.Contains(line, resp.match) {
			return resp.output, nil
		}
	}
	return "", nil
}

func drain(in io.Reader) string {
	if in == nil {
		return ""
	}
	data, _ := io.ReadAll(in)
	return string(data)
}

var _ runner.Runner = (*Recorder)(nil)
