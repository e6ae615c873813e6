// Package runner executes the external CLIs the orchestration delegates to.
//
// Every command streams its output to the configured writers as it runs, so
// failures surface as the tool's own output. Stderr is also captured and
// attached to the returned ExitError.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// Command is one external process invocation.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory of the process. Empty means the current directory.
	Dir string

	// Stdin is fed to the process when set.
	Stdin io.Reader
}

// Cmd is a shorthand constructor.
func Cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// In returns a copy of the command that runs in dir.
func (c Command) In(dir string) Command {
	c.Dir = dir
	return c
}

// String renders the command line, quoting arguments that contain spaces.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Runner runs external commands.
type Runner interface {
	// Run executes the command and waits for it to exit.
	Run(ctx context.Context, cmd Command) error

	// Output executes the command and returns its stdout.
	Output(ctx context.Context, cmd Command) (string, error)

	// Pipe connects the stdout of from to the stdin of to. Both processes
	// must exit successfully.
	Pipe(ctx context.Context, from, to Command) error
}

// ExitError reports a failed external command.
type ExitError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code, or -1 if the process did not exit normally.
func (e *ExitError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Exec runs commands with os/exec.
type Exec struct {
	stdout io.Writer
	stderr io.Writer
	log    logr.Logger
}

// New creates an Exec runner. Nil writers default to os.Stdout and os.Stderr.
func New(stdout, stderr io.Writer, log logr.Logger) *Exec {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Exec{stdout: stdout, stderr: stderr, log: log.WithName("exec")}
}

// Run implements Runner.
func (r *Exec) Run(ctx context.Context, cmd Command) error {
	var errBuf bytes.Buffer
	c := r.command(ctx, cmd)
	c.Stdout = r.stdout
	c.Stderr = io.MultiWriter(&errBuf, r.stderr)

	return r.wait(cmd.String(), c, &errBuf)
}

// Output implements Runner.
func (r *Exec) Output(ctx context.Context, cmd Command) (string, error) {
	var outBuf, errBuf bytes.Buffer
	c := r.command(ctx, cmd)
	c.Stdout = &outBuf
	c.Stderr = io.MultiWriter(&errBuf, r.stderr)

	if err := r.wait(cmd.String(), c, &errBuf); err != nil {
		return "", err
	}
	return outBuf.String(), nil
}

// Pipe implements Runner.
func (r *Exec) Pipe(ctx context.Context, from, to Command) error {
	var srcErrBuf, dstErrBuf bytes.Buffer

	src := r.command(ctx, from)
	src.Stderr = io.MultiWriter(&srcErrBuf, r.stderr)
	pipe, err := src.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create pipe: %w", err)
	}

	dst := r.command(ctx, to)
	dst.Stdin = pipe
	dst.Stdout = r.stdout
	dst.Stderr = io.MultiWriter(&dstErrBuf, r.stderr)

	line := from.String() + " | " + to.String()
	r.log.V(1).Info("running", "command", line, "dir", from.Dir)

	if err := src.Start(); err != nil {
		return &ExitError{Command: from.String(), Err: err}
	}
	if err := dst.Start(); err != nil {
		_ = src.Process.Kill()
		_ = src.Wait()
		return &ExitError{Command: to.String(), Err: err}
	}
	// The consumer holds its own copy of the read end.
	_ = pipe.Close()

	srcErr := src.Wait()
	dstErr := dst.Wait()

	// Either side failing fails the pipe; the producer is reported first.
	if srcErr != nil {
		return &ExitError{Command: from.String(), Stderr: srcErrBuf.String(), Err: srcErr}
	}
	if dstErr != nil {
		return &ExitError{Command: to.String(), Stderr: dstErrBuf.String(), Err: dstErr}
	}
	return nil
}

func (r *Exec) command(ctx context.Context, cmd Command) *exec.Cmd {
	// #nosec G204 -- commands are assembled from validated configuration
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	return c
}

func (r *Exec) wait(line string, c *exec.Cmd, errBuf *bytes.Buffer) error {
	r.log.V(1).Info("running", "command", line, "dir", c.Dir)
	start := time.Now()

	if err := c.Run(); err != nil {
		return &ExitError{Command: line, Stderr: errBuf.String(), Err: err}
	}

	r.log.V(2).Info("finished", "command", line, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}
