// Package kubectl builds and runs the manifest operations of a run. Every
// call targets exactly one kube context.
package kubectl

import (
	"context"
	"fmt"

	"github.com/imamik/infermesh/internal/runner"
)

// Binary is the kubectl executable name.
const Binary = "kubectl"

// Client applies and deletes resources through kubectl.
type Client struct {
	runner runner.Runner
}

// New creates a Client.
func New(r runner.Runner) *Client {
	return &Client{runner: r}
}

// ApplyCommand applies a local file or a remote URL.
func ApplyCommand(kubeContext, source string) runner.Command {
	return runner.Cmd(Binary, "apply", "-f", source, "--context", kubeContext)
}

// ApplyStdinCommand applies whatever is written to its stdin.
func ApplyStdinCommand(kubeContext string) runner.Command {
	return ApplyCommand(kubeContext, "-")
}

// DeleteCommand deletes one named resource. With ignoreNotFound a missing
// resource is not an error.
func DeleteCommand(kubeContext, kind, name string, ignoreNotFound bool) runner.Command {
	args := []string{"delete", kind, name}
	if ignoreNotFound {
		args = append(args, "--ignore-not-found")
	}
	args = append(args, "--context", kubeContext)
	return runner.Cmd(Binary, args...)
}

// Apply applies source to kubeContext.
func (c *Client) Apply(ctx context.Context, kubeContext, source string) error {
	if err := c.runner.Run(ctx, ApplyCommand(kubeContext, source)); err != nil {
		return fmt.Errorf("failed to apply %s to %s: %w", source, kubeContext, err)
	}
	return nil
}

// Delete removes one named resource from kubeContext.
func (c *Client) Delete(ctx context.Context, kubeContext, kind, name string, ignoreNotFound bool) error {
	if err := c.runner.Run(ctx, DeleteCommand(kubeContext, kind, name, ignoreNotFound)); err != nil {
		return fmt.Errorf("failed to delete %s %s from %s: %w", kind, name, kubeContext, err)
	}
	return nil
}

// ApplyFrom pipes the stdout of producer into an apply against kubeContext.
// The produced manifest is never written to disk.
func (c *Client) ApplyFrom(ctx context.Context, producer runner.Command, kubeContext string) error {
	if err := c.runner.Pipe(ctx, producer, ApplyStdinCommand(kubeContext)); err != nil {
		return fmt.Errorf("failed to apply output of %s to %s: %w", producer.Name, kubeContext, err)
	}
	return nil
}
