// Package mesh builds the mesh CLI invocations: control-plane install and
// remote secret generation. The CLI always runs from the repository root.
package mesh

import (
	"context"
	"fmt"
	"slices"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/runner"
)

// InferenceExtensionFlag enables the gateway inference extension in the control plane.
const InferenceExtensionFlag = "values.pilot.env.ENABLE_GATEWAY_API_INFERENCE_EXTENSION=true"

// CLI invokes the mesh command line tool.
type CLI struct {
	argv   []string
	repo   string
	runner runner.Runner
}

// New creates a CLI. argv is the command prefix, e.g. "go run ./istioctl/cmd/istioctl".
func New(argv []string, repo string, r runner.Runner) *CLI {
	return &CLI{argv: slices.Clone(argv), repo: repo, runner: r}
}

func (c *CLI) command(args ...string) runner.Command {
	all := make([]string, 0, len(c.argv)-1+len(args))
	all = append(all, c.argv[1:]...)
	all = append(all, args...)
	return runner.Cmd(c.argv[0], all...).In(c.repo)
}

// InstallCommand renders the control-plane install for one cluster. The
// mesh cluster name is the context with the kind prefix removed.
func (c *CLI) InstallCommand(cluster config.Cluster, tag, hub string) runner.Command {
	return c.command(
		"install", "-y",
		"--context", cluster.Context,
		"--set", "tag="+tag,
		"--set", "hub="+hub,
		"--set", InferenceExtensionFlag,
		"--set", "values.global.multiCluster.clusterName="+config.ClusterNameFromContext(cluster.Context),
	)
}

// RemoteSecretCommand renders the secret generation for remote. The secret
// grants access to remote's API server at server.
func (c *CLI) RemoteSecretCommand(remote config.Cluster, server string) runner.Command {
	return c.command(
		"create-remote-secret",
		"--context", remote.Context,
		"--name", remote.Name,
		"--server", server,
	)
}

// Install installs the control plane into cluster.
func (c *CLI) Install(ctx context.Context, cluster config.Cluster, tag, hub string) error {
	if err := c.runner.Run(ctx, c.InstallCommand(cluster, tag, hub)); err != nil {
		return fmt.Errorf("mesh install into %s failed: %w", cluster.Context, err)
	}
	return nil
}
