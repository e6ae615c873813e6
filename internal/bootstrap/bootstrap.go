// Package bootstrap provisions the demo clusters through the mesh project's
// integration suite.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/runner"
	"github.com/imamik/infermesh/internal/workdir"
)

// Bootstrapper runs the integration suite entry point once.
type Bootstrapper struct {
	cfg    *config.Config
	runner runner.Runner
	log    logr.Logger
}

// New creates a Bootstrapper.
func New(cfg *config.Config, r runner.Runner, log logr.Logger) *Bootstrapper {
	return &Bootstrapper{cfg: cfg, runner: r, log: log.WithName("bootstrap")}
}

// Command returns the bootstrap invocation for a repository and descriptor path.
func (b *Bootstrapper) Command(repo, topologyFile string) runner.Command {
	return b.command(repo, filepath.Join(repo, b.cfg.Bootstrap.Script), topologyFile)
}

func (b *Bootstrapper) command(repo, script, topologyFile string) runner.Command {
	bs := b.cfg.Bootstrap
	args := []string{
		"--topology", bs.Topology,
		"--topology-config", topologyFile,
		"--skip-cleanup",
	}
	args = append(args, bs.ExtraArgs...)
	return runner.Cmd(script, args...).In(repo)
}

// Run creates the clusters. A configured descriptor is resolved against the
// invocation directory; the script is then looked up inside repo and must
// exist before anything is started.
func (b *Bootstrapper) Run(ctx context.Context, repo string) error {
	topologyFile, cleanup, err := b.topologyFile()
	if err != nil {
		return err
	}
	defer cleanup()

	b.log.Info("provisioning clusters", "clusters", b.cfg.Clusters, "topology", topologyFile)
	return workdir.Within(repo, func(scope *workdir.Scope) error {
		script, err := scope.Resolve(b.cfg.Bootstrap.Script)
		if err != nil {
			return fmt.Errorf("bootstrap script: %w", err)
		}
		if err := b.runner.Run(ctx, b.command(scope.Dir(), script, topologyFile)); err != nil {
			return fmt.Errorf("cluster bootstrap failed: %w", err)
		}
		return nil
	})
}

func (b *Bootstrapper) topologyFile() (string, func(), error) {
	if path := b.cfg.Bootstrap.TopologyConfig; path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", nil, fmt.Errorf("failed to resolve topology config %s: %w", path, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", nil, fmt.Errorf("topology config: %w", err)
		}
		return abs, func() {}, nil
	}

	path, err := writeTopology(Topology(b.cfg.Clusters, b.cfg.Bootstrap.Network))
	if err != nil {
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}
