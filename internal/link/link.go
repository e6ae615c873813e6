// Package link exchanges remote secrets between clusters so each control
// plane can discover the other's endpoints.
package link

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/pipeline"
	"github.com/imamik/infermesh/internal/runner"
)

// APIServerResolver returns the API server URL of a cluster as seen from
// inside the container network.
type APIServerResolver interface {
	APIServer(ctx context.Context, clusterName string, port int) (string, error)
}

// SecretGenerator renders the command that prints a remote secret for remote.
type SecretGenerator interface {
	RemoteSecretCommand(remote config.Cluster, server string) runner.Command
}

// SecretApplier pipes a producer's stdout into an apply against a context.
type SecretApplier interface {
	ApplyFrom(ctx context.Context, producer runner.Command, kubeContext string) error
}

// Linker links clusters pairwise.
type Linker struct {
	resolver  APIServerResolver
	generator SecretGenerator
	applier   SecretApplier
	port      int
	log       logr.Logger
}

// New creates a Linker. port is the API server port inside the container network.
func New(resolver APIServerResolver, generator SecretGenerator, applier SecretApplier, port int, log logr.Logger) *Linker {
	return &Linker{
		resolver:  resolver,
		generator: generator,
		applier:   applier,
		port:      port,
		log:       log.WithName("link"),
	}
}

// Link installs into local a secret granting access to remote. The secret is
// generated against remote's context and applied only to local's.
func (l *Linker) Link(ctx context.Context, local, remote config.Cluster) error {
	server, err := l.resolver.APIServer(ctx, remote.Name, l.port)
	if err != nil {
		return fmt.Errorf("failed to resolve API server of %s: %w", remote.Name, err)
	}

	l.log.Info("linking clusters", "local", local.Context, "remote", remote.Context, "server", server)
	if err := l.applier.ApplyFrom(ctx, l.generator.RemoteSecretCommand(remote, server), local.Context); err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", local.Name, remote.Name, err)
	}
	return nil
}

// Pairs returns every ordered (local, remote) pair of distinct clusters.
func Pairs(clusters []config.Cluster) [][2]config.Cluster {
	var pairs [][2]config.Cluster
	for _, local := range clusters {
		for _, remote := range clusters {
			if local.Context != remote.Context {
				pairs = append(pairs, [2]config.Cluster{local, remote})
			}
		}
	}
	return pairs
}

// Steps returns one pipeline step per direction.
func (l *Linker) Steps(clusters []config.Cluster) []pipeline.Step {
	pairs := Pairs(clusters)
	steps := make([]pipeline.Step, 0, len(pairs))
	for _, pair := range pairs {
		local, remote := pair[0], pair[1]
		steps = append(steps, pipeline.Step{
			Name: fmt.Sprintf("link/%s<-%s", local.Name, remote.Name),
			Run: func(ctx context.Context) error {
				return l.Link(ctx, local, remote)
			},
		})
	}
	return steps
}

// LinkAll links every direction in order and stops at the first failure.
func (l *Linker) LinkAll(ctx context.Context, clusters []config.Cluster) error {
	for _, pair := range Pairs(clusters) {
		if err := l.Link(ctx, pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}
