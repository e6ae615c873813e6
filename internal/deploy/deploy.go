package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/infermesh/internal/bootstrap"
	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/envresolve"
	"github.com/imamik/infermesh/internal/inference"
	"github.com/imamik/infermesh/internal/kubectl"
	"github.com/imamik/infermesh/internal/link"
	"github.com/imamik/infermesh/internal/mesh"
	"github.com/imamik/infermesh/internal/pipeline"
	"github.com/imamik/infermesh/internal/runner"
	"github.com/imamik/infermesh/internal/smoke"
	"github.com/imamik/infermesh/internal/util/netutil"
	"github.com/imamik/infermesh/internal/util/prerequisites"
)

// Options adjust a run without changing the configuration file.
type Options struct {
	// Tag overrides both the configured tag and the version source.
	Tag string

	// ParallelClusters installs the clusters concurrently.
	ParallelClusters bool

	// SkipBootstrap reuses existing clusters.
	SkipBootstrap bool

	SkipSmoke bool

	// GatewayWait is how long to poll for the gateway address and then for its
	// port to accept connections. Zero reads the address once and does not wait.
	GatewayWait time.Duration

	// StartDir is where the repository search begins. Empty means the
	// current directory.
	StartDir string
}

// Deployer runs the workflow for one configuration.
type Deployer struct {
	cfg      *config.Config
	opts     Options
	deps     Deps
	clusters []config.Cluster
	log      logr.Logger

	kubectl   *kubectl.Client
	inference *inference.Installer
	pipeline  *pipeline.Pipeline
	nodes     *lazyAPIServers

	// Resolved during the run.
	tag  string
	repo envresolve.Repo
}

// New creates a Deployer. cfg must already be validated.
func New(cfg *config.Config, opts Options, deps Deps) (*Deployer, error) {
	if err := deps.applyDefaults(cfg); err != nil {
		return nil, err
	}

	d := &Deployer{
		cfg:      cfg,
		opts:     opts,
		deps:     deps,
		clusters: cfg.ClusterContexts(),
		log:      deps.Log.WithName("deploy"),
		kubectl:  kubectl.New(deps.Runner),
		pipeline: pipeline.New(deps.Log, deps.Observer),
	}
	d.inference = inference.New(cfg.Inference, d.kubectl, deps.Charts)
	if deps.APIServers == nil {
		d.nodes = &lazyAPIServers{network: cfg.Link.Network}
		d.deps.APIServers = d.nodes
	}
	return d, nil
}

// Close releases connections opened during the run.
func (d *Deployer) Close() error {
	if d.nodes == nil {
		return nil
	}
	return d.nodes.Close()
}

// Results returns the step results of the last run.
func (d *Deployer) Results() []pipeline.Result {
	return d.pipeline.Results()
}

// Up runs every phase.
func (d *Deployer) Up(ctx context.Context) error {
	steps := []pipeline.Step{
		d.resolveTagStep(),
		d.resolveRepoStep(),
	}
	steps = append(steps, d.preflightStep())
	if !d.opts.SkipBootstrap {
		steps = append(steps, d.bootstrapStep())
	}

	perCluster := make([]pipeline.Step, 0, len(d.clusters))
	for _, cluster := range d.clusters {
		perCluster = append(perCluster, d.ClusterSteps(cluster))
	}
	if d.opts.ParallelClusters {
		steps = append(steps, pipeline.Parallel("clusters", perCluster...))
	} else {
		steps = append(steps, perCluster...)
	}

	steps = append(steps, d.linker().Steps(d.clusters)...)
	if !d.opts.SkipSmoke {
		steps = append(steps, d.smokeStep())
	}
	return d.pipeline.Run(ctx, steps...)
}

// Link resolves the repository and links the clusters in both directions.
func (d *Deployer) Link(ctx context.Context) error {
	steps := []pipeline.Step{d.resolveRepoStep()}
	steps = append(steps, d.linker().Steps(d.clusters)...)
	return d.pipeline.Run(ctx, steps...)
}

// Smoke sends the completion request only.
func (d *Deployer) Smoke(ctx context.Context) error {
	return d.pipeline.Run(ctx, d.smokeStep())
}

// ClusterSteps installs the mesh, the inference extension and the mesh
// configuration into one cluster, in that order.
func (d *Deployer) ClusterSteps(cluster config.Cluster) pipeline.Step {
	steps := []pipeline.Step{{
		Name: cluster.Name + "/mesh",
		Run: func(ctx context.Context) error {
			return d.mesh().Install(ctx, cluster, d.tag, d.cfg.Hub)
		},
	}}
	steps = append(steps, d.inference.ExtensionSteps(cluster)...)
	steps = append(steps, d.inference.ConfiguratorSteps(cluster)...)
	return pipeline.Sequence(cluster.Name, steps...)
}

func (d *Deployer) resolveTagStep() pipeline.Step {
	return pipeline.Step{
		Name: "resolve/tag",
		Run: func(ctx context.Context) error {
			override := d.opts.Tag
			if override == "" {
				override = d.cfg.Tag
			}
			tag, err := envresolve.ResolveTag(ctx, d.deps.HTTPClient, override, d.cfg.VersionURL)
			if err != nil {
				return err
			}
			d.tag = tag
			d.log.Info("resolved mesh build", "tag", tag)
			return nil
		},
	}
}

func (d *Deployer) resolveRepoStep() pipeline.Step {
	return pipeline.Step{
		Name: "resolve/repo",
		Run: func(ctx context.Context) error {
			repo, err := envresolve.Locate(ctx, envresolve.LocateOptions{
				Name:          d.cfg.Repo.Name,
				CloneURL:      d.cfg.Repo.CloneURL,
				StartDir:      d.opts.StartDir,
				ExpectedFiles: d.cfg.Repo.ExpectedFiles,
				Runner:        d.deps.Runner,
				LookPath:      d.deps.LookPath,
				Log:           d.log,
			})
			if err != nil {
				return err
			}
			d.repo = repo
			return nil
		},
	}
}

func (d *Deployer) preflightStep() pipeline.Step {
	return pipeline.Step{
		Name: "preflight",
		Run: func(context.Context) error {
			return prerequisites.Find(d.deps.LookPath, prerequisites.ToolsFor(d.cfg)).Error()
		},
	}
}

func (d *Deployer) bootstrapStep() pipeline.Step {
	return pipeline.Step{
		Name: "bootstrap",
		Run: func(ctx context.Context) error {
			return bootstrap.New(d.cfg, d.deps.Runner, d.deps.Log).Run(ctx, d.repo.Path)
		},
	}
}

func (d *Deployer) smokeStep() pipeline.Step {
	return pipeline.Step{
		Name: "smoke",
		Run:  d.runSmoke,
	}
}

func (d *Deployer) runSmoke(ctx context.Context) error {
	first := d.clusters[0]
	if err := d.deps.SwitchContext(first.Context); err != nil {
		return err
	}

	gw, err := d.deps.Gateways(first.Context)
	if err != nil {
		return err
	}
	addr, err := gw.WaitForAddress(ctx, d.cfg.Smoke.Namespace, d.cfg.Smoke.Gateway, d.opts.GatewayWait)
	if err != nil {
		return err
	}

	if d.opts.GatewayWait > 0 {
		if err := netutil.WaitForPort(ctx, addr, d.cfg.Smoke.Port, d.opts.GatewayWait); err != nil {
			return fmt.Errorf("gateway %s is not accepting connections: %w", addr, err)
		}
	}

	status, err := smoke.NewClient(d.deps.HTTPClient, d.deps.Out).Send(ctx, addr, d.cfg.Smoke)
	if err != nil {
		return err
	}
	d.log.Info("smoke request completed", "address", addr, "status", status)
	return nil
}

// mesh returns the mesh CLI bound to the resolved repository.
func (d *Deployer) mesh() *mesh.CLI {
	return mesh.New(d.cfg.MeshCLI, d.repo.Path, d.deps.Runner)
}

// RemoteSecretCommand implements link.SecretGenerator against the resolved repository.
func (d *Deployer) RemoteSecretCommand(remote config.Cluster, server string) runner.Command {
	return d.mesh().RemoteSecretCommand(remote, server)
}

func (d *Deployer) linker() *link.Linker {
	return link.New(d.deps.APIServers, d, d.kubectl, d.cfg.Link.APIServerPort, d.deps.Log)
}

// FailedStep returns the name of the step that stopped err's run, or "".
func FailedStep(err error) string {
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step
	}
	return ""
}

// PrintPlan writes the ordered step names of Up without running anything.
func (d *Deployer) PrintPlan(w io.Writer) {
	fmt.Fprintf(w, "clusters: %s, %s\n", d.clusters[0].Context, d.clusters[1].Context)
	fmt.Fprintf(w, "hub: %s\n", d.cfg.Hub)
	if tag := d.opts.Tag; tag != "" {
		fmt.Fprintf(w, "tag: %s\n", tag)
	} else if d.cfg.Tag != "" {
		fmt.Fprintf(w, "tag: %s\n", d.cfg.Tag)
	} else {
		fmt.Fprintf(w, "tag: latest from %s\n", d.cfg.VersionURL)
	}
	fmt.Fprintf(w, "bootstrap: %t, parallel clusters: %t, smoke: %t\n", !d.opts.SkipBootstrap, d.opts.ParallelClusters, !d.opts.SkipSmoke)
}
