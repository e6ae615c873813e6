// Package inference installs the Gateway API Inference Extension into one
// cluster and configures the mesh to route to it.
//
// Ordering matters. CRDs are applied before resources of their kinds, and the
// legacy InferencePool CRD is removed after the new one exists but before any
// pool chart is installed.
package inference

import (
	"context"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/helm"
	"github.com/imamik/infermesh/internal/pipeline"
)

// Manifests applies and deletes resources in one context.
type Manifests interface {
	Apply(ctx context.Context, kubeContext, source string) error
	Delete(ctx context.Context, kubeContext, kind, name string, ignoreNotFound bool) error
}

// Installer produces the per-cluster inference steps.
type Installer struct {
	cfg       config.InferenceConfig
	manifests Manifests
	charts    helm.Installer
}

// New creates an Installer.
func New(cfg config.InferenceConfig, manifests Manifests, charts helm.Installer) *Installer {
	return &Installer{cfg: cfg, manifests: manifests, charts: charts}
}

// PoolRelease is the inference pool and endpoint picker release for pool.
func PoolRelease(cfg config.InferenceConfig, pool config.Pool, cluster config.Cluster) helm.Release {
	return helm.Release{
		Name:        pool.Name,
		Chart:       cfg.PoolChart.Ref,
		Version:     cfg.PoolChart.Version,
		KubeContext: cluster.Context,
		Set: []string{
			"inferencePool.modelServers.matchLabels.app=" + pool.Name,
			"provider.name=" + cfg.PoolProvider,
		},
	}
}

// BodyRouterRelease is the body-based router release.
func BodyRouterRelease(cfg config.InferenceConfig, cluster config.Cluster) helm.Release {
	return helm.Release{
		Name:        cfg.BodyRouter.Release,
		Chart:       cfg.BodyRouter.Chart.Ref,
		Version:     cfg.BodyRouter.Chart.Version,
		KubeContext: cluster.Context,
		Set:         []string{"provider.name=" + cfg.BodyRouter.Provider},
	}
}

// ExtensionSteps installs the CRDs, the simulated model servers and one
// inference pool per model server.
func (i *Installer) ExtensionSteps(cluster config.Cluster) []pipeline.Step {
	steps := []pipeline.Step{
		i.apply(cluster, "gateway-api-crds", i.cfg.GatewayAPICRDs),
		i.apply(cluster, "inference-extension-crds", i.cfg.ExtensionCRDs),
	}
	for _, pool := range i.cfg.Pools {
		steps = append(steps, i.apply(cluster, "model-server/"+pool.Name, pool.Manifest))
	}
	steps = append(steps,
		i.apply(cluster, "inferencepool-crd", i.cfg.InferencePoolCRD),
		pipeline.Step{
			Name: stepName(cluster, "delete-legacy-crd"),
			Run: func(ctx context.Context) error {
				return i.manifests.Delete(ctx, cluster.Context, "crd", i.cfg.LegacyCRD, true)
			},
		},
	)
	for _, pool := range i.cfg.Pools {
		steps = append(steps, i.install(cluster, "inferencepool/"+pool.Name, PoolRelease(i.cfg, pool, cluster)))
	}
	return steps
}

// ConfiguratorSteps wires the mesh to the extension: gateway, destination
// rule, body-based router and the HTTPRoute.
func (i *Installer) ConfiguratorSteps(cluster config.Cluster) []pipeline.Step {
	return []pipeline.Step{
		i.apply(cluster, "gateway", i.cfg.Gateway),
		i.apply(cluster, "destination-rule", i.cfg.DestinationRule),
		i.install(cluster, "body-based-router", BodyRouterRelease(i.cfg, cluster)),
		i.apply(cluster, "httproute", i.cfg.HTTPRoute),
	}
}

func (i *Installer) apply(cluster config.Cluster, name, source string) pipeline.Step {
	return pipeline.Step{
		Name: stepName(cluster, name),
		Run: func(ctx context.Context) error {
			return i.manifests.Apply(ctx, cluster.Context, source)
		},
	}
}

func (i *Installer) install(cluster config.Cluster, name string, rel helm.Release) pipeline.Step {
	return pipeline.Step{
		Name: stepName(cluster, name),
		Run: func(ctx context.Context) error {
			return i.charts.Install(ctx, rel)
		},
	}
}

func stepName(cluster config.Cluster, name string) string {
	return cluster.Name + "/" + name
}
