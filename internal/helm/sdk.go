package helm

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/registry"
	"helm.sh/helm/v3/pkg/strvals"
)

// SDKInstaller installs charts in-process with the helm v3 SDK.
type SDKInstaller struct {
	settings *cli.EnvSettings
	log      logr.Logger
}

// NewSDKInstaller creates an SDKInstaller using the standard helm settings
// (HELM_* environment, registry credentials, cache).
func NewSDKInstaller(log logr.Logger) *SDKInstaller {
	return &SDKInstaller{
		settings: cli.New(),
		log:      log.WithName("helm"),
	}
}

// Install implements Installer.
func (i *SDKInstaller) Install(ctx context.Context, rel Release) error {
	values, err := parseValues(rel.Set)
	if err != nil {
		return err
	}

	namespace := rel.Namespace
	if namespace == "" {
		namespace = i.settings.Namespace()
	}

	actionConfig := new(action.Configuration)
	getter := newContextRESTClientGetter(rel.KubeContext, namespace)
	debug := func(format string, v ...interface{}) {
		i.log.V(1).Info(fmt.Sprintf(format, v...), "release", rel.Name)
	}
	if err := actionConfig.Init(getter, namespace, os.Getenv("HELM_DRIVER"), debug); err != nil {
		return fmt.Errorf("failed to init helm action config for %s: %w", rel.KubeContext, err)
	}

	registryClient, err := registry.NewClient(
		registry.ClientOptDebug(false),
		registry.ClientOptWriter(io.Discard),
		registry.ClientOptCredentialsFile(i.settings.RegistryConfig),
	)
	if err != nil {
		return fmt.Errorf("failed to create registry client: %w", err)
	}
	actionConfig.RegistryClient = registryClient

	install := newInstall(actionConfig, rel, namespace)
	install.SetRegistryClient(registryClient)

	chartPath, err := install.LocateChart(rel.Chart, i.settings)
	if err != nil {
		return fmt.Errorf("failed to locate chart %s: %w", rel.Chart, err)
	}

	chart, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("failed to load chart %s: %w", rel.Chart, err)
	}

	i.log.Info("installing chart", "release", rel.Name, "chart", rel.Chart, "version", rel.Version, "context", rel.KubeContext)
	if _, err := install.RunWithContext(ctx, chart, values); err != nil {
		return fmt.Errorf("helm install %s into %s failed: %w", rel.Name, rel.KubeContext, err)
	}
	return nil
}

// newInstall configures the install action like a plain `helm install`: it
// returns once the release is recorded and does not wait for readiness.
func newInstall(cfg *action.Configuration, rel Release, namespace string) *action.Install {
	install := action.NewInstall(cfg)
	install.ReleaseName = rel.Name
	install.Namespace = namespace
	install.Version = rel.Version
	install.Wait = false
	install.WaitForJobs = false
	return install
}

// parseValues merges --set style overrides into a values map.
func parseValues(set []string) (map[string]interface{}, error) {
	values := map[string]interface{}{}
	for _, kv := range set {
		if err := strvals.ParseInto(kv, values); err != nil {
			return nil, fmt.Errorf("failed to parse value %q: %w", kv, err)
		}
	}
	return values, nil
}
