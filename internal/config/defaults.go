package config

// Default values for a standard demo run.
const (
	DefaultHub        = "gcr.io/istio-testing"
	DefaultVersionURL = "https://storage.googleapis.com/istio-build/dev/latest"

	DefaultRepoName     = "istio"
	DefaultRepoCloneURL = "https://github.com/istio/istio.git"

	DefaultBootstrapScript = "prow/integ-suite-kind.sh"
	DefaultTopology        = "MULTICLUSTER"
	DefaultNetwork         = "network-1"

	DefaultGatewayAPICRDs   = "https://github.com/kubernetes-sigs/gateway-api/releases/download/v1.3.0/standard-install.yaml"
	DefaultExtensionCRDs    = "https://github.com/kubernetes-sigs/gateway-api-inference-extension/releases/download/v0.5.1/manifests.yaml"
	DefaultInferencePoolCRD = "https://raw.githubusercontent.com/kubernetes-sigs/gateway-api-inference-extension/main/config/crd/bases/inference.networking.k8s.io_inferencepools.yaml"
	DefaultLegacyCRD        = "inferencepools.inference.networking.x-k8s.io"

	DefaultPoolChart        = "oci://registry.k8s.io/gateway-api-inference-extension/charts/inferencepool"
	DefaultPoolChartVersion = "v1.0.0"
	DefaultPoolProvider     = "none"

	DefaultGatewayManifest = "https://raw.githubusercontent.com/kubernetes-sigs/gateway-api-inference-extension/main/config/manifests/gateway/istio/gateway.yaml"
	DefaultDestinationRule = "manifests/destination-rule.yaml"
	DefaultHTTPRoute       = "manifests/httproute.yaml"
	DefaultSimDeployment   = "manifests/sim-deployment.yaml"

	DefaultBodyRouterRelease      = "body-based-router"
	DefaultBodyRouterChart        = "oci://registry.k8s.io/gateway-api-inference-extension/charts/body-based-routing"
	DefaultBodyRouterChartVersion = "v1.0.0"
	DefaultBodyRouterProvider     = "istio"

	DefaultAPIServerPort = 6443
	DefaultKindNetwork   = "kind"

	DefaultGatewayName      = "inference-gateway"
	DefaultGatewayNamespace = "default"
	DefaultSmokePort        = 80
	DefaultSmokePath        = "/v1/completions"
	DefaultSmokeModel       = "meta-llama/Llama-3.1-8B-Instruct"
	DefaultSmokePrompt      = "Write as if you were a critic: San Francisco"
	DefaultSmokeMaxTokens   = 100
)

// DefaultClusters are the logical names of the two demo clusters.
func DefaultClusters() []string {
	return []string{"cluster1", "cluster2"}
}

// DefaultMeshCLI runs istioctl from source at the resolved build.
func DefaultMeshCLI() []string {
	return []string{"go", "run", "./istioctl/cmd/istioctl"}
}

// DefaultExpectedFiles must exist in a usable mesh checkout.
func DefaultExpectedFiles() []string {
	return []string{DefaultBootstrapScript, "istioctl/cmd/istioctl/main.go"}
}

// DefaultPools returns the two simulated model servers. The first is served
// from upstream, the second from a local manifest.
func DefaultPools() []Pool {
	return []Pool{
		{
			Name:     "vllm-llama3-8b-instruct",
			Manifest: "https://raw.githubusercontent.com/kubernetes-sigs/gateway-api-inference-extension/main/config/manifests/vllm/sim-deployment.yaml",
			Model:    DefaultSmokeModel,
		},
		{
			Name:     "vllm-deepseek-r1",
			Manifest: DefaultSimDeployment,
			Model:    "deepseek/vllm-deepseek-r1",
		},
	}
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every zero-valued field with its default.
func (c *Config) ApplyDefaults() {
	if len(c.Clusters) == 0 {
		c.Clusters = DefaultClusters()
	}
	if c.Hub == "" {
		c.Hub = DefaultHub
	}
	if c.VersionURL == "" {
		c.VersionURL = DefaultVersionURL
	}
	if len(c.MeshCLI) == 0 {
		c.MeshCLI = DefaultMeshCLI()
	}

	if c.Repo.Name == "" {
		c.Repo.Name = DefaultRepoName
	}
	if c.Repo.CloneURL == "" {
		c.Repo.CloneURL = DefaultRepoCloneURL
	}
	if len(c.Repo.ExpectedFiles) == 0 {
		c.Repo.ExpectedFiles = DefaultExpectedFiles()
	}

	if c.Bootstrap.Script == "" {
		c.Bootstrap.Script = DefaultBootstrapScript
	}
	if c.Bootstrap.Topology == "" {
		c.Bootstrap.Topology = DefaultTopology
	}
	if c.Bootstrap.Network == "" {
		c.Bootstrap.Network = DefaultNetwork
	}

	c.Inference.applyDefaults()

	if c.Helm.Backend == "" {
		c.Helm.Backend = HelmBackendCLI
	}

	if c.Link.APIServerPort == 0 {
		c.Link.APIServerPort = DefaultAPIServerPort
	}
	if c.Link.Network == "" {
		c.Link.Network = DefaultKindNetwork
	}

	c.Smoke.applyDefaults()
}

func (i *InferenceConfig) applyDefaults() {
	if i.GatewayAPICRDs == "" {
		i.GatewayAPICRDs = DefaultGatewayAPICRDs
	}
	if i.ExtensionCRDs == "" {
		i.ExtensionCRDs = DefaultExtensionCRDs
	}
	if i.InferencePoolCRD == "" {
		i.InferencePoolCRD = DefaultInferencePoolCRD
	}
	if i.LegacyCRD == "" {
		i.LegacyCRD = DefaultLegacyCRD
	}
	if len(i.Pools) == 0 {
		i.Pools = DefaultPools()
	}
	if i.PoolChart.Ref == "" {
		i.PoolChart.Ref = DefaultPoolChart
	}
	if i.PoolChart.Version == "" {
		i.PoolChart.Version = DefaultPoolChartVersion
	}
	if i.PoolProvider == "" {
		i.PoolProvider = DefaultPoolProvider
	}
	if i.Gateway == "" {
		i.Gateway = DefaultGatewayManifest
	}
	if i.DestinationRule == "" {
		i.DestinationRule = DefaultDestinationRule
	}
	if i.HTTPRoute == "" {
		i.HTTPRoute = DefaultHTTPRoute
	}
	if i.BodyRouter.Release == "" {
		i.BodyRouter.Release = DefaultBodyRouterRelease
	}
	if i.BodyRouter.Chart.Ref == "" {
		i.BodyRouter.Chart.Ref = DefaultBodyRouterChart
	}
	if i.BodyRouter.Chart.Version == "" {
		i.BodyRouter.Chart.Version = DefaultBodyRouterChartVersion
	}
	if i.BodyRouter.Provider == "" {
		i.BodyRouter.Provider = DefaultBodyRouterProvider
	}
}

func (s *SmokeConfig) applyDefaults() {
	if s.Gateway == "" {
		s.Gateway = DefaultGatewayName
	}
	if s.Namespace == "" {
		s.Namespace = DefaultGatewayNamespace
	}
	if s.Port == 0 {
		s.Port = DefaultSmokePort
	}
	if s.Path == "" {
		s.Path = DefaultSmokePath
	}
	if s.Request.Model == "" {
		s.Request.Model = DefaultSmokeModel
	}
	if s.Request.Prompt == "" {
		s.Request.Prompt = DefaultSmokePrompt
	}
	if s.Request.MaxTokens == 0 {
		s.Request.MaxTokens = DefaultSmokeMaxTokens
	}
}
