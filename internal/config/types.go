package config

// Config is the full description of one demo run.
type Config struct {
	// Clusters holds the two logical cluster names. Kube contexts are derived
	// from them with ContextName.
	Clusters []string `yaml:"clusters"`

	// Hub is the image registry the mesh control plane is pulled from.
	Hub string `yaml:"hub"`

	// Tag pins the mesh build. When empty it is fetched from VersionURL.
	Tag string `yaml:"tag,omitempty"`

	// VersionURL returns the latest dev build tag as plain text.
	VersionURL string `yaml:"versionURL"`

	// MeshCLI is the command used to invoke the mesh CLI, run from the
	// repository root.
	MeshCLI []string `yaml:"meshCLI"`

	Repo      RepoConfig      `yaml:"repo"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Inference InferenceConfig `yaml:"inference"`
	Helm      HelmConfig      `yaml:"helm"`
	Link      LinkConfig      `yaml:"link"`
	Smoke     SmokeConfig     `yaml:"smoke"`
}

// RepoConfig locates the mesh source tree.
type RepoConfig struct {
	// Name is the directory name searched for in the current, child and sibling directories.
	Name string `yaml:"name"`

	// CloneURL is used when no local checkout is found.
	CloneURL string `yaml:"cloneURL"`

	// ExpectedFiles are repository-relative paths that must exist after resolution.
	ExpectedFiles []string `yaml:"expectedFiles"`
}

// BootstrapConfig drives the integration-suite call that creates the kind clusters.
type BootstrapConfig struct {
	// Script is the repository-relative entry point of the integration suite.
	Script string `yaml:"script"`

	// Topology is the value passed to --topology.
	Topology string `yaml:"topology"`

	// TopologyConfig is a path to an existing topology descriptor. When empty a
	// descriptor is generated for Clusters.
	TopologyConfig string `yaml:"topologyConfig,omitempty"`

	// Network is the mesh network name used in a generated descriptor.
	Network string `yaml:"network"`

	// ExtraArgs are appended verbatim to the bootstrap call.
	ExtraArgs []string `yaml:"extraArgs,omitempty"`
}

// InferenceConfig lists every manifest and chart installed per cluster.
// Entries starting with http:// or https:// are fetched by kubectl; anything
// else is a path relative to the invocation directory.
type InferenceConfig struct {
	GatewayAPICRDs   string `yaml:"gatewayAPICRDs"`
	ExtensionCRDs    string `yaml:"extensionCRDs"`
	InferencePoolCRD string `yaml:"inferencePoolCRD"`

	// LegacyCRD is the CRD removed after the new inference pool CRD is in place.
	LegacyCRD string `yaml:"legacyCRD"`

	// Pools are the simulated model servers, each fronted by an inference pool
	// and endpoint picker installed from PoolChart.
	Pools []Pool `yaml:"pools"`

	PoolChart ChartRef `yaml:"poolChart"`

	// PoolProvider is passed as provider.name to every pool chart.
	PoolProvider string `yaml:"poolProvider"`

	Gateway         string `yaml:"gateway"`
	DestinationRule string `yaml:"destinationRule"`
	HTTPRoute       string `yaml:"httpRoute"`

	BodyRouter BodyRouterConfig `yaml:"bodyRouter"`
}

// Pool is one simulated model server deployment and its inference pool release.
type Pool struct {
	// Name is both the chart release name and the model server app label.
	Name string `yaml:"name"`

	// Manifest is the simulated deployment, a URL or local path.
	Manifest string `yaml:"manifest"`

	// Model is the model name the server reports. The generated HTTPRoute
	// matches it against the header set by the body-based router.
	Model string `yaml:"model,omitempty"`
}

// ChartRef is an OCI chart reference pinned to a version.
type ChartRef struct {
	Ref     string `yaml:"ref"`
	Version string `yaml:"version"`
}

// BodyRouterConfig configures the body-based router release.
type BodyRouterConfig struct {
	Release  string   `yaml:"release"`
	Chart    ChartRef `yaml:"chart"`
	Provider string   `yaml:"provider"`
}

// HelmBackend selects how charts are installed.
type HelmBackend string

const (
	// HelmBackendCLI shells out to the helm binary.
	HelmBackendCLI HelmBackend = "cli"
	// HelmBackendSDK uses the helm Go SDK in-process.
	HelmBackendSDK HelmBackend = "sdk"
)

// IsValid returns true if the backend is known.
func (b HelmBackend) IsValid() bool {
	switch b {
	case HelmBackendCLI, HelmBackendSDK:
		return true
	default:
		return false
	}
}

// HelmConfig configures chart installation.
type HelmConfig struct {
	Backend HelmBackend `yaml:"backend"`
}

// LinkConfig configures cross-cluster secret generation.
type LinkConfig struct {
	// APIServerPort is the port of the control-plane API server inside the kind network.
	APIServerPort int `yaml:"apiServerPort"`

	// Network is the container network the control-plane address is read from.
	Network string `yaml:"network"`
}

// SmokeConfig configures the final inference request.
type SmokeConfig struct {
	Gateway   string       `yaml:"gateway"`
	Namespace string       `yaml:"namespace"`
	Port      int          `yaml:"port"`
	Path      string       `yaml:"path"`
	Request   SmokeRequest `yaml:"request"`
}

// SmokeRequest is the JSON body of the completion request.
type SmokeRequest struct {
	Model       string  `yaml:"model" json:"model"`
	Prompt      string  `yaml:"prompt" json:"prompt"`
	MaxTokens   int     `yaml:"maxTokens" json:"max_tokens"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}
