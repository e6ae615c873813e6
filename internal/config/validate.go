package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Validate checks that every value a step needs is set and consistent.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Clusters) != 2 {
		errs = append(errs, fmt.Errorf("clusters must name exactly 2 clusters, got %d", len(c.Clusters)))
	}
	seen := make(map[string]bool, len(c.Clusters))
	for _, name := range c.Clusters {
		if !isValidDNSName(name) {
			errs = append(errs, fmt.Errorf("cluster name %q must be DNS-safe (lowercase alphanumeric and hyphens, must start with letter)", name))
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("cluster name %q is duplicated", name))
		}
		seen[name] = true
	}

	if c.Hub == "" {
		errs = append(errs, errors.New("hub is required"))
	}
	if c.Tag == "" && c.VersionURL == "" {
		errs = append(errs, errors.New("either tag or versionURL is required"))
	}
	if len(c.MeshCLI) == 0 || c.MeshCLI[0] == "" {
		errs = append(errs, errors.New("meshCLI is required"))
	}
	if c.Repo.Name == "" {
		errs = append(errs, errors.New("repo.name is required"))
	}
	if c.Bootstrap.Script == "" {
		errs = append(errs, errors.New("bootstrap.script is required"))
	}

	errs = append(errs, c.Inference.validate()...)

	if !c.Helm.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("helm.backend must be one of: %s, %s", HelmBackendCLI, HelmBackendSDK))
	}
	if !isValidPort(c.Link.APIServerPort) {
		errs = append(errs, fmt.Errorf("link.apiServerPort %d is out of range", c.Link.APIServerPort))
	}
	if !isValidPort(c.Smoke.Port) {
		errs = append(errs, fmt.Errorf("smoke.port %d is out of range", c.Smoke.Port))
	}
	if c.Smoke.Gateway == "" || c.Smoke.Namespace == "" {
		errs = append(errs, errors.New("smoke.gateway and smoke.namespace are required"))
	}

	return errors.Join(errs...)
}

func (i *InferenceConfig) validate() []error {
	var errs []error

	required := map[string]string{
		"inference.gatewayAPICRDs":   i.GatewayAPICRDs,
		"inference.extensionCRDs":    i.ExtensionCRDs,
		"inference.inferencePoolCRD": i.InferencePoolCRD,
		"inference.legacyCRD":        i.LegacyCRD,
		"inference.poolChart.ref":    i.PoolChart.Ref,
		"inference.poolProvider":     i.PoolProvider,
		"inference.gateway":          i.Gateway,
		"inference.destinationRule":  i.DestinationRule,
		"inference.httpRoute":        i.HTTPRoute,
		"inference.bodyRouter.chart": i.BodyRouter.Chart.Ref,
	}
	for _, key := range slices.Sorted(maps.Keys(required)) {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if len(i.Pools) == 0 {
		errs = append(errs, errors.New("inference.pools must not be empty"))
	}
	seen := make(map[string]bool, len(i.Pools))
	for idx, pool := range i.Pools {
		if !isValidDNSName(pool.Name) {
			errs = append(errs, fmt.Errorf("inference.pools[%d].name %q must be DNS-safe", idx, pool.Name))
		}
		if pool.Manifest == "" {
			errs = append(errs, fmt.Errorf("inference.pools[%d].manifest is required", idx))
		}
		if seen[pool.Name] {
			errs = append(errs, fmt.Errorf("inference pool %q is duplicated", pool.Name))
		}
		seen[pool.Name] = true
	}

	return errs
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}

// isValidDNSName checks RFC 1123 label rules with a leading letter.
func isValidDNSName(name string) bool {
	if len(name) == 0 || len(name) > 63 {
		return false
	}
	if name[0] < 'a' || name[0] > 'z' {
		return false
	}
	last := name[len(name)-1]
	if (last < 'a' || last > 'z') && (last < '0' || last > '9') {
		return false
	}
	for _, ch := range name {
		if (ch < 'a' || ch > 'z') && (ch < '0' || ch > '9') && ch != '-' {
			return false
		}
	}
	return true
}
