// Package prerequisites checks that the external CLIs a run delegates to are installed.
package prerequisites

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/imamik/infermesh/internal/config"
)

// ErrToolMissing is wrapped by CheckResults.Error when a required tool is absent.
var ErrToolMissing = errors.New("missing required tools")

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string

	// VersionArgs are passed to the tool to print its version.
	VersionArgs []string
}

// Known tools.
var (
	Kind = Tool{
		Name:        "kind",
		Required:    true,
		Description: "Creates the demo clusters during bootstrap",
		InstallURL:  "https://kind.sigs.k8s.io/docs/user/quick-start/#installation",
		VersionArgs: []string{"version"},
	}
	Docker = Tool{
		Name:        "docker",
		Required:    true,
		Description: "Runs the kind nodes",
		InstallURL:  "https://docs.docker.com/get-docker/",
		VersionArgs: []string{"--version"},
	}
	Kubectl = Tool{
		Name:        "kubectl",
		Required:    true,
		Description: "Applies manifests and remote secrets",
		InstallURL:  "https://kubernetes.io/docs/tasks/tools/",
		VersionArgs: []string{"version", "--client"},
	}
	Helm = Tool{
		Name:        "helm",
		Required:    true,
		Description: "Installs the inference pool and body-based router charts",
		InstallURL:  "https://helm.sh/docs/intro/install/",
		VersionArgs: []string{"version", "--short"},
	}
	Git = Tool{
		Name:        "git",
		Required:    false,
		Description: "Clones the mesh repository when no checkout is found",
		InstallURL:  "https://git-scm.com/downloads",
		VersionArgs: []string{"--version"},
	}
	Go = Tool{
		Name:        "go",
		Required:    true,
		Description: "Builds and runs the mesh CLI from source",
		InstallURL:  "https://go.dev/doc/install",
		VersionArgs: []string{"version"},
	}
)

// ToolsFor returns the tools a run with cfg needs. helm is only required for
// the CLI chart backend and the mesh CLI binary is whatever cfg.MeshCLI names.
func ToolsFor(cfg *config.Config) []Tool {
	tools := []Tool{Kind, Docker, Kubectl, Git}

	helm := Helm
	helm.Required = cfg.Helm.Backend == config.HelmBackendCLI
	tools = append(tools, helm)

	if len(cfg.MeshCLI) > 0 {
		switch cfg.MeshCLI[0] {
		case Go.Name:
			tools = append(tools, Go)
		default:
			tools = append(tools, Tool{
				Name:        cfg.MeshCLI[0],
				Required:    true,
				Description: "Mesh CLI",
				InstallURL:  "https://istio.io/latest/docs/setup/getting-started/#download",
			})
		}
	}
	return tools
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrToolMissing, strings.Join(missing, ", "))
}

// LookPath resolves a binary name. It is exec.LookPath outside of tests.
type LookPath func(file string) (string, error)

// Check verifies that the specified tools are available.
func Check(ctx context.Context, tools []Tool) *CheckResults {
	return CheckWith(ctx, exec.LookPath, tools)
}

// CheckWith is Check with an injectable path lookup. Versions are only
// queried for tools found by lookPath.
func CheckWith(ctx context.Context, lookPath LookPath, tools []Tool) *CheckResults {
	results := Find(lookPath, tools)
	for i := range results.Results {
		if r := &results.Results[i]; r.Found {
			r.Version = getToolVersion(ctx, r.Path, r.Tool.VersionArgs)
		}
	}
	return results
}

// Find resolves every tool with lookPath without running any of them.
func Find(lookPath LookPath, tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := lookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// Require returns ErrToolMissing if name cannot be found.
func Require(lookPath LookPath, tool Tool) error {
	if _, err := lookPath(tool.Name); err != nil {
		return fmt.Errorf("%w: %s (%s)", ErrToolMissing, tool.Name, tool.InstallURL)
	}
	return nil
}

// getToolVersion returns the first line of the tool's version output, or ""
// when it cannot be determined.
func getToolVersion(ctx context.Context, path string, args []string) string {
	if len(args) == 0 {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// #nosec G204 - path comes from LookPath on a trusted Tool definition
	output, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return ""
	}
	first, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(first)
}
