package helm

import (
	"context"
	"fmt"

	"github.com/imamik/infermesh/internal/runner"
)

// Binary is the helm executable name.
const Binary = "helm"

// CLIInstaller installs charts with the helm binary.
type CLIInstaller struct {
	runner runner.Runner
}

// NewCLIInstaller creates a CLIInstaller.
func NewCLIInstaller(r runner.Runner) *CLIInstaller {
	return &CLIInstaller{runner: r}
}

// InstallCommand renders the helm install call for rel.
func InstallCommand(rel Release) runner.Command {
	args := []string{"install", rel.Name, rel.Chart, "--kube-context", rel.KubeContext}
	if rel.Namespace != "" {
		args = append(args, "--namespace", rel.Namespace)
	}
	if rel.Version != "" {
		args = append(args, "--version", rel.Version)
	}
	for _, kv := range rel.Set {
		args = append(args, "--set", kv)
	}
	return runner.Cmd(Binary, args...)
}

// Install implements Installer.
func (i *CLIInstaller) Install(ctx context.Context, rel Release) error {
	if err := i.runner.Run(ctx, InstallCommand(rel)); err != nil {
		return fmt.Errorf("helm install %s into %s failed: %w", rel.Name, rel.KubeContext, err)
	}
	return nil
}
