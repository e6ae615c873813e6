package helm

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/runner"
)

// Release is one chart installation.
type Release struct {
	Name        string
	Chart       string
	Version     string
	KubeContext string

	// Namespace is optional; empty installs into the context's namespace.
	Namespace string

	// Set holds key=value overrides in helm --set syntax.
	Set []string
}

// Installer installs a Release.
type Installer interface {
	Install(ctx context.Context, rel Release) error
}

// NewInstaller returns the installer for backend.
func NewInstaller(backend config.HelmBackend, r runner.Runner, log logr.Logger) (Installer, error) {
	switch backend {
	case config.HelmBackendCLI:
		return NewCLIInstaller(r), nil
	case config.HelmBackendSDK:
		return NewSDKInstaller(log), nil
	default:
		return nil, fmt.Errorf("unknown helm backend %q", backend)
	}
}
