package deploy

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/gateway"
	"github.com/imamik/infermesh/internal/helm"
	"github.com/imamik/infermesh/internal/kindnode"
	"github.com/imamik/infermesh/internal/kubecontext"
	"github.com/imamik/infermesh/internal/link"
	"github.com/imamik/infermesh/internal/pipeline"
	"github.com/imamik/infermesh/internal/runner"
	"github.com/imamik/infermesh/internal/util/prerequisites"
)

// AddressWaiter resolves the external address of a Gateway.
type AddressWaiter interface {
	WaitForAddress(ctx context.Context, namespace, name string, wait time.Duration) (string, error)
}

// Deps are the collaborators of a run. Zero fields get production defaults.
type Deps struct {
	Runner     runner.Runner
	HTTPClient *http.Client
	LookPath   prerequisites.LookPath

	// Charts overrides the installer selected by helm.backend.
	Charts helm.Installer

	// APIServers resolves control-plane addresses for linking. The default
	// talks to the local container runtime.
	APIServers link.APIServerResolver

	// Gateways opens an address resolver for a kube context.
	Gateways func(kubeContext string) (AddressWaiter, error)

	// SwitchContext makes a kube context the active one.
	SwitchContext func(kubeContext string) error

	Observer pipeline.Observer
	Out      io.Writer
	Log      logr.Logger
}

func (d *Deps) applyDefaults(cfg *config.Config) error {
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Runner == nil {
		d.Runner = runner.New(d.Out, os.Stderr, d.Log)
	}
	if d.LookPath == nil {
		d.LookPath = exec.LookPath
	}
	if d.Charts == nil {
		charts, err := helm.NewInstaller(cfg.Helm.Backend, d.Runner, d.Log)
		if err != nil {
			return err
		}
		d.Charts = charts
	}
	if d.Gateways == nil {
		log := d.Log
		d.Gateways = func(kubeContext string) (AddressWaiter, error) {
			return gateway.NewForContext(kubeContext, log)
		}
	}
	if d.SwitchContext == nil {
		d.SwitchContext = kubecontext.Use
	}
	return nil
}

// lazyAPIServers connects to the container runtime on first use so runs that
// never link do not need one.
type lazyAPIServers struct {
	network string

	once     sync.Once
	resolver *kindnode.Resolver
	err      error
}

func (l *lazyAPIServers) APIServer(ctx context.Context, clusterName string, port int) (string, error) {
	l.once.Do(func() {
		l.resolver, l.err = kindnode.NewResolver(l.network)
	})
	if l.err != nil {
		return "", l.err
	}
	return l.resolver.APIServer(ctx, clusterName, port)
}

func (l *lazyAPIServers) Close() error {
	if l.resolver == nil {
		return nil
	}
	return l.resolver.Close()
}
