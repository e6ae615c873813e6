//go:build kind

// Package kind provides integration tests against two local kind clusters.
// They cover the steps that need real clusters but not the mesh sources:
// node address resolution, context switching, manifest apply and secret
// linking through a pipe.
package kind

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/imamik/infermesh/internal/config"
)

// Clusters are the logical names of the test clusters.
var Clusters = []string{"infermesh-e2e-a", "infermesh-e2e-b"}

// Framework manages the kind cluster lifecycle for tests.
type Framework struct {
	mu             sync.RWMutex
	kubeconfigPath string
	created        []string
}

// NewFramework creates a test framework instance.
func NewFramework() *Framework {
	return &Framework{}
}

// Setup points KUBECONFIG at a private file and creates the clusters, reusing
// any that already exist.
func (f *Framework) Setup() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkPrerequisites(); err != nil {
		return err
	}

	if path := os.Getenv("INFERMESH_KIND_KUBECONFIG"); path != "" {
		f.kubeconfigPath = path
	} else {
		file, err := os.CreateTemp("", "infermesh-kind-kubeconfig-*.yaml")
		if err != nil {
			return err
		}
		_ = file.Close()
		f.kubeconfigPath = file.Name()
	}
	if err := os.Setenv("KUBECONFIG", f.kubeconfigPath); err != nil {
		return err
	}

	existing := f.existingClusters()
	for _, name := range Clusters {
		if existing[name] {
			fmt.Printf("Using existing kind cluster: %s\n", name)
			if err := f.exportKubeconfig(name); err != nil {
				return err
			}
			continue
		}
		fmt.Printf("Creating kind cluster: %s\n", name)
		if err := f.createCluster(name); err != nil {
			return fmt.Errorf("create cluster %s: %w", name, err)
		}
		f.created = append(f.created, name)
	}
	return nil
}

// Teardown deletes the clusters created by Setup unless KEEP_KIND_CLUSTER is set.
func (f *Framework) Teardown() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if os.Getenv("KEEP_KIND_CLUSTER") != "" {
		fmt.Printf("\nClusters preserved: %s\n", strings.Join(Clusters, ", "))
		fmt.Printf("  Kubeconfig: %s\n", f.kubeconfigPath)
		return
	}

	for _, name := range f.created {
		fmt.Printf("Deleting kind cluster: %s\n", name)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		_ = exec.CommandContext(ctx, "kind", "delete", "cluster", "--name", name).Run()
		cancel()
	}
	if os.Getenv("INFERMESH_KIND_KUBECONFIG") == "" {
		_ = os.Remove(f.kubeconfigPath)
	}
}

// ClusterContexts returns the test clusters with their kube contexts.
func (f *Framework) ClusterContexts() []config.Cluster {
	out := make([]config.Cluster, 0, len(Clusters))
	for _, name := range Clusters {
		out = append(out, config.NewCluster(name))
	}
	return out
}

func (f *Framework) checkPrerequisites() error {
	if _, err := exec.LookPath("kind"); err != nil {
		return fmt.Errorf("kind not found: install with 'go install sigs.k8s.io/kind@latest'")
	}
	if _, err := exec.LookPath("kubectl"); err != nil {
		return fmt.Errorf("kubectl not found")
	}
	if err := exec.Command("docker", "info").Run(); err != nil {
		return fmt.Errorf("docker not running")
	}
	return nil
}

func (f *Framework) existingClusters() map[string]bool {
	out := map[string]bool{}
	output, err := exec.Command("kind", "get", "clusters").Output()
	if err != nil {
		return out
	}
	for _, line := range strings.Split(string(output), "\n") {
		out[strings.TrimSpace(line)] = true
	}
	return out
}

func (f *Framework) createCluster(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// #nosec G204 -- test code with controlled command arguments
	cmd := exec.CommandContext(ctx, "kind", "create", "cluster",
		"--name", name,
		"--wait", "120s",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (f *Framework) exportKubeconfig(name string) error {
	// #nosec G204 -- test code with controlled command arguments
	if err := exec.Command("kind", "export", "kubeconfig", "--name", name).Run(); err != nil {
		return fmt.Errorf("export kubeconfig for %s: %w", name, err)
	}
	return nil
}
