// Package kindnode resolves the in-network API server address of a kind
// cluster: the control-plane node comes from kind's node listing and its IP
// from docker container inspection.
package kindnode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"sigs.k8s.io/kind/pkg/cluster"
)

var (
	// ErrNoControlPlane is returned when a cluster has no control-plane node.
	ErrNoControlPlane = errors.New("no control-plane node found")
	// ErrNoIPAddress is returned when a container has no address on any network.
	ErrNoIPAddress = errors.New("container has no IP address")
)

const controlPlaneSuffix = "-control-plane"

// NodeLister lists the node container names of a kind cluster.
type NodeLister interface {
	ListNodeNames(clusterName string) ([]string, error)
}

// ContainerInspector is the subset of the docker API used here.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// kindLister adapts the kind provider to NodeLister.
type kindLister struct {
	provider *cluster.Provider
}

func (k kindLister) ListNodeNames(clusterName string) ([]string, error) {
	nodes, err := k.provider.ListNodes(clusterName)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.String())
	}
	return names, nil
}

// Resolver finds control-plane addresses.
type Resolver struct {
	nodes   NodeLister
	docker  ContainerInspector
	network string
	closer  func() error
}

// NewResolver connects to the local container runtime. network is the
// container network preferred when a node is attached to several.
func NewResolver(network string) (*Resolver, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	r := NewResolverWith(kindLister{provider: cluster.NewProvider()}, dockerClient, network)
	r.closer = dockerClient.Close
	return r, nil
}

// NewResolverWith builds a Resolver from explicit dependencies.
func NewResolverWith(nodes NodeLister, docker ContainerInspector, network string) *Resolver {
	return &Resolver{nodes: nodes, docker: docker, network: network}
}

// Close releases the docker client.
func (r *Resolver) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// ControlPlaneNode returns the control-plane container of clusterName.
func (r *Resolver) ControlPlaneNode(clusterName string) (string, error) {
	names, err := r.nodes.ListNodeNames(clusterName)
	if err != nil {
		return "", fmt.Errorf("failed to list nodes of %s: %w", clusterName, err)
	}
	slices.Sort(names)
	for _, name := range names {
		if strings.HasSuffix(name, controlPlaneSuffix) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: cluster %s", ErrNoControlPlane, clusterName)
}

// ContainerIP returns the address of containerName on the preferred network,
// falling back to the first network in name order that has one.
func (r *Resolver) ContainerIP(ctx context.Context, containerName string) (string, error) {
	inspect, err := r.docker.ContainerInspect(ctx, containerName)
	if err != nil {
		return "", fmt.Errorf("failed to inspect container %s: %w", containerName, err)
	}
	if inspect.NetworkSettings == nil || len(inspect.NetworkSettings.Networks) == 0 {
		return "", fmt.Errorf("%w: %s is not attached to any network", ErrNoIPAddress, containerName)
	}

	networks := inspect.NetworkSettings.Networks
	if ep, ok := networks[r.network]; ok && ep != nil && ep.IPAddress != "" {
		return ep.IPAddress, nil
	}
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if ep := networks[name]; ep != nil && ep.IPAddress != "" {
			return ep.IPAddress, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoIPAddress, containerName)
}

// APIServer returns https://<control-plane IP>:<port> for clusterName.
func (r *Resolver) APIServer(ctx context.Context, clusterName string, port int) (string, error) {
	node, err := r.ControlPlaneNode(clusterName)
	if err != nil {
		return "", err
	}
	ip, err := r.ContainerIP(ctx, node)
	if err != nil {
		return "", err
	}
	return "https://" + net.JoinHostPort(ip, strconv.Itoa(port)), nil
}
