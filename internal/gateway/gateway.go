// Package gateway reads the external address assigned to a Gateway API
// Gateway. The resource is read as unstructured so no Gateway API types are
// compiled in.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/imamik/infermesh/internal/kubecontext"
	"github.com/imamik/infermesh/internal/util/retry"
)

// ErrNoGatewayAddress is returned when the Gateway has no address in its status yet.
var ErrNoGatewayAddress = errors.New("gateway has no address")

// GVK identifies the Gateway kind.
var GVK = schema.GroupVersionKind{Group: "gateway.networking.k8s.io", Version: "v1", Kind: "Gateway"}

const defaultPollInterval = 2 * time.Second

// Resolver looks up Gateway addresses.
type Resolver struct {
	client   client.Reader
	log      logr.Logger
	interval time.Duration
}

// NewResolver wraps an existing client.
func NewResolver(c client.Reader, log logr.Logger) *Resolver {
	return &Resolver{client: c, log: log.WithName("gateway"), interval: defaultPollInterval}
}

// NewForContext creates a Resolver talking to kubeContext.
func NewForContext(kubeContext string, log logr.Logger) (*Resolver, error) {
	restConfig, err := kubecontext.RESTConfig(kubeContext)
	if err != nil {
		return nil, err
	}
	c, err := client.New(restConfig, client.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", kubeContext, err)
	}
	return NewResolver(c, log), nil
}

// Address returns status.addresses[0].value of the named Gateway.
func (r *Resolver) Address(ctx context.Context, namespace, name string) (string, error) {
	gw := &unstructured.Unstructured{}
	gw.SetGroupVersionKind(GVK)
	if err := r.client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, gw); err != nil {
		return "", fmt.Errorf("failed to get gateway %s/%s: %w", namespace, name, err)
	}

	addresses, found, err := unstructured.NestedSlice(gw.Object, "status", "addresses")
	if err != nil {
		return "", fmt.Errorf("gateway %s/%s has malformed status: %w", namespace, name, err)
	}
	if !found || len(addresses) == 0 {
		return "", fmt.Errorf("%w: %s/%s", ErrNoGatewayAddress, namespace, name)
	}

	first, ok := addresses[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("gateway %s/%s has malformed status: address is %T", namespace, name, addresses[0])
	}
	value, _, _ := unstructured.NestedString(first, "value")
	if value == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrNoGatewayAddress, namespace, name)
	}
	return value, nil
}

// WaitForAddress polls Address for up to wait. A zero wait makes exactly one attempt.
func (r *Resolver) WaitForAddress(ctx context.Context, namespace, name string, wait time.Duration) (string, error) {
	var addr string
	err := retry.Until(ctx, func(ctx context.Context) error {
		a, err := r.Address(ctx, namespace, name)
		if err != nil {
			r.log.V(1).Info("gateway address not ready", "gateway", namespace+"/"+name, "error", err.Error())
			return err
		}
		addr = a
		return nil
	}, retry.WithTimeout(wait), retry.WithInitialDelay(r.interval), retry.WithMaxDelay(4*r.interval))
	if err != nil {
		return "", err
	}
	r.log.Info("gateway address resolved", "gateway", namespace+"/"+name, "address", addr)
	return addr, nil
}
