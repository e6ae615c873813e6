package gateway

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"
)

func newScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	s.AddKnownTypeWithName(GVK, &unstructured.Unstructured{})
	s.AddKnownTypeWithName(schema.GroupVersionKind{Group: GVK.Group, Version: GVK.Version, Kind: "GatewayList"}, &unstructured.UnstructuredList{})
	return s
}

func gateway(addresses ...string) *unstructured.Unstructured {
	gw := &unstructured.Unstructured{}
	gw.SetGroupVersionKind(GVK)
	gw.SetNamespace("default")
	gw.SetName("inference-gateway")
	if addresses != nil {
		list := make([]interface{}, 0, len(addresses))
		for _, a := range addresses {
			list = append(list, map[string]interface{}{"type": "IPAddress", "value": a})
		}
		gw.Object["status"] = map[string]interface{}{"addresses": list}
	}
	return gw
}

func resolverWith(objs ...client.Object) *Resolver {
	c := fake.NewClientBuilder().WithScheme(newScheme()).WithObjects(objs...).Build()
	r := NewResolver(c, logr.Discard())
	r.interval = time.Millisecond
	return r
}

func TestAddress(t *testing.T) {
	r := resolverWith(gateway("172.18.255.200", "172.18.255.201"))

	addr, err := r.Address(context.Background(), "default", "inference-gateway")

	require.NoError(t, err)
	assert.Equal(t, "172.18.255.200", addr)
}

func TestAddress_NoStatus(t *testing.T) {
	tests := []struct {
		name string
		gw   *unstructured.Unstructured
	}{
		{"no status", gateway()},
		{"empty addresses", gateway([]string{}...)},
		{"empty value", gateway("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolverWith(tt.gw).Address(context.Background(), "default", "inference-gateway")
			assert.ErrorIs(t, err, ErrNoGatewayAddress)
		})
	}
}

func TestAddress_NotFound(t *testing.T) {
	_, err := resolverWith().Address(context.Background(), "default", "inference-gateway")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get gateway default/inference-gateway")
}

func TestWaitForAddress_ZeroWaitSingleAttempt(t *testing.T) {
	var gets atomic.Int32
	c := fake.NewClientBuilder().WithScheme(newScheme()).WithObjects(gateway()).
		WithInterceptorFuncs(interceptor.Funcs{
			Get: func(ctx context.Context, c client.WithWatch, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
				gets.Add(1)
				return c.Get(ctx, key, obj, opts...)
			},
		}).Build()
	r := NewResolver(c, logr.Discard())

	_, err := r.WaitForAddress(context.Background(), "default", "inference-gateway", 0)

	assert.ErrorIs(t, err, ErrNoGatewayAddress)
	assert.Equal(t, int32(1), gets.Load())
}

func TestWaitForAddress_PollsUntilAssigned(t *testing.T) {
	var gets atomic.Int32
	c := fake.NewClientBuilder().WithScheme(newScheme()).WithObjects(gateway()).
		WithInterceptorFuncs(interceptor.Funcs{
			Get: func(ctx context.Context, c client.WithWatch, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
				if gets.Add(1) < 3 {
					return c.Get(ctx, key, obj, opts...)
				}
				gateway("10.0.0.7").DeepCopyInto(obj.(*unstructured.Unstructured))
				return nil
			},
		}).Build()
	r := NewResolver(c, logr.Discard())
	r.interval = time.Millisecond

	addr, err := r.WaitForAddress(context.Background(), "default", "inference-gateway", 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", addr)
	assert.Equal(t, int32(3), gets.Load())
}
