package helm

import (
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/imamik/infermesh/internal/kubecontext"
)

// contextRESTClientGetter implements genericclioptions.RESTClientGetter for
// one named context of the default kubeconfig.
type contextRESTClientGetter struct {
	clientConfig clientcmd.ClientConfig
	restConfig   *rest.Config
}

func newContextRESTClientGetter(kubeContext, namespace string) *contextRESTClientGetter {
	return &contextRESTClientGetter{clientConfig: kubecontext.ClientConfig(kubeContext, namespace)}
}

func (g *contextRESTClientGetter) ToRESTConfig() (*rest.Config, error) {
	if g.restConfig != nil {
		return g.restConfig, nil
	}

	restConfig, err := g.clientConfig.ClientConfig()
	if err != nil {
		return nil, err
	}
	g.restConfig = restConfig
	return g.restConfig, nil
}

func (g *contextRESTClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	restConfig, err := g.ToRESTConfig()
	if err != nil {
		return nil, err
	}

	dc, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, err
	}
	return memory.NewMemCacheClient(dc), nil
}

func (g *contextRESTClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	dc, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(dc), nil
}

func (g *contextRESTClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	return g.clientConfig
}
