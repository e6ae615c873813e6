// Package kubecontext reads and switches kubeconfig contexts using the
// standard loading rules (KUBECONFIG, then ~/.kube/config).
package kubecontext

import (
	"fmt"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ClientConfig returns a client config pinned to kubeContext. namespace may
// be empty to keep the context's own namespace.
func ClientConfig(kubeContext, namespace string) clientcmd.ClientConfig {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	if namespace != "" {
		overrides.Context.Namespace = namespace
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)
}

// RESTConfig returns the REST config of kubeContext.
func RESTConfig(kubeContext string) (*rest.Config, error) {
	cfg, err := ClientConfig(kubeContext, "").ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig for context %s: %w", kubeContext, err)
	}
	return cfg, nil
}

// Current returns the active context.
func Current() (string, error) {
	raw, err := clientcmd.NewDefaultClientConfigLoadingRules().Load()
	if err != nil {
		return "", fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return raw.CurrentContext, nil
}

// Use makes kubeContext the active context in the kubeconfig.
func Use(kubeContext string) error {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	raw, err := rules.Load()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	if _, ok := raw.Contexts[kubeContext]; !ok {
		return fmt.Errorf("context %s not found in kubeconfig", kubeContext)
	}
	if raw.CurrentContext == kubeContext {
		return nil
	}

	raw.CurrentContext = kubeContext
	if err := clientcmd.ModifyConfig(rules, *raw, true); err != nil {
		return fmt.Errorf("failed to switch context to %s: %w", kubeContext, err)
	}
	return nil
}
