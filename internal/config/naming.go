package config

import "strings"

// ContextPrefix is prepended by kind to every cluster name to form its kube context.
const ContextPrefix = "kind-"

// Cluster pairs a logical cluster name with its kube context.
type Cluster struct {
	Name    string
	Context string
}

// ContextName returns the kube context of a kind cluster.
func ContextName(cluster string) string {
	return ContextPrefix + cluster
}

// ClusterNameFromContext strips the kind prefix from a context. Only a leading
// prefix is removed; a context without it is returned unchanged.
func ClusterNameFromContext(kubeContext string) string {
	return strings.TrimPrefix(kubeContext, ContextPrefix)
}

// NewCluster builds the Cluster for a logical name.
func NewCluster(name string) Cluster {
	return Cluster{Name: name, Context: ContextName(name)}
}

// ClusterContexts returns the configured clusters in order.
func (c *Config) ClusterContexts() []Cluster {
	clusters := make([]Cluster, 0, len(c.Clusters))
	for _, name := range c.Clusters {
		clusters = append(clusters, NewCluster(name))
	}
	return clusters
}

// IsRemote reports whether a manifest source is fetched over HTTP(S).
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://")
}
