package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
)

// ClusterTopology is one entry of the integration suite's topology descriptor.
type ClusterTopology struct {
	Kind        string `json:"kind"`
	ClusterName string `json:"clusterName"`
	PodSubnet   string `json:"podSubnet"`
	SvcSubnet   string `json:"svcSubnet"`
	Network     string `json:"network"`
}

// Topology builds a descriptor that places every cluster on network with
// non-overlapping pod and service subnets.
func Topology(clusters []string, network string) []ClusterTopology {
	out := make([]ClusterTopology, 0, len(clusters))
	for i, name := range clusters {
		octet := 10 * (i + 1)
		out = append(out, ClusterTopology{
			Kind:        "Kubernetes",
			ClusterName: name,
			PodSubnet:   fmt.Sprintf("10.%d.0.0/16", octet),
			SvcSubnet:   fmt.Sprintf("10.255.%d.0/24", octet),
			Network:     network,
		})
	}
	return out
}

// writeTopology writes the descriptor to a temp file and returns its path.
// The caller removes the file.
func writeTopology(topology []ClusterTopology) (string, error) {
	data, err := json.MarshalIndent(topology, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal topology: %w", err)
	}

	tmpfile, err := os.CreateTemp("", "infermesh-topology-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create topology file: %w", err)
	}
	if _, err := tmpfile.Write(data); err != nil {
		_ = tmpfile.Close()
		_ = os.Remove(tmpfile.Name())
		return "", fmt.Errorf("failed to write topology file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		_ = os.Remove(tmpfile.Name())
		return "", fmt.Errorf("failed to close topology file: %w", err)
	}
	return tmpfile.Name(), nil
}
