package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/util/labels"
)

func TestFiles_Default(t *testing.T) {
	files, err := Files(config.Default(), config.DefaultConfigFilename)

	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"infermesh.yaml",
		"manifests/destination-rule.yaml",
		"manifests/httproute.yaml",
		"manifests/sim-deployment.yaml",
	}, paths)
}

func TestFiles_ConfigRoundTrip(t *testing.T) {
	files, err := Files(config.Default(), config.DefaultConfigFilename)
	require.NoError(t, err)

	cfg, err := config.LoadFromBytes(files[0].Data)

	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestFiles_SkipsRemoteSources(t *testing.T) {
	cfg := config.Default()
	cfg.Inference.HTTPRoute = "https://example.com/route.yaml"
	cfg.Inference.Pools[1].Manifest = "https://example.com/sim.yaml"

	files, err := Files(cfg, "infermesh.yaml")

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "manifests/destination-rule.yaml", files[1].Path)
}

func TestSimDeployment(t *testing.T) {
	pool := config.DefaultPools()[1]

	data, err := yaml.Marshal(SimDeployment(pool))
	require.NoError(t, err)

	var dep appsv1.Deployment
	require.NoError(t, yaml.Unmarshal(data, &dep))
	assert.Equal(t, "Deployment", dep.Kind)
	assert.Equal(t, "vllm-deepseek-r1", dep.Name)
	assert.Equal(t, "vllm-deepseek-r1", dep.Spec.Selector.MatchLabels["app"])
	assert.Equal(t, map[string]string{"app": "vllm-deepseek-r1"}, dep.Spec.Selector.MatchLabels)
	for k, v := range dep.Spec.Selector.MatchLabels {
		assert.Equal(t, v, dep.Spec.Template.Labels[k])
	}
	assert.Equal(t, labels.ManagedByInfermesh, dep.Spec.Template.Labels[labels.KeyManagedBy])
	require.NotNil(t, dep.Spec.Template.Spec.AutomountServiceAccountToken)
	assert.False(t, *dep.Spec.Template.Spec.AutomountServiceAccountToken)
	require.Len(t, dep.Spec.Template.Spec.Containers, 1)
	assert.Contains(t, strings.Join(dep.Spec.Template.Spec.Containers[0].Args, " "), "--model deepseek/vllm-deepseek-r1")
}

func TestHTTPRoute(t *testing.T) {
	route := HTTPRoute(config.DefaultPools(), "inference-gateway")

	assert.Equal(t, labels.ManagedByInfermesh, route.GetLabels()[labels.KeyManagedBy])

	parents, _, err := unstructured.NestedSlice(route.Object, "spec", "parentRefs")
	require.NoError(t, err)
	assert.Equal(t, "inference-gateway", parents[0].(map[string]interface{})["name"])

	rules, _, err := unstructured.NestedSlice(route.Object, "spec", "rules")
	require.NoError(t, err)
	require.Len(t, rules, 2)

	data, err := yaml.Marshal(route.Object)
	require.NoError(t, err)
	assert.Contains(t, string(data), "value: meta-llama/Llama-3.1-8B-Instruct")
	assert.Contains(t, string(data), "value: deepseek/vllm-deepseek-r1")
	assert.Contains(t, string(data), "kind: InferencePool")
}

func TestDestinationRules(t *testing.T) {
	rules := DestinationRules(config.DefaultPools(), "default")

	require.Len(t, rules, 2)
	host, _, _ := unstructured.NestedString(rules[0].Object, "spec", "host")
	assert.Equal(t, "vllm-llama3-8b-instruct-epp.default.svc.cluster.local", host)

	data, err := yamlDocuments(rules)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "---\n"))
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()

	written, err := Write(config.Default(), dir, "infermesh.yaml", false)

	require.NoError(t, err)
	assert.Len(t, written, 4)
	for _, path := range written {
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}
	_, err = config.Load(filepath.Join(dir, "infermesh.yaml"))
	assert.NoError(t, err)
}

func TestWrite_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "infermesh.yaml"), []byte("keep"), 0o644))

	_, err := Write(config.Default(), dir, "infermesh.yaml", false)

	require.ErrorIs(t, err, ErrExists)
	data, _ := os.ReadFile(filepath.Join(dir, "infermesh.yaml"))
	assert.Equal(t, "keep", string(data))
	_, statErr := os.Stat(filepath.Join(dir, "manifests"))
	assert.True(t, os.IsNotExist(statErr), "nothing written on refusal")
}

func TestWrite_Force(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "infermesh.yaml"), []byte("old"), 0o644))

	_, err := Write(config.Default(), dir, "infermesh.yaml", true)

	require.NoError(t, err)
	data, _ := os.ReadFile(filepath.Join(dir, "infermesh.yaml"))
	assert.Contains(t, string(data), "clusters:")
}
