package scaffold

import (
	"bytes"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/yaml"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/util/labels"
	"github.com/imamik/infermesh/internal/util/ptr"
)

const (
	// ModelHeader is set by the body-based router from the request's model field.
	ModelHeader = "X-Gateway-Model-Name"

	simImage    = "ghcr.io/llm-d/llm-d-inference-sim:v0.4.0"
	simPort     = 8000
	simReplicas = 3
)

// DestinationRules lets the gateway reach each endpoint picker over TLS
// without verifying its self-signed certificate.
func DestinationRules(pools []config.Pool, namespace string) []*unstructured.Unstructured {
	rules := make([]*unstructured.Unstructured, 0, len(pools))
	for _, pool := range pools {
		epp := pool.Name + "-epp"
		rules = append(rules, &unstructured.Unstructured{Object: map[string]interface{}{
			"apiVersion": "networking.istio.io/v1",
			"kind":       "DestinationRule",
			"metadata":   metadata(epp),
			"spec": map[string]interface{}{
				"host": epp + "." + namespace + ".svc.cluster.local",
				"trafficPolicy": map[string]interface{}{
					"tls": map[string]interface{}{
						"mode":               "SIMPLE",
						"insecureSkipVerify": true,
					},
				},
			},
		}})
	}
	return rules
}

// HTTPRoute routes each model to its inference pool by the model header.
func HTTPRoute(pools []config.Pool, gatewayName string) *unstructured.Unstructured {
	rules := make([]interface{}, 0, len(pools))
	for _, pool := range pools {
		model := pool.Model
		if model == "" {
			model = pool.Name
		}
		rules = append(rules, map[string]interface{}{
			"matches": []interface{}{map[string]interface{}{
				"headers": []interface{}{map[string]interface{}{
					"type":  "Exact",
					"name":  ModelHeader,
					"value": model,
				}},
				"path": map[string]interface{}{"type": "PathPrefix", "value": "/"},
			}},
			"backendRefs": []interface{}{map[string]interface{}{
				"group": "inference.networking.k8s.io",
				"kind":  "InferencePool",
				"name":  pool.Name,
			}},
			"timeouts": map[string]interface{}{"request": "300s"},
		})
	}

	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "gateway.networking.k8s.io/v1",
		"kind":       "HTTPRoute",
		"metadata":   metadata("llm-route"),
		"spec": map[string]interface{}{
			"parentRefs": []interface{}{map[string]interface{}{
				"group": "gateway.networking.k8s.io",
				"kind":  "Gateway",
				"name":  gatewayName,
			}},
			"rules": rules,
		},
	}}
}

// SimDeployment is a simulated model server labelled app=<pool name>.
func SimDeployment(pool config.Pool) *appsv1.Deployment {
	model := pool.Model
	if model == "" {
		model = pool.Name
	}
	podLabels := labels.NewLabelBuilder().WithApp(pool.Name).Build()

	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{Name: pool.Name, Labels: podLabels},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.Int32(simReplicas),
			Selector: &metav1.LabelSelector{MatchLabels: labels.Selector(pool.Name)},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: podLabels},
				Spec: corev1.PodSpec{
					AutomountServiceAccountToken: ptr.Bool(false),
					Containers: []corev1.Container{{
						Name:            "vllm-sim",
						Image:           simImage,
						ImagePullPolicy: corev1.PullIfNotPresent,
						Args: []string{
							"--model", model,
							"--port", "8000",
						},
						Env: []corev1.EnvVar{
							{Name: "POD_NAME", ValueFrom: &corev1.EnvVarSource{FieldRef: &corev1.ObjectFieldSelector{FieldPath: "metadata.name"}}},
							{Name: "NAMESPACE", ValueFrom: &corev1.EnvVarSource{FieldRef: &corev1.ObjectFieldSelector{FieldPath: "metadata.namespace"}}},
						},
						Ports: []corev1.ContainerPort{{Name: "http", ContainerPort: simPort, Protocol: corev1.ProtocolTCP}},
						ReadinessProbe: &corev1.Probe{
							ProbeHandler: corev1.ProbeHandler{
								HTTPGet: &corev1.HTTPGetAction{Path: "/ready", Port: intstr.FromInt32(simPort)},
							},
							PeriodSeconds: 5,
						},
						Resources: corev1.ResourceRequirements{
							Requests: corev1.ResourceList{
								corev1.ResourceCPU:    resource.MustParse("10m"),
								corev1.ResourceMemory: resource.MustParse("32Mi"),
							},
						},
					}},
				},
			},
		},
	}
}

func metadata(name string) map[string]interface{} {
	owned := map[string]interface{}{}
	for k, v := range labels.NewLabelBuilder().Build() {
		owned[k] = v
	}
	return map[string]interface{}{"name": name, "labels": owned}
}

// yamlDocuments joins objects into one multi-document YAML file.
func yamlDocuments(objs []*unstructured.Unstructured) ([]byte, error) {
	var buf bytes.Buffer
	for i, obj := range objs {
		if i > 0 {
			buf.WriteString("---\n")
		}
		data, err := yaml.Marshal(obj.Object)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
