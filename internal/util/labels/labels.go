package labels

// Label keys set on generated manifests.
const (
	// KeyApp selects the model server pods of one inference pool. The pool
	// chart matches on it, so it is the only selector label.
	KeyApp = "app"

	// KeyManagedBy identifies the tool that generated a resource.
	KeyManagedBy = "app.kubernetes.io/managed-by"

	// KeyPartOf groups every resource of the demo.
	KeyPartOf = "app.kubernetes.io/part-of"
)

// ManagedByInfermesh is the KeyManagedBy and KeyPartOf value of generated resources.
const ManagedByInfermesh = "infermesh"

// LabelBuilder provides a fluent interface for building resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a builder with the ownership labels pre-set.
func NewLabelBuilder() *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyManagedBy: ManagedByInfermesh,
			KeyPartOf:    ManagedByInfermesh,
		},
	}
}

// WithApp adds the pool selector label.
func (lb *LabelBuilder) WithApp(app string) *LabelBuilder {
	lb.labels[KeyApp] = app
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// Selector returns the labels that select the model servers of pool.
func Selector(pool string) map[string]string {
	return map[string]string{KeyApp: pool}
}
