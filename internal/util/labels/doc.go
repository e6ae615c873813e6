// Package labels provides consistent labeling for generated Kubernetes
// manifests.
//
// Every resource carries the standard app.kubernetes.io ownership labels.
// Model server pods additionally carry the app label the inference pool
// selects on.
package labels
