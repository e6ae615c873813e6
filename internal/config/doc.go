// Package config provides the run configuration for infermesh.
//
// A run is described by a single infermesh.yaml file. Every field has a
// default, so an empty or missing file yields the standard two-cluster demo:
// clusters "cluster1" and "cluster2", the dev build of the mesh from
// gcr.io/istio-testing, and the upstream inference extension manifests.
//
// The configuration is loaded once at start and passed explicitly to every
// orchestration step. Nothing downstream reads ambient process state such as
// environment variables or the working directory.
package config
