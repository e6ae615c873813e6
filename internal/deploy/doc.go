// Package deploy runs the full demo workflow.
//
// # Phases
//
// A run executes, in order and stopping at the first failure:
//  1. Resolve - build tag and mesh repository location
//  2. Preflight and bootstrap - tool check and cluster creation
//  3. Per-cluster install - mesh control plane, inference extension, mesh configuration
//  4. Link - remote secrets in both directions
//  5. Smoke - one completion request through the gateway of the first cluster
//
// Phase 3 runs the clusters one after another unless Options.ParallelClusters
// is set. Every other phase is strictly sequential.
package deploy
