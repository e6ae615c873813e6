package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infermesh/cmd/infermesh/handlers"
)

// Up returns the command that runs the whole workflow.
//
// Optional flags:
//
//	--config, -c: Path to configuration file (default: auto-detect infermesh.yaml)
//	--tag: Mesh build tag, skips the version lookup
//	--parallel-clusters: Install both clusters concurrently
//	--skip-bootstrap: Reuse existing kind clusters
//	--skip-smoke: Do not send the completion request
//	--yes, -y: Do not ask for confirmation
//	--gateway-wait: How long to wait for the gateway address
//	--metrics-file: Write step metrics to a file
//	-v: Increase log verbosity
func Up() *cobra.Command {
	var opts handlers.UpOptions

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Create the clusters, install the mesh and inference stack, and test it",
		Long: `Create two kind clusters and run LLM inference across them.

The run has five phases, each aborting the run on failure:

  1. Resolve the mesh build tag and locate (or clone) the mesh repository
  2. Bootstrap two kind clusters on a shared container network
  3. Per cluster: install the mesh control plane, the inference extension
     CRDs, the simulated model servers, the inference pools and the
     gateway configuration
  4. Exchange remote secrets so each control plane discovers the other
  5. Send a completion request through the first cluster's gateway

If no config file is specified, it looks for infermesh.yaml in the current
directory and falls back to built-in defaults. Use 'infermesh init' to
write a configuration file and the local manifests.

Examples:
  # Full run with defaults
  infermesh up

  # Pin the mesh build and skip the prompt
  infermesh up --tag 1.28.3 --yes

  # Reinstall into existing clusters without the smoke request
  infermesh up --skip-bootstrap --skip-smoke`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Up(cmd.Context(), opts)
		},
	}

	bindCommon(cmd, &opts.CommonOptions)
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Mesh build tag (default: latest from versionURL)")
	cmd.Flags().BoolVar(&opts.ParallelClusters, "parallel-clusters", false, "Install both clusters concurrently")
	cmd.Flags().BoolVar(&opts.SkipBootstrap, "skip-bootstrap", false, "Reuse existing kind clusters")
	cmd.Flags().BoolVar(&opts.SkipSmoke, "skip-smoke", false, "Do not send the completion request")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().DurationVar(&opts.GatewayWait, "gateway-wait", 0, "How long to wait for the gateway address (0 reads it once)")

	return cmd
}
