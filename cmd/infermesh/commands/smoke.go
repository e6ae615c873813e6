package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infermesh/cmd/infermesh/handlers"
)

// Smoke returns the command that sends the completion request.
func Smoke() *cobra.Command {
	var opts handlers.SmokeOptions

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Send a completion request through the first cluster's gateway",
		Long: `Switch to the first cluster's context, read the inference gateway's
external address and POST a completion request to it. The response status,
headers and body are printed.

Examples:
  # Wait up to two minutes for the gateway to get an address
  infermesh smoke --gateway-wait 2m`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Smoke(cmd.Context(), opts)
		},
	}

	bindCommon(cmd, &opts.CommonOptions)
	cmd.Flags().DurationVar(&opts.GatewayWait, "gateway-wait", 0, "How long to wait for the gateway address (0 reads it once)")

	return cmd
}
