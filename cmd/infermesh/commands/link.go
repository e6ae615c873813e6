package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infermesh/cmd/infermesh/handlers"
)

// Link returns the command that exchanges remote secrets between the clusters.
func Link() *cobra.Command {
	var opts handlers.CommonOptions

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Exchange remote secrets between the two clusters",
		Long: `Install into each cluster a secret granting its control plane access
to the other cluster's API server.

The API server address is the control-plane container's IP on the kind
network, so both clusters must be running.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Link(cmd.Context(), opts)
		},
	}

	bindCommon(cmd, &opts)

	return cmd
}
