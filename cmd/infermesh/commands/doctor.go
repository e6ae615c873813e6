package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infermesh/cmd/infermesh/handlers"
)

// Doctor returns the command that checks the required tools.
//
// Optional flags:
//
//	--config, -c: Path to configuration file (default: auto-detect infermesh.yaml)
func Doctor() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the required tools are installed",
		Long: `Check that every tool a run delegates to is on the PATH and print
its version. The set of tools depends on the configuration: helm is only
required for the CLI chart backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: infermesh.yaml)")

	return cmd
}
