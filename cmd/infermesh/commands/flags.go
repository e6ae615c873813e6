package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infermesh/cmd/infermesh/handlers"
)

// bindCommon registers the flags shared by every workflow command.
func bindCommon(cmd *cobra.Command, opts *handlers.CommonOptions) {
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: infermesh.yaml)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write step metrics in Prometheus textfile format to this path")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
}
