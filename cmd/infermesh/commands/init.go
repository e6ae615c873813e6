package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infermesh/cmd/infermesh/handlers"
)

// Init returns the command that writes a configuration and the local manifests.
//
// Flags:
//
//	--output, -o: Path of the configuration file (default "infermesh.yaml")
//	--force, -f: Overwrite existing files
//	--defaults: Do not prompt for cluster names
func Init() *cobra.Command {
	var opts handlers.InitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file and the local manifests",
		Long: `Write infermesh.yaml with every default spelled out, plus the local
manifests it references: the destination rules, the HTTPRoute and the
simulated model server deployment.

On a terminal the cluster names are asked for; use --defaults to skip
the prompt. Existing files are left alone unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "infermesh.yaml", "Output file path")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&opts.Defaults, "defaults", false, "Use the default cluster names without prompting")

	return cmd
}
