// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the infermesh CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "infermesh",
		Short:         "Run LLM inference across two meshed kind clusters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Workflow commands
	cmd.AddCommand(Up())
	cmd.AddCommand(Link())
	cmd.AddCommand(Smoke())

	// Utility commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())

	return cmd
}
