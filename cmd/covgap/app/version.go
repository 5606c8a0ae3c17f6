package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covgap/internal/report"
)

// NewVersionCommand creates the "version" subcommand.
func NewVersionCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the covgap version.",
		Args:  cobra.NoArgs,
		// The version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", report.ToolName, g.version)
			return err
		},
	}
}
