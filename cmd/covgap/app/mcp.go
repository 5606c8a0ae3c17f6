package app

import (
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covgap/internal/mcp"
)

// NewMCPCommand creates the "mcp" subcommand.
func NewMCPCommand(g *globals) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve coverage reports to MCP clients over stdio.",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
coverage_report and coverage_diff tools. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("root") {
				root = g.cfg.Root
			}
			return mcp.NewServer(g.version, root).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Project root used to relativize file paths")
	return cmd
}
