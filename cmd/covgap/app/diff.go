package app

import (
	"github.com/spf13/cobra"

	cverr "github.com/zjy-dev/covgap/internal/errors"
)

// NewDiffCommand creates the "diff" subcommand.
func NewDiffCommand(g *globals) *cobra.Command {
	var (
		flags reportFlags
		base  []string
	)

	cmd := &cobra.Command{
		Use:   "diff --base base.xml [coverage.xml ...]",
		Short: "Show lines that became uncovered or covered since a base report.",
		Long: `Compare the current Cobertura XML reports against base reports and list
the line ranges that are newly uncovered and the ranges that are no longer
uncovered. Both sides are merged and filtered the same way as by 'report'.

Other sections may be added with --sections; they describe the current reports.

Examples:
  # Compare a branch build to main
  covgap diff --base main/coverage.xml coverage.xml

  # Include the summary of the current run as markdown
  covgap diff --base main.xml -s diff,summary -f markdown coverage.xml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(base) == 0 {
				return cverr.ConfigurationWithHint("pass the comparison report with --base", "diff requires a base report")
			}
			flags.applyConfig(cmd, g.cfg, false)
			paths := args
			if len(paths) == 0 {
				paths = g.cfg.Inputs
			}
			return flags.run(cmd, g, paths, base)
		},
	}

	flags.register(cmd, "diff")
	cmd.Flags().StringArrayVarP(&base, "base", "b", nil, "Base Cobertura XML report or glob (repeatable)")

	return cmd
}
