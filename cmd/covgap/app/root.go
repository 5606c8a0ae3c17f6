package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covgap/internal/config"
	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/logger"
)

// globals holds the persistent flags and the configuration loaded for the
// running subcommand.
type globals struct {
	version    string
	configPath string
	logLevel   string

	cfg *config.Config
}

// NewCovgapCommand creates the root command for the covgap tool.
func NewCovgapCommand(version string) *cobra.Command {
	g := &globals{version: version}

	cmd := &cobra.Command{
		Use:   "covgap",
		Short: "Find coverage gaps in Cobertura XML reports.",
		Long: `covgap merges one or more Cobertura XML coverage reports and shows what
is not covered: uncovered line ranges, partially covered branches, per-file
coverage percentages, and the lines that changed between two runs.

Settings are read from .covgap.yaml in the working directory or $HOME and
from COVGAP_* environment variables. Command line flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to a config file (default: search .covgap.yaml)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cverr.WithExitCode(err, cverr.ExitUsage)
	})

	cmd.AddCommand(NewReportCommand(g))
	cmd.AddCommand(NewDiffCommand(g))
	cmd.AddCommand(NewMCPCommand(g))
	cmd.AddCommand(NewVersionCommand(g))

	return cmd
}

func (g *globals) load(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	g.cfg = cfg

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = g.logLevel
	}
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if cfg.File != "" {
		logger.Debug("using config file %s", cfg.File)
	}
	return nil
}
