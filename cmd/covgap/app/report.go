package app

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covgap/internal/config"
	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/logger"
	"github.com/zjy-dev/covgap/internal/render"
	"github.com/zjy-dev/covgap/internal/report"
	"github.com/zjy-dev/covgap/internal/section"
	"github.com/zjy-dev/covgap/internal/source"
	"github.com/zjy-dev/covgap/internal/threshold"
)

// reportFlags are the flags shared by the report and diff commands.
type reportFlags struct {
	root       string
	format     string
	output     string
	color      string
	sections   []string
	branchMode string
	sort       string
	maxGap     int
	groupDepth int
	includes   []string
	excludes   []string
	thresholds []string
	snippets   bool
	context    int
}

func (f *reportFlags) register(cmd *cobra.Command, defaultSections string) {
	cmd.Flags().StringVar(&f.root, "root", "", "Project root used to relativize file paths and read sources")
	cmd.Flags().StringVarP(&f.format, "format", "f", "human", "Output format: "+joinFormats())
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&f.color, "color", config.ColorAuto, "Color mode: auto, always, never")
	cmd.Flags().StringSliceVarP(&f.sections, "sections", "s", []string{defaultSections}, "Sections to build: lines, branches, summary, diff, all")
	cmd.Flags().StringVar(&f.branchMode, "branch-mode", string(section.DefaultBranchMode), "Branch lines to list: missing-only, partial, all")
	cmd.Flags().StringVar(&f.sort, "sort", string(section.SortFile), "Summary sort key: file, stmt_pct, branch_pct, misses, miss_stmt, miss_br, uncovered_lines")
	cmd.Flags().IntVar(&f.maxGap, "max-gap", 0, "Split uncovered ranges across gaps wider than this many lines (0 = never)")
	cmd.Flags().IntVar(&f.groupDepth, "group-depth", 0, "Add directory rollups of this depth to the summary (0 = off)")
	cmd.Flags().StringArrayVarP(&f.includes, "include", "i", nil, "Only report files matching this glob (repeatable)")
	cmd.Flags().StringArrayVarP(&f.excludes, "exclude", "e", nil, "Drop files matching this gitignore-style pattern (repeatable)")
	cmd.Flags().StringArrayVarP(&f.thresholds, "threshold", "t", nil, "Fail when coverage violates e.g. 'stmt_pct>=80 misses<=10' (repeatable)")
	cmd.Flags().BoolVar(&f.snippets, "snippets", false, "Show source code for uncovered ranges (human, markdown, rg)")
	cmd.Flags().IntVar(&f.context, "context", 0, "Lines of context around each snippet")
}

// applyConfig fills every flag the user did not set from cfg.
func (f *reportFlags) applyConfig(cmd *cobra.Command, cfg *config.Config, withSections bool) {
	changed := cmd.Flags().Changed
	if !changed("root") {
		f.root = cfg.Root
	}
	if !changed("format") {
		f.format = cfg.Format
	}
	if !changed("color") {
		f.color = cfg.Color
	}
	if withSections && !changed("sections") {
		f.sections = cfg.Sections
	}
	if !changed("branch-mode") {
		f.branchMode = cfg.BranchMode
	}
	if !changed("sort") {
		f.sort = cfg.Sort
	}
	if !changed("max-gap") {
		f.maxGap = cfg.MaxGap
	}
	if !changed("group-depth") {
		f.groupDepth = cfg.GroupDepth
	}
	if !changed("include") {
		f.includes = cfg.Include
	}
	if !changed("exclude") {
		f.excludes = cfg.Exclude
	}
	if !changed("threshold") {
		f.thresholds = cfg.Threshold
	}
	if !changed("snippets") {
		f.snippets = cfg.Snippets
	}
	if !changed("context") {
		f.context = cfg.Context
	}
}

// pipeline parses the option values into a report pipeline. Any invalid
// value is a configuration error raised before an input is read.
func (f *reportFlags) pipeline(version string, paths, basePaths []string) (report.Pipeline, error) {
	sections, err := section.ParseSet(f.sections)
	if err != nil {
		return report.Pipeline{}, err
	}
	mode, err := section.ParseBranchMode(f.branchMode)
	if err != nil {
		return report.Pipeline{}, err
	}
	sortKey, err := section.ParseSummarySort(f.sort)
	if err != nil {
		return report.Pipeline{}, err
	}
	policy, err := threshold.ParseAll(f.thresholds)
	if err != nil {
		return report.Pipeline{}, err
	}
	if f.maxGap < 0 || f.context < 0 || f.groupDepth < 0 {
		return report.Pipeline{}, cverr.Configuration("--max-gap, --context and --group-depth must not be negative")
	}

	return report.Pipeline{
		Paths:      paths,
		BasePaths:  basePaths,
		Root:       f.root,
		Includes:   f.includes,
		Excludes:   f.excludes,
		Sections:   sections,
		BranchMode: mode,
		Sort:       sortKey,
		Lines:      section.LinesOptions{MaxGap: f.maxGap},
		Policy:     policy,
		Version:    version,
	}, nil
}

// renderer creates the output renderer for a destination that is a terminal
// when toFile is false.
func (f *reportFlags) renderer(cacheSize int, toFile bool) (render.Renderer, error) {
	opts := render.Options{
		Context:    f.context,
		GroupDepth: f.groupDepth,
	}
	switch f.color {
	case config.ColorAlways:
		opts.Color = true
	case config.ColorNever:
		opts.Color = false
	case config.ColorAuto:
		opts.Color = !toFile && !color.NoColor
	default:
		return nil, cverr.ConfigurationWithHint("color must be auto, always or never", "invalid color mode %q", f.color)
	}
	if f.snippets {
		cache, err := source.NewCache(f.root, cacheSize)
		if err != nil {
			return nil, err
		}
		opts.Sources = cache
	}
	return render.New(f.format, opts)
}

// run builds, renders and checks one report. A failed threshold is returned
// after the report has been written.
func (f *reportFlags) run(cmd *cobra.Command, g *globals, paths, basePaths []string) error {
	p, err := f.pipeline(g.version, paths, basePaths)
	if err != nil {
		return err
	}
	r, err := f.renderer(g.cfg.CacheSize, f.output != "")
	if err != nil {
		return err
	}

	rep, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return cverr.Configuration("failed to create output file %s: %v", f.output, err)
		}
		defer file.Close()
		w = file
	}
	if err := r.Render(w, rep); err != nil {
		return err
	}
	if f.output != "" {
		logger.Info("report written to %s", f.output)
	}

	if rep.Threshold != nil {
		return rep.Threshold.Err()
	}
	return nil
}

// NewReportCommand creates the "report" subcommand.
func NewReportCommand(g *globals) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report [coverage.xml ...]",
		Short: "Report uncovered lines, branches and per-file coverage.",
		Long: `Merge the given coverage reports and print the selected sections.

Inputs ending in .json are read as gcovr JSON reports (gcovr --json), all
others as Cobertura XML. Inputs may be glob patterns such as
'build/**/coverage.xml'. When no input is given, the 'inputs' list from the
config file is used. A line is covered when any input covers it.

Sections:
  lines     contiguous uncovered line ranges per file
  branches  conditional lines with missing branches
  summary   per-file statement and branch percentages with a TOTAL row
  all       lines, branches and summary

Exit status is 2 when a --threshold is violated.

Examples:
  # Everything for one report
  covgap report coverage.xml

  # Worst files first, as markdown, excluding tests
  covgap report -s summary --sort stmt_pct -f markdown -e 'tests/' cov/*.xml

  # Gate CI on coverage
  covgap report -s summary -t 'stmt_pct>=80 branch_pct>=70' coverage.xml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.applyConfig(cmd, g.cfg, true)
			paths := args
			if len(paths) == 0 {
				paths = g.cfg.Inputs
			}
			return flags.run(cmd, g, paths, nil)
		},
	}

	flags.register(cmd, "all")
	return cmd
}

func joinFormats() string {
	return strings.Join(render.Formats(), ", ")
}
