package report

import (
	"context"
	"path/filepath"

	"github.com/zjy-dev/covgap/internal/coverage"
	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/filter"
	"github.com/zjy-dev/covgap/internal/logger"
	"github.com/zjy-dev/covgap/internal/section"
	"github.com/zjy-dev/covgap/internal/threshold"
)

// Pipeline is one run from coverage files to a Report: load, merge, filter,
// assemble. The CLI and the MCP server both build reports through it.
type Pipeline struct {
	// Paths are the current coverage documents, BasePaths the comparison
	// documents for the diff section. Both may hold glob patterns.
	Paths     []string
	BasePaths []string
	Root      string

	Includes []string
	Excludes []string

	Sections   section.Set
	BranchMode section.BranchMode
	Sort       section.SummarySort
	Lines      section.LinesOptions
	Policy     threshold.Policy

	Version string
}

// Run validates the options, loads both datasets and assembles the report.
// Configuration errors are reported before any file is read.
func (p Pipeline) Run(ctx context.Context) (*Report, error) {
	if err := ValidateSelection(p.Sections, len(p.BasePaths) > 0); err != nil {
		return nil, err
	}
	if len(p.Paths) == 0 {
		return nil, cverr.ConfigurationWithHint(
			"pass one or more Cobertura XML files, or set inputs in .covgap.yaml",
			"no coverage inputs given")
	}
	flt, err := filter.New(p.Includes, p.Excludes)
	if err != nil {
		return nil, err
	}
	metaRoot := p.Root
	if p.Root, err = resolveRoot(p.Root); err != nil {
		return nil, err
	}

	paths, err := coverage.ExpandPaths(p.Paths)
	if err != nil {
		return nil, err
	}
	current, err := p.load(ctx, paths, flt)
	if err != nil {
		return nil, err
	}

	var base *coverage.Dataset
	var basePaths []string
	if len(p.BasePaths) > 0 {
		if basePaths, err = coverage.ExpandPaths(p.BasePaths); err != nil {
			return nil, err
		}
		if base, err = p.load(ctx, basePaths, flt); err != nil {
			return nil, err
		}
	}

	return Assemble(Request{
		Current:    current,
		Base:       base,
		Sections:   p.Sections,
		BranchMode: p.BranchMode,
		Sort:       p.Sort,
		Lines:      p.Lines,
		Policy:     p.Policy,
		Meta: Metadata{
			Version:    p.Version,
			Root:       metaRoot,
			Inputs:     paths,
			BaseInputs: basePaths,
			Options: Options{
				Includes: flt.Includes(),
				Excludes: flt.Excludes(),
			},
		},
	})
}

// resolveRoot makes root absolute so that absolute filenames in the documents
// can be relativized against it. An empty root keeps paths as reported.
func resolveRoot(root string) (string, error) {
	if root == "" {
		return "", nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", cverr.Configuration("cannot resolve root %q: %v", root, err)
	}
	return abs, nil
}

func (p Pipeline) load(ctx context.Context, paths []string, flt *filter.Filter) (*coverage.Dataset, error) {
	ds, err := coverage.Load(ctx, paths, coverage.ParseOptions{Root: p.Root})
	if err != nil {
		return nil, err
	}
	filtered := flt.Apply(ds)
	logger.Debug("loaded %d document(s): %d file(s), %d after filtering", len(paths), ds.Len(), filtered.Len())
	return filtered, nil
}
