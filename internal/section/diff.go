package section

import (
	"sort"

	"github.com/samber/lo"

	"github.com/zjy-dev/covgap/internal/coverage"
)

// DiffSection compares the uncovered lines of two datasets.
type DiffSection struct {
	// NewlyUncovered holds lines uncovered in current but not in base.
	NewlyUncovered []FileRanges `json:"newly_uncovered" yaml:"newly_uncovered"`
	// Resolved holds lines uncovered in base but not in current.
	Resolved []FileRanges `json:"resolved" yaml:"resolved"`

	NewlyUncoveredLines int `json:"newly_uncovered_lines" yaml:"newly_uncovered_lines"`
	ResolvedLines       int `json:"resolved_lines" yaml:"resolved_lines"`
}

// Empty reports whether the datasets have the same uncovered lines.
func (s DiffSection) Empty() bool {
	return len(s.NewlyUncovered) == 0 && len(s.Resolved) == 0
}

// BuildDiff computes the set differences of the uncovered (path, line) keys of
// current and base. Each side is grouped into ranges against the statement map
// of the dataset its lines come from.
func BuildDiff(current, base *coverage.Dataset, opts LinesOptions) DiffSection {
	cur := current.UncoveredSet()
	old := base.UncoveredSet()

	newly := difference(cur, old)
	resolved := difference(old, cur)

	return DiffSection{
		NewlyUncovered:      rangesOf(current, newly, opts),
		Resolved:            rangesOf(base, resolved, opts),
		NewlyUncoveredLines: len(newly),
		ResolvedLines:       len(resolved),
	}
}

func difference(a, b map[coverage.LineID]struct{}) []coverage.LineID {
	return lo.Filter(lo.Keys(a), func(id coverage.LineID, _ int) bool {
		_, ok := b[id]
		return !ok
	})
}

// rangesOf groups ids by file and collapses each file's lines into ranges.
func rangesOf(ds *coverage.Dataset, ids []coverage.LineID, opts LinesOptions) []FileRanges {
	byFile := make(map[string][]int)
	for _, id := range ids {
		byFile[id.File] = append(byFile[id.File], id.Line)
	}

	paths := lo.Keys(byFile)
	sort.Strings(paths)

	out := make([]FileRanges, 0, len(paths))
	for _, p := range paths {
		f, _ := ds.File(p)
		if f.Path == "" {
			f = coverage.NewFileCoverage(p)
		}
		out = append(out, FileRanges{File: p, Ranges: GroupRanges(f, byFile[p], opts)})
	}
	return out
}
