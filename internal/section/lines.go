package section

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/zjy-dev/covgap/internal/coverage"
)

// UncoveredRange is a maximal run of uncovered lines in one file, inclusive on
// both ends.
type UncoveredRange struct {
	File  string `json:"file" yaml:"file"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// String formats the range as "10-15", or "10" for a single line.
func (r UncoveredRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// FileRanges holds the uncovered ranges of one file.
type FileRanges struct {
	File   string           `json:"file" yaml:"file"`
	Ranges []UncoveredRange `json:"ranges" yaml:"ranges"`
}

// LinesOptions tunes range grouping.
type LinesOptions struct {
	// MaxGap is the widest run of non-instrumented lines a range may span.
	// Zero means unlimited.
	MaxGap int
}

// LinesSection lists uncovered line ranges per file.
type LinesSection struct {
	Files []FileRanges `json:"files" yaml:"files"`
}

// Ranges returns every range in file then line order.
func (s LinesSection) Ranges() []UncoveredRange {
	var out []UncoveredRange
	for _, f := range s.Files {
		out = append(out, f.Ranges...)
	}
	return out
}

// Empty reports whether no file has uncovered lines.
func (s LinesSection) Empty() bool {
	return len(s.Files) == 0
}

// BuildLines groups the uncovered lines of every file into ranges. Files
// without uncovered lines are omitted.
func BuildLines(ds *coverage.Dataset, opts LinesOptions) LinesSection {
	sec := LinesSection{Files: []FileRanges{}}
	for _, f := range ds.Files() {
		ranges := GroupRanges(f, f.UncoveredLines(), opts)
		if len(ranges) == 0 {
			continue
		}
		sec.Files = append(sec.Files, FileRanges{File: f.Path, Ranges: ranges})
	}
	return sec
}

// GroupRanges groups the given lines of f into ranges. Two consecutive lines
// belong to one range unless an instrumented line outside lines lies between
// them, or the gap exceeds opts.MaxGap.
func GroupRanges(f coverage.FileCoverage, lines []int, opts LinesOptions) []UncoveredRange {
	if len(lines) == 0 {
		return nil
	}
	sorted := lo.Uniq(lines)
	sort.Ints(sorted)
	instrumented := f.LineNumbers()

	var out []UncoveredRange
	cur := UncoveredRange{File: f.Path, Start: sorted[0], End: sorted[0]}
	for _, n := range sorted[1:] {
		if contiguous(instrumented, cur.End, n, opts) {
			cur.End = n
			continue
		}
		out = append(out, cur)
		cur = UncoveredRange{File: f.Path, Start: n, End: n}
	}
	return append(out, cur)
}

// contiguous reports whether a and b (a < b) can share a range.
func contiguous(instrumented []int, a, b int, opts LinesOptions) bool {
	if opts.MaxGap > 0 && b-a-1 > opts.MaxGap {
		return false
	}
	i := sort.SearchInts(instrumented, a+1)
	return i >= len(instrumented) || instrumented[i] >= b
}
