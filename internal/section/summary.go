package section

import (
	"path"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/zjy-dev/covgap/internal/coverage"
	cverr "github.com/zjy-dev/covgap/internal/errors"
)

// TotalLabel is the File value of the aggregate row.
const TotalLabel = "TOTAL"

// tinyStatements is the largest statement count of a file flagged as tiny.
const tinyStatements = 3

// SummaryRow holds the coverage statistics of one file, a directory group or
// the whole dataset.
type SummaryRow struct {
	File              string `json:"file" yaml:"file"`
	StatementsTotal   int    `json:"statements_total" yaml:"statements_total"`
	StatementsCovered int    `json:"statements_covered" yaml:"statements_covered"`
	BranchesTotal     int    `json:"branches_total" yaml:"branches_total"`
	BranchesCovered   int    `json:"branches_covered" yaml:"branches_covered"`

	StmtPct   float64 `json:"stmt_pct" yaml:"stmt_pct"`
	BranchPct float64 `json:"branch_pct" yaml:"branch_pct"`
	Misses    int     `json:"misses" yaml:"misses"`

	UncoveredLines  []int            `json:"uncovered_lines,omitempty" yaml:"uncovered_lines,omitempty"`
	UncoveredRanges []UncoveredRange `json:"uncovered_ranges,omitempty" yaml:"uncovered_ranges,omitempty"`
	Untested        bool             `json:"untested,omitempty" yaml:"untested,omitempty"`
	Tiny            bool             `json:"tiny,omitempty" yaml:"tiny,omitempty"`
}

// MissingStatements returns the number of uncovered statements.
func (r SummaryRow) MissingStatements() int {
	return r.StatementsTotal - r.StatementsCovered
}

// MissingBranches returns the number of uncovered branches.
func (r SummaryRow) MissingBranches() int {
	return r.BranchesTotal - r.BranchesCovered
}

// Percent returns covered as a percentage of total, or 0 when total is 0.
func Percent(covered, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(covered) * 100 / float64(total)
}

// derive fills the fields computed from the counts.
func (r *SummaryRow) derive() {
	r.StmtPct = Percent(r.StatementsCovered, r.StatementsTotal)
	r.BranchPct = Percent(r.BranchesCovered, r.BranchesTotal)
	r.Misses = r.MissingStatements() + r.MissingBranches()
	r.Untested = r.StatementsTotal > 0 && r.StatementsCovered == 0
	r.Tiny = r.StatementsTotal > 0 && r.StatementsTotal <= tinyStatements
}

func (r *SummaryRow) add(o SummaryRow) {
	r.StatementsTotal += o.StatementsTotal
	r.StatementsCovered += o.StatementsCovered
	r.BranchesTotal += o.BranchesTotal
	r.BranchesCovered += o.BranchesCovered
}

// FileRow computes the summary row of one file.
func FileRow(f coverage.FileCoverage, opts LinesOptions) SummaryRow {
	row := SummaryRow{
		File:              f.Path,
		StatementsTotal:   len(f.Lines),
		StatementsCovered: f.CoveredCount(),
		UncoveredLines:    f.UncoveredLines(),
	}
	for _, br := range f.Branches {
		covered, total := br.Counts()
		row.BranchesCovered += covered
		row.BranchesTotal += total
	}
	row.UncoveredRanges = GroupRanges(f, row.UncoveredLines, opts)
	row.derive()
	return row
}

// Aggregate sums rows into one row labelled label.
func Aggregate(label string, rows []SummaryRow) SummaryRow {
	agg := SummaryRow{
		File:              label,
		StatementsTotal:   lo.SumBy(rows, func(r SummaryRow) int { return r.StatementsTotal }),
		StatementsCovered: lo.SumBy(rows, func(r SummaryRow) int { return r.StatementsCovered }),
		BranchesTotal:     lo.SumBy(rows, func(r SummaryRow) int { return r.BranchesTotal }),
		BranchesCovered:   lo.SumBy(rows, func(r SummaryRow) int { return r.BranchesCovered }),
	}
	agg.derive()
	return agg
}

// SummarySort names the ordering of summary rows.
type SummarySort string

const (
	SortFile           SummarySort = "file"
	SortStmtPct        SummarySort = "stmt_pct"
	SortBranchPct      SummarySort = "branch_pct"
	SortMisses         SummarySort = "misses"
	SortMissStmt       SummarySort = "miss_stmt"
	SortMissBranch     SummarySort = "miss_br"
	SortUncoveredLines SummarySort = "uncovered_lines"
)

var sortAliases = map[string]SummarySort{
	"":                SortFile,
	"file":            SortFile,
	"path":            SortFile,
	"name":            SortFile,
	"stmt_pct":        SortStmtPct,
	"stmt":            SortStmtPct,
	"branch_pct":      SortBranchPct,
	"br":              SortBranchPct,
	"misses":          SortMisses,
	"miss":            SortMisses,
	"miss_stmt":       SortMissStmt,
	"miss_br":         SortMissBranch,
	"uncovered_lines": SortUncoveredLines,
}

// ParseSummarySort parses a sort key. The empty string sorts by file.
func ParseSummarySort(s string) (SummarySort, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	if sk, ok := sortAliases[key]; ok {
		return sk, nil
	}
	return "", cverr.ConfigurationWithHint(
		"valid sort keys: file, stmt_pct, branch_pct, misses, miss_stmt, miss_br, uncovered_lines",
		"unknown summary sort %q", s)
}

// less orders rows by key, worst coverage first for percentages and largest
// first for counts. Ties fall through to the caller.
func (k SummarySort) less(a, b SummaryRow) (less, decided bool) {
	switch k {
	case SortStmtPct:
		return a.StmtPct < b.StmtPct, a.StmtPct != b.StmtPct
	case SortBranchPct:
		return a.BranchPct < b.BranchPct, a.BranchPct != b.BranchPct
	case SortMisses:
		return a.Misses > b.Misses, a.Misses != b.Misses
	case SortMissStmt:
		am, bm := a.MissingStatements(), b.MissingStatements()
		return am > bm, am != bm
	case SortMissBranch:
		am, bm := a.MissingBranches(), b.MissingBranches()
		return am > bm, am != bm
	case SortUncoveredLines:
		am, bm := len(a.UncoveredLines), len(b.UncoveredLines)
		return am > bm, am != bm
	default:
		return false, false
	}
}

// SortRows sorts rows in place by key, breaking ties by path ascending.
func SortRows(rows []SummaryRow, key SummarySort) {
	sort.SliceStable(rows, func(i, j int) bool {
		if less, decided := key.less(rows[i], rows[j]); decided {
			return less
		}
		return rows[i].File < rows[j].File
	})
}

// SummarySection holds one row per file and the aggregate over all files.
type SummarySection struct {
	Sort  SummarySort  `json:"sort" yaml:"sort"`
	Rows  []SummaryRow `json:"rows" yaml:"rows"`
	Total SummaryRow   `json:"total" yaml:"total"`
}

// BuildSummary computes per-file rows sorted by key plus the aggregate row.
func BuildSummary(ds *coverage.Dataset, key SummarySort) SummarySection {
	return BuildSummaryWith(ds, key, LinesOptions{})
}

// BuildSummaryWith is BuildSummary with explicit range grouping options for
// the rows' UncoveredRanges.
func BuildSummaryWith(ds *coverage.Dataset, key SummarySort, opts LinesOptions) SummarySection {
	if key == "" {
		key = SortFile
	}
	rows := lo.Map(ds.Files(), func(f coverage.FileCoverage, _ int) SummaryRow {
		return FileRow(f, opts)
	})
	SortRows(rows, key)
	return SummarySection{
		Sort:  key,
		Rows:  rows,
		Total: Aggregate(TotalLabel, rows),
	}
}

// Groups rolls the file rows up into directories truncated to depth path
// segments. Files shallower than depth are grouped under their own directory,
// files at the root under ".". Groups are sorted by the section's key.
func (s SummarySection) Groups(depth int) []SummaryRow {
	if depth < 1 {
		depth = 1
	}
	byDir := make(map[string][]SummaryRow)
	for _, r := range s.Rows {
		dir := groupKey(r.File, depth)
		byDir[dir] = append(byDir[dir], r)
	}

	out := make([]SummaryRow, 0, len(byDir))
	for dir, rows := range byDir {
		out = append(out, Aggregate(dir, rows))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	SortRows(out, s.Sort)
	return out
}

func groupKey(file string, depth int) string {
	dir := path.Dir(file)
	if dir == "." || dir == "/" {
		return "."
	}
	parts := strings.Split(strings.TrimPrefix(dir, "/"), "/")
	if len(parts) > depth {
		parts = parts[:depth]
	}
	key := strings.Join(parts, "/")
	if strings.HasPrefix(dir, "/") {
		key = "/" + key
	}
	return key
}
