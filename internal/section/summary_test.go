package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covgap/internal/coverage"
	cverr "github.com/zjy-dev/covgap/internal/errors"
)

func TestBuildSummaryRows(t *testing.T) {
	ds := build(t,
		fileSpec{
			path:     "pkg/a.py",
			hits:     map[int]int{1: 1, 2: 0, 3: 1, 4: 1},
			branches: []coverage.BranchRecord{ids(3, []coverage.BranchID{"4"}, []coverage.BranchID{"6"})},
		},
		fileSpec{path: "pkg/b.py", hits: map[int]int{1: 0, 2: 0}},
		fileSpec{path: "empty.py"},
	)

	sec := BuildSummary(ds, SortFile)
	require.Len(t, sec.Rows, 3)
	assert.Equal(t, []string{"empty.py", "pkg/a.py", "pkg/b.py"},
		[]string{sec.Rows[0].File, sec.Rows[1].File, sec.Rows[2].File})

	empty := sec.Rows[0]
	assert.Equal(t, 0.0, empty.StmtPct)
	assert.Equal(t, 0.0, empty.BranchPct)
	assert.False(t, empty.Untested)
	assert.False(t, empty.Tiny)

	a := sec.Rows[1]
	assert.Equal(t, 4, a.StatementsTotal)
	assert.Equal(t, 3, a.StatementsCovered)
	assert.Equal(t, 75.0, a.StmtPct)
	assert.Equal(t, 50.0, a.BranchPct)
	assert.Equal(t, 2, a.Misses)
	assert.Equal(t, []int{2}, a.UncoveredLines)

	b := sec.Rows[2]
	assert.True(t, b.Untested)
	assert.True(t, b.Tiny)
	assert.Equal(t, []UncoveredRange{{File: "pkg/b.py", Start: 1, End: 2}}, b.UncoveredRanges)

	total := sec.Total
	assert.Equal(t, TotalLabel, total.File)
	assert.Equal(t, 6, total.StatementsTotal)
	assert.Equal(t, 3, total.StatementsCovered)
	assert.Equal(t, 50.0, total.StmtPct)
	assert.Equal(t, 4, total.Misses)
}

func TestBuildSummarySort(t *testing.T) {
	ds := build(t,
		fileSpec{path: "c.py", hits: map[int]int{1: 1, 2: 0}},
		fileSpec{path: "a.py", hits: map[int]int{1: 1, 2: 1, 3: 1, 4: 0}},
		fileSpec{path: "b.py", hits: map[int]int{1: 1, 2: 0}},
		fileSpec{path: "d.py", hits: map[int]int{1: 0, 2: 0, 3: 0}},
	)

	files := func(sec SummarySection) []string {
		var out []string
		for _, r := range sec.Rows {
			out = append(out, r.File)
		}
		return out
	}

	tests := []struct {
		key  SummarySort
		want []string
	}{
		{SortFile, []string{"a.py", "b.py", "c.py", "d.py"}},
		{SortStmtPct, []string{"d.py", "b.py", "c.py", "a.py"}},
		{SortMisses, []string{"d.py", "a.py", "b.py", "c.py"}},
		{SortMissStmt, []string{"d.py", "a.py", "b.py", "c.py"}},
		{SortUncoveredLines, []string{"d.py", "a.py", "b.py", "c.py"}},
		{SortBranchPct, []string{"a.py", "b.py", "c.py", "d.py"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, files(BuildSummary(ds, tt.key)))
		})
	}
}

func TestSummaryGroups(t *testing.T) {
	ds := build(t,
		fileSpec{path: "src/app/a.py", hits: map[int]int{1: 1, 2: 0}},
		fileSpec{path: "src/app/sub/b.py", hits: map[int]int{1: 1, 2: 1}},
		fileSpec{path: "src/lib/c.py", hits: map[int]int{1: 0}},
		fileSpec{path: "setup.py", hits: map[int]int{1: 1}},
	)
	sec := BuildSummary(ds, SortFile)

	groups := sec.Groups(2)
	require.Len(t, groups, 3)
	assert.Equal(t, ".", groups[0].File)
	assert.Equal(t, "src/app", groups[1].File)
	assert.Equal(t, 4, groups[1].StatementsTotal)
	assert.Equal(t, 75.0, groups[1].StmtPct)
	assert.Equal(t, "src/lib", groups[2].File)

	top := sec.Groups(1)
	require.Len(t, top, 2)
	assert.Equal(t, "src", top[1].File)
	assert.Equal(t, 5, top[1].StatementsTotal)
}

func TestPercentExactBoundary(t *testing.T) {
	assert.Equal(t, 90.0, Percent(9, 10))
	assert.Equal(t, 90.0, Percent(81, 90))
	assert.Equal(t, 0.0, Percent(0, 0))
}

func TestParseSummarySort(t *testing.T) {
	k, err := ParseSummarySort("miss-br")
	require.NoError(t, err)
	assert.Equal(t, SortMissBranch, k)

	k, err = ParseSummarySort("")
	require.NoError(t, err)
	assert.Equal(t, SortFile, k)

	_, err = ParseSummarySort("bogus")
	assert.True(t, cverr.Is(err, cverr.ErrConfiguration))
}

func TestBuildSummaryDeterministic(t *testing.T) {
	ds := build(t,
		fileSpec{path: "x/a.py", hits: map[int]int{1: 0, 2: 1}},
		fileSpec{path: "y/b.py", hits: map[int]int{1: 0, 2: 1}},
		fileSpec{path: "x/c.py", hits: map[int]int{1: 0, 2: 1}},
	)
	first := BuildSummary(ds, SortStmtPct)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, BuildSummary(ds, SortStmtPct))
	}
	assert.Equal(t, "x/a.py", first.Rows[0].File)
	assert.Equal(t, "x/c.py", first.Rows[1].File)
}
