package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covgap/internal/coverage"
)

// fileSpec describes a file for tests: hits per line and branch records.
type fileSpec struct {
	path     string
	hits     map[int]int
	branches []coverage.BranchRecord
}

func build(t *testing.T, specs ...fileSpec) *coverage.Dataset {
	t.Helper()
	files := make([]coverage.FileCoverage, 0, len(specs))
	for _, s := range specs {
		fc := coverage.NewFileCoverage(s.path)
		for n, h := range s.hits {
			fc.Lines[n] = coverage.LineRecord{Number: n, Hits: h}
		}
		for _, br := range s.branches {
			fc.Branches[br.Number] = br
		}
		files = append(files, fc)
	}
	ds, err := coverage.Merge(files)
	require.NoError(t, err)
	return ds
}

func ids(line int, taken, missing []coverage.BranchID) coverage.BranchRecord {
	return coverage.BranchRecord{Number: line, Kind: coverage.BranchIDs, Taken: taken, Missing: missing}
}

func counts(line, covered, total int) coverage.BranchRecord {
	return coverage.BranchRecord{Number: line, Kind: coverage.BranchCounts, Covered: covered, Total: total}
}
