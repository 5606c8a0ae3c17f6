package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLinesContiguity(t *testing.T) {
	t.Run("non-instrumented gap joins", func(t *testing.T) {
		ds := build(t, fileSpec{path: "a.py", hits: map[int]int{10: 0, 11: 0, 13: 0, 14: 0, 15: 0}})
		sec := BuildLines(ds, LinesOptions{})
		require.Len(t, sec.Files, 1)
		assert.Equal(t, []UncoveredRange{{File: "a.py", Start: 10, End: 15}}, sec.Files[0].Ranges)
	})

	t.Run("covered line splits", func(t *testing.T) {
		ds := build(t, fileSpec{path: "a.py", hits: map[int]int{10: 0, 11: 0, 12: 4, 13: 0, 14: 0, 15: 0}})
		sec := BuildLines(ds, LinesOptions{})
		require.Len(t, sec.Files, 1)
		assert.Equal(t, []UncoveredRange{
			{File: "a.py", Start: 10, End: 11},
			{File: "a.py", Start: 13, End: 15},
		}, sec.Files[0].Ranges)
	})

	t.Run("max gap splits wide holes", func(t *testing.T) {
		ds := build(t, fileSpec{path: "a.py", hits: map[int]int{1: 0, 3: 0, 20: 0}})
		assert.Equal(t, []UncoveredRange{{File: "a.py", Start: 1, End: 20}},
			BuildLines(ds, LinesOptions{}).Ranges())
		assert.Equal(t, []UncoveredRange{
			{File: "a.py", Start: 1, End: 3},
			{File: "a.py", Start: 20, End: 20},
		}, BuildLines(ds, LinesOptions{MaxGap: 5}).Ranges())
	})
}

func TestBuildLinesAllUncoveredFile(t *testing.T) {
	ds := build(t, fileSpec{path: "b.py", hits: map[int]int{1: 0, 2: 0, 3: 0, 4: 0}})

	lines := BuildLines(ds, LinesOptions{})
	require.Len(t, lines.Files, 1)
	assert.Equal(t, "b.py", lines.Files[0].File)
	assert.Equal(t, []UncoveredRange{{File: "b.py", Start: 1, End: 4}}, lines.Files[0].Ranges)
	assert.Equal(t, "1-4", lines.Files[0].Ranges[0].String())

	assert.True(t, BuildBranches(ds, ModeAll).Empty())
}

func TestBuildLinesOrderAndOmission(t *testing.T) {
	ds := build(t,
		fileSpec{path: "z.py", hits: map[int]int{7: 0}},
		fileSpec{path: "a.py", hits: map[int]int{1: 1, 2: 1}},
		fileSpec{path: "m.py", hits: map[int]int{3: 0, 1: 0}},
	)

	sec := BuildLines(ds, LinesOptions{})
	require.Len(t, sec.Files, 2)
	assert.Equal(t, "m.py", sec.Files[0].File)
	assert.Equal(t, "z.py", sec.Files[1].File)
	assert.Equal(t, "1-3", sec.Files[0].Ranges[0].String())
	assert.Equal(t, "7", sec.Files[1].Ranges[0].String())
}

func TestBuildLinesEmptyDataset(t *testing.T) {
	ds := build(t)
	sec := BuildLines(ds, LinesOptions{})
	assert.True(t, sec.Empty())
	assert.NotNil(t, sec.Files)
}
