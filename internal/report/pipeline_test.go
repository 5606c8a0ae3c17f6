package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/section"
)

func writeCobertura(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(`<?xml version="1.0"?>
<coverage><packages><package name="p"><classes>`+body+`</classes></package></packages></coverage>`), 0o644))
	return p
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	unit := writeCobertura(t, dir, "unit.xml",
		`<class filename="src/a.py"><lines><line number="5" hits="0"/><line number="6" hits="0"/></lines></class>
		 <class filename="tests/test_a.py"><lines><line number="1" hits="0"/></lines></class>`)
	integ := writeCobertura(t, dir, "integ.xml",
		`<class filename="src/a.py"><lines><line number="5" hits="3"/></lines></class>`)

	rep, err := Pipeline{
		Paths:    []string{unit, integ},
		Excludes: []string{"tests/"},
		Sections: section.NewSet(section.Lines, section.Summary),
		Version:  "dev",
	}.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{unit, integ}, rep.Meta.Inputs)
	assert.Equal(t, []string{"tests/"}, rep.Meta.Options.Excludes)
	assert.Equal(t, 1, rep.Meta.Files)
	require.Len(t, rep.Sections.Lines.Files, 1)
	assert.Equal(t, "6", rep.Sections.Lines.Files[0].Ranges[0].String())
	assert.Equal(t, 50.0, rep.Sections.Summary.Total.StmtPct)
}

func TestPipelineDiff(t *testing.T) {
	dir := t.TempDir()
	base := writeCobertura(t, dir, "base.xml",
		`<class filename="a.py"><lines><line number="1" hits="0"/><line number="2" hits="1"/></lines></class>`)
	current := writeCobertura(t, dir, "current.xml",
		`<class filename="a.py"><lines><line number="1" hits="1"/><line number="2" hits="0"/></lines></class>`)

	rep, err := Pipeline{
		Paths:     []string{current},
		BasePaths: []string{base},
		Sections:  section.NewSet(section.Diff),
	}.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{base}, rep.Meta.BaseInputs)
	assert.Equal(t, 1, rep.Sections.Diff.NewlyUncoveredLines)
	assert.Equal(t, 1, rep.Sections.Diff.ResolvedLines)
}

func TestPipelineRelativeRoot(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.ToSlash(filepath.Join(dir, "proj", "src", "a.py"))
	doc := writeCobertura(t, dir, "cov.xml",
		`<class filename="`+abs+`"><lines><line number="1" hits="0"/></lines></class>`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "proj"), 0o755))
	t.Chdir(dir)

	for _, root := range []string{"proj", "./proj/", filepath.Join(dir, "proj")} {
		rep, err := Pipeline{
			Paths:    []string{doc},
			Root:     root,
			Sections: section.NewSet(section.Lines),
		}.Run(context.Background())
		require.NoError(t, err, "root %q", root)
		require.Len(t, rep.Sections.Lines.Files, 1)
		assert.Equal(t, "src/a.py", rep.Sections.Lines.Files[0].File, "root %q", root)
		assert.Equal(t, root, rep.Meta.Root)
	}

	t.Chdir(filepath.Join(dir, "proj"))
	rep, err := Pipeline{
		Paths:    []string{doc},
		Root:     ".",
		Sections: section.NewSet(section.Lines),
	}.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "src/a.py", rep.Sections.Lines.Files[0].File)
}

func TestPipelineErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeCobertura(t, dir, "good.xml", `<class filename="a.py"><lines/></class>`)

	tests := []struct {
		name string
		p    Pipeline
		kind error
	}{
		{"diff without base", Pipeline{Paths: []string{good}, Sections: section.NewSet(section.Diff)}, cverr.ErrConfiguration},
		{"no inputs", Pipeline{Sections: section.DefaultSet}, cverr.ErrConfiguration},
		{"bad include", Pipeline{Paths: []string{good}, Includes: []string{"[a-"}, Sections: section.DefaultSet}, cverr.ErrConfiguration},
		{"missing file", Pipeline{Paths: []string{filepath.Join(dir, "nope.xml")}, Sections: section.DefaultSet}, cverr.ErrNoInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Run(context.Background())
			require.Error(t, err)
			assert.True(t, cverr.Is(err, tt.kind), "got %v", err)
		})
	}
}
