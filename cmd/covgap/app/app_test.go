package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cverr "github.com/zjy-dev/covgap/internal/errors"
)

const doc = `<?xml version="1.0"?>
<coverage><packages><package name="p"><classes>
<class filename="src/a.py"><lines>
<line number="1" hits="1"/>
<line number="2" hits="0"/>
<line number="3" hits="0"/>
<line number="4" hits="1" branch="true" condition-coverage="50% (1/2)"/>
</lines></class>
</classes></package></packages></coverage>`

// workspace isolates config lookup from the developer's machine.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coverage.xml"), []byte(doc), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCovgapCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportJSON(t *testing.T) {
	workspace(t)

	out, err := execute(t, "report", "-f", "json", "coverage.xml")
	require.NoError(t, err)

	var rep struct {
		Meta struct {
			Version string `json:"version"`
			Files   int    `json:"files"`
		} `json:"meta"`
		Sections map[string]json.RawMessage `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "test", rep.Meta.Version)
	assert.Equal(t, 1, rep.Meta.Files)
	assert.Contains(t, rep.Sections, "lines")
	assert.Contains(t, rep.Sections, "branches")
	assert.Contains(t, rep.Sections, "summary")
	assert.NotContains(t, rep.Sections, "diff")
}

func TestReportThresholdFailure(t *testing.T) {
	workspace(t)

	out, err := execute(t, "report", "-f", "rg", "-s", "summary", "-t", "stmt_pct>=80", "coverage.xml")
	require.Error(t, err)
	assert.Equal(t, cverr.ExitThreshold, cverr.ExitCode(err))
	assert.Contains(t, out, "src/a.py")
}

func TestReportUsesConfigInputs(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".covgap.yaml"), []byte("inputs: [coverage.xml]\nformat: rg\nsections: [lines]\n"), 0o644))

	out, err := execute(t, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "src/a.py:2-3")
}

func TestReportOutputFile(t *testing.T) {
	dir := workspace(t)
	target := filepath.Join(dir, "report.md")

	out, err := execute(t, "report", "-f", "markdown", "-o", target, "coverage.xml")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "src/a.py")
}

func TestReportGcovrJSONInput(t *testing.T) {
	dir := workspace(t)
	gcov := `{"gcovr/format_version": "0.14", "files": [{"file": "src/demo.cc", "lines": [
		{"line_number": 5, "function_name": "f", "count": 1},
		{"line_number": 6, "function_name": "f", "count": 0},
		{"line_number": 7, "function_name": "f", "count": 0}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gcovr.json"), []byte(gcov), 0o644))

	out, err := execute(t, "report", "-f", "rg", "-s", "lines", "gcovr.json", "coverage.xml")
	require.NoError(t, err)
	assert.Contains(t, out, "src/demo.cc:6-7")
	assert.Contains(t, out, "src/a.py:2-3")
}

func TestDiffCommand(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.xml"), []byte(doc), 0o644))

	out, err := execute(t, "diff", "-f", "json", "--base", "base.xml", "coverage.xml")
	require.NoError(t, err)
	assert.Contains(t, out, `"newly_uncovered_lines": 0`)
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no inputs", []string{"report"}, cverr.ExitUsage},
		{"missing input", []string{"report", "nope.xml"}, cverr.ExitNoInput},
		{"unknown format", []string{"report", "-f", "sarif", "coverage.xml"}, cverr.ExitUsage},
		{"bad threshold", []string{"report", "-t", "stmt_pct>>1", "coverage.xml"}, cverr.ExitUsage},
		{"unknown flag", []string{"report", "--bogus"}, cverr.ExitUsage},
		{"diff without base", []string{"diff", "coverage.xml"}, cverr.ExitUsage},
		{"diff section in report", []string{"report", "-s", "diff", "coverage.xml"}, cverr.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workspace(t)
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, cverr.ExitCode(err), "error: %v", err)
		})
	}
}

func TestMalformedInput(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.xml"), []byte("<coverage><packages>"), 0o644))

	_, err := execute(t, "report", "bad.xml")
	require.Error(t, err)
	assert.Equal(t, cverr.ExitDataErr, cverr.ExitCode(err))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "covgap test\n", out)
}
