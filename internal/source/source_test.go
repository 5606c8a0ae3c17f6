package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, body string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestSnippet(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "pkg/a.py", "one\r\ntwo\nthree\nfour\nfive\n")

	c, err := NewCache(dir, 4)
	require.NoError(t, err)

	got, err := c.Snippet("pkg/a.py", 3, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{Number: 2, Text: "two"},
		{Number: 3, Text: "three", InRange: true},
		{Number: 4, Text: "four"},
	}, got)

	got, err = c.Snippet("pkg/a.py", 4, 9, 2)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, 2, got[0].Number)
	assert.Equal(t, "five", got[3].Text)
	assert.True(t, got[3].InRange)
}

func TestCacheIsBounded(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.go", "b.go", "c.go"} {
		writeSource(t, dir, name, "package x\n")
	}

	c, err := NewCache(dir, 2)
	require.NoError(t, err)

	for _, name := range []string{"a.go", "b.go", "c.go"} {
		_, err := c.Lines(name)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

func TestLinesServedFromCache(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.go", "first\n")

	c, err := NewCache(dir, 0)
	require.NoError(t, err)

	lines, err := c.Lines("a.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, lines)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.go")))
	lines, err = c.Lines("a.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, lines)
}

func TestMissingFile(t *testing.T) {
	c, err := NewCache(t.TempDir(), 1)
	require.NoError(t, err)

	_, err = c.Snippet("nope.go", 1, 1, 0)
	assert.Error(t, err)
}
