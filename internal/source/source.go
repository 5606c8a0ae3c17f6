// Package source reads source files for report snippets through a bounded
// least-recently-used cache.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of files kept in memory.
const DefaultCacheSize = 128

// Line is one source line of a snippet.
type Line struct {
	Number int    `json:"line" yaml:"line"`
	Text   string `json:"code" yaml:"code"`
	// InRange is false for context lines around the requested range.
	InRange bool `json:"in_range" yaml:"in_range"`
}

// Cache loads files relative to a root directory and keeps the most recently
// used ones in memory. It is safe for concurrent use.
type Cache struct {
	root  string
	files *lru.Cache[string, []string]
}

// NewCache creates a cache of at most size files resolved against root.
func NewCache(root string, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	files, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create source cache: %w", err)
	}
	return &Cache{root: root, files: files}, nil
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	return c.files.Len()
}

// Lines returns the lines of path, without line terminators.
func (c *Cache) Lines(path string) ([]string, error) {
	if lines, ok := c.files.Get(path); ok {
		return lines, nil
	}

	data, err := os.ReadFile(c.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read source %s: %w", path, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")

	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	c.files.Add(path, lines)
	return lines, nil
}

// Snippet returns lines start..end of path with up to context lines on each
// side. Lines past the end of the file are dropped.
func (c *Cache) Snippet(path string, start, end, context int) ([]Line, error) {
	lines, err := c.Lines(path)
	if err != nil {
		return nil, err
	}
	if context < 0 {
		context = 0
	}

	from := max(1, start-context)
	to := min(len(lines), end+context)

	var out []Line
	for n := from; n <= to; n++ {
		out = append(out, Line{
			Number:  n,
			Text:    lines[n-1],
			InRange: n >= start && n <= end,
		})
	}
	return out, nil
}

func (c *Cache) resolve(path string) string {
	p := filepath.FromSlash(path)
	if filepath.IsAbs(p) || c.root == "" {
		return p
	}
	return filepath.Join(c.root, p)
}
