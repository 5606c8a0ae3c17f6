// Package filter restricts a coverage dataset to the files selected by
// include and exclude patterns.
package filter

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/zjy-dev/covgap/internal/coverage"
	cverr "github.com/zjy-dev/covgap/internal/errors"
)

// Filter selects file paths. Includes are doublestar globs anchored like
// .gitignore patterns; excludes follow .gitignore rules, including "!"
// negation. An excluded path is dropped even
// when an include selects it.
type Filter struct {
	includes []string
	excludes []string
	ignore   *ignore.GitIgnore
}

// New compiles the include and exclude patterns.
func New(includes, excludes []string) (*Filter, error) {
	f := &Filter{}

	for _, raw := range includes {
		pat := normalize(raw)
		if pat == "" {
			continue
		}
		if !doublestar.ValidatePattern(pat) {
			return nil, cverr.ConfigurationWithHint(
				"include patterns use doublestar syntax, e.g. src/** or **/*.py",
				"invalid include pattern %q", raw)
		}
		f.includes = append(f.includes, pat)
	}

	for _, raw := range excludes {
		if pat := normalize(raw); pat != "" {
			f.excludes = append(f.excludes, pat)
		}
	}
	if len(f.excludes) > 0 {
		f.ignore = ignore.CompileIgnoreLines(f.excludes...)
	}

	return f, nil
}

// Includes returns the normalized include patterns.
func (f *Filter) Includes() []string { return append([]string(nil), f.includes...) }

// Excludes returns the normalized exclude patterns.
func (f *Filter) Excludes() []string { return append([]string(nil), f.excludes...) }

// Match reports whether the POSIX path p is selected.
func (f *Filter) Match(p string) bool {
	if f == nil {
		return true
	}
	p = normalize(p)
	if f.ignore != nil && f.ignore.MatchesPath(p) {
		return false
	}
	if len(f.includes) == 0 {
		return true
	}
	for _, pat := range f.includes {
		if matchInclude(pat, p) {
			return true
		}
	}
	return false
}

// Apply returns the subset of ds selected by the filter. An empty result is
// valid.
func (f *Filter) Apply(ds *coverage.Dataset) *coverage.Dataset {
	return ds.Subset(f.Match)
}

// matchInclude matches p against pat, treating pat also as a directory so that
// "src" selects everything below src/. As in .gitignore, a pattern without a
// slash matches at any depth: "*.py" selects src/a.py.
func matchInclude(pat, p string) bool {
	dir := strings.TrimSuffix(pat, "/")
	candidates := []string{pat, dir + "/**"}
	if !strings.Contains(dir, "/") && !strings.HasPrefix(dir, "**") {
		candidates = append(candidates, "**/"+dir, "**/"+dir+"/**")
	}
	for _, c := range candidates {
		if ok, _ := doublestar.Match(c, p); ok {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	p = strings.TrimSpace(coverage.ToSlash(p))
	if p == "" {
		return ""
	}
	trailing := strings.HasSuffix(p, "/")
	neg := strings.HasPrefix(p, "!")
	if neg {
		p = p[1:]
	}
	p = path.Clean(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "." {
		p = "**"
	}
	if trailing && !strings.HasSuffix(p, "/") && p != "**" {
		p += "/"
	}
	if neg {
		p = "!" + p
	}
	return p
}
