// Package section derives the report views of a coverage dataset: uncovered
// line ranges, uncovered branches, summary statistics and the diff between two
// datasets. Every builder is pure and deterministic: files are ordered by path
// and lines ascending.
package section

import (
	"strings"

	cverr "github.com/zjy-dev/covgap/internal/errors"
)

// Kind names one report section.
type Kind int

const (
	Lines Kind = iota
	Branches
	Summary
	Diff

	numKinds
)

var kindNames = [numKinds]string{
	Lines:    "lines",
	Branches: "branches",
	Summary:  "summary",
	Diff:     "diff",
}

// String returns the lower-case section name.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind parses a section name.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k := Kind(0); k < numKinds; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return 0, cverr.ConfigurationWithHint(
		"valid sections: lines, branches, summary, diff, all",
		"unknown section %q", s)
}

// Set is a set of section kinds.
type Set uint8

// DefaultSet holds the sections that need no comparison dataset.
const DefaultSet = Set(1<<Lines | 1<<Branches | 1<<Summary)

// NewSet returns a set holding kinds.
func NewSet(kinds ...Kind) Set {
	var s Set
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns s plus k.
func (s Set) With(k Kind) Set {
	if k < 0 || k >= numKinds {
		return s
	}
	return s | 1<<k
}

// Has reports whether k is in s.
func (s Set) Has(k Kind) bool {
	return k >= 0 && k < numKinds && s&(1<<k) != 0
}

// Empty reports whether no section is selected.
func (s Set) Empty() bool {
	return s == 0
}

// Kinds returns the members of s in canonical order.
func (s Set) Kinds() []Kind {
	var out []Kind
	for k := Kind(0); k < numKinds; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// String returns the comma separated section names.
func (s Set) String() string {
	names := make([]string, 0, numKinds)
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ",")
}

// ParseSet parses section names. Each element may itself be a comma separated
// list. "all" selects lines, branches and summary; diff is only selected by
// name since it needs a base dataset.
func ParseSet(names []string) (Set, error) {
	var s Set
	for _, raw := range names {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, "all") {
				s |= DefaultSet
				continue
			}
			k, err := ParseKind(part)
			if err != nil {
				return 0, err
			}
			s = s.With(k)
		}
	}
	return s, nil
}
