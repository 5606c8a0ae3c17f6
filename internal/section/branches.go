package section

import (
	"strings"

	"github.com/zjy-dev/covgap/internal/coverage"
	cverr "github.com/zjy-dev/covgap/internal/errors"
)

// BranchMode selects which branch lines a Branches section reports.
type BranchMode string

const (
	// ModeMissingOnly reports every line with a missing branch and hides the
	// taken ids. Count-only lines carry no ids, so they keep their counts.
	ModeMissingOnly BranchMode = "missing-only"
	// ModePartial reports every line with at least one missing branch.
	ModePartial BranchMode = "partial"
	// ModeAll reports every line with branch data.
	ModeAll BranchMode = "all"
)

// DefaultBranchMode is used when no mode is configured.
const DefaultBranchMode = ModePartial

// ParseBranchMode parses a mode name. The empty string selects the default.
func ParseBranchMode(s string) (BranchMode, error) {
	switch m := BranchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DefaultBranchMode, nil
	case ModeMissingOnly, ModePartial, ModeAll:
		return m, nil
	case "missing":
		return ModeMissingOnly, nil
	default:
		return "", cverr.ConfigurationWithHint(
			"valid branch modes: missing-only, partial, all",
			"unknown branch mode %q", s)
	}
}

// BranchLine is the branch state of one conditional line.
type BranchLine struct {
	Line    int                   `json:"line" yaml:"line"`
	Status  coverage.BranchStatus `json:"status" yaml:"status"`
	Covered int                   `json:"covered" yaml:"covered"`
	Total   int                   `json:"total" yaml:"total"`
	Taken   []coverage.BranchID   `json:"taken,omitempty" yaml:"taken,omitempty"`
	Missing []coverage.BranchID   `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// FileBranches holds the reported branch lines of one file.
type FileBranches struct {
	File  string       `json:"file" yaml:"file"`
	Lines []BranchLine `json:"lines" yaml:"lines"`
}

// BranchesSection lists branch lines per file.
type BranchesSection struct {
	Mode  BranchMode     `json:"mode" yaml:"mode"`
	Files []FileBranches `json:"files" yaml:"files"`
}

// Empty reports whether no branch line was selected.
func (s BranchesSection) Empty() bool {
	return len(s.Files) == 0
}

// BuildBranches reports the branch lines of ds selected by mode. Files with no
// selected line are omitted.
func BuildBranches(ds *coverage.Dataset, mode BranchMode) BranchesSection {
	if mode == "" {
		mode = DefaultBranchMode
	}
	sec := BranchesSection{Mode: mode, Files: []FileBranches{}}

	for _, f := range ds.Files() {
		var lines []BranchLine
		for _, n := range f.BranchLines() {
			if bl, ok := selectBranch(f.Branches[n], mode); ok {
				lines = append(lines, bl)
			}
		}
		if len(lines) > 0 {
			sec.Files = append(sec.Files, FileBranches{File: f.Path, Lines: lines})
		}
	}
	return sec
}

func selectBranch(br coverage.BranchRecord, mode BranchMode) (BranchLine, bool) {
	covered, total := br.Counts()
	bl := BranchLine{
		Line:    br.Number,
		Status:  br.Status(),
		Covered: covered,
		Total:   total,
		Taken:   br.Taken,
		Missing: br.Missing,
	}

	switch mode {
	case ModeAll:
		return bl, true
	case ModeMissingOnly:
		bl.Taken = nil
		return bl, bl.Status != coverage.StatusAllCovered
	default:
		return bl, bl.Status != coverage.StatusAllCovered
	}
}
