package coverage

import (
	"fmt"
	"sort"
)

// LineID uniquely identifies a line of code.
type LineID struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// String returns a string representation of LineID for use in messages.
func (l LineID) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// LineRecord is the statement coverage of a single instrumented line.
type LineRecord struct {
	Number int `json:"line"`
	Hits   int `json:"hits"`
}

// Covered reports whether the line was executed at least once.
func (r LineRecord) Covered() bool {
	return r.Hits > 0
}

// BranchID identifies one outcome of a conditional line, for example "jump:0"
// for a Cobertura condition or "17" for a coverage.py missing-branch target.
type BranchID string

// BranchKind tells how a BranchRecord describes its branches.
type BranchKind int

const (
	// BranchCounts records carry only a covered/total pair.
	BranchCounts BranchKind = iota
	// BranchIDs records enumerate branch identities.
	BranchIDs
)

// BranchStatus classifies the branches of a single line.
type BranchStatus string

const (
	StatusAllCovered BranchStatus = "all-covered"
	StatusPartial    BranchStatus = "partial"
	StatusAllMissing BranchStatus = "all-missing"
)

// BranchRecord is the branch coverage of a single conditional line.
//
// Taken and Missing are sorted and disjoint. Covered and Total hold the
// condition-coverage counts reported by the document, if any.
type BranchRecord struct {
	Number  int        `json:"line"`
	Kind    BranchKind `json:"-"`
	Taken   []BranchID `json:"taken,omitempty"`
	Missing []BranchID `json:"missing,omitempty"`
	Covered int        `json:"covered"`
	Total   int        `json:"total"`
}

// HasIDs reports whether the record enumerates branch identities.
func (b BranchRecord) HasIDs() bool {
	return b.Kind == BranchIDs
}

// Counts returns the effective covered and total branch counts.
//
// For id-based records the total is the larger of the reported total and the
// number of known ids, and every branch not listed as missing is covered.
func (b BranchRecord) Counts() (covered, total int) {
	if b.Kind == BranchCounts {
		return b.Covered, b.Total
	}

	total = b.Total
	if known := len(b.Taken) + len(b.Missing); known > total {
		total = known
	}
	covered = total - len(b.Missing)
	if covered < 0 {
		covered = 0
	}
	return covered, total
}

// Status classifies the line from its effective counts.
func (b BranchRecord) Status() BranchStatus {
	covered, total := b.Counts()
	switch {
	case covered >= total:
		return StatusAllCovered
	case covered == 0:
		return StatusAllMissing
	default:
		return StatusPartial
	}
}

// FileCoverage holds the statement and branch records of one source file.
// Path is the normalized POSIX path relative to the project root.
type FileCoverage struct {
	Path     string               `json:"path"`
	Lines    map[int]LineRecord   `json:"lines"`
	Branches map[int]BranchRecord `json:"branches,omitempty"`
}

// NewFileCoverage creates an empty FileCoverage for path.
func NewFileCoverage(path string) FileCoverage {
	return FileCoverage{
		Path:     path,
		Lines:    make(map[int]LineRecord),
		Branches: make(map[int]BranchRecord),
	}
}

// LineNumbers returns the instrumented line numbers in ascending order.
func (f FileCoverage) LineNumbers() []int {
	return sortedKeys(f.Lines)
}

// BranchLines returns the line numbers carrying branch data in ascending order.
func (f FileCoverage) BranchLines() []int {
	return sortedKeys(f.Branches)
}

// IsInstrumented reports whether line has a statement record.
func (f FileCoverage) IsInstrumented(line int) bool {
	_, ok := f.Lines[line]
	return ok
}

// UncoveredLines returns the instrumented lines with zero hits, ascending.
func (f FileCoverage) UncoveredLines() []int {
	var out []int
	for _, n := range f.LineNumbers() {
		if !f.Lines[n].Covered() {
			out = append(out, n)
		}
	}
	return out
}

// CoveredCount returns the number of instrumented lines with hits.
func (f FileCoverage) CoveredCount() int {
	n := 0
	for _, r := range f.Lines {
		if r.Covered() {
			n++
		}
	}
	return n
}

// Dataset is the merged coverage of one or more documents.
// A Dataset is never mutated after construction.
type Dataset struct {
	files map[string]FileCoverage
	paths []string
}

func newDataset(files map[string]FileCoverage) *Dataset {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return &Dataset{files: files, paths: paths}
}

// Len returns the number of files in the dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.paths)
}

// Empty reports whether the dataset holds no files. An empty dataset is a
// valid "nothing to report" state.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// Paths returns the file paths sorted byte-wise ascending.
func (d *Dataset) Paths() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.paths))
	copy(out, d.paths)
	return out
}

// Files returns the files sorted by path.
func (d *Dataset) Files() []FileCoverage {
	if d == nil {
		return nil
	}
	out := make([]FileCoverage, 0, len(d.paths))
	for _, p := range d.paths {
		out = append(out, d.files[p])
	}
	return out
}

// File returns the coverage of path.
func (d *Dataset) File(path string) (FileCoverage, bool) {
	if d == nil {
		return FileCoverage{}, false
	}
	f, ok := d.files[path]
	return f, ok
}

// Subset returns a dataset view holding only the files for which keep returns
// true. File records are shared with the receiver.
func (d *Dataset) Subset(keep func(path string) bool) *Dataset {
	files := make(map[string]FileCoverage)
	if d != nil {
		for _, p := range d.paths {
			if keep(p) {
				files[p] = d.files[p]
			}
		}
	}
	return newDataset(files)
}

// UncoveredSet returns every uncovered (path, line) key of the dataset.
func (d *Dataset) UncoveredSet() map[LineID]struct{} {
	out := make(map[LineID]struct{})
	for _, f := range d.Files() {
		for _, n := range f.UncoveredLines() {
			out[LineID{File: f.Path, Line: n}] = struct{}{}
		}
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
