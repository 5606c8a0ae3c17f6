package coverage

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/logger"
)

// missingMode selects how missing branch ids of two records combine.
type missingMode int

const (
	// unionMissing is used for duplicate entries inside one document.
	unionMissing missingMode = iota
	// intersectMissing is used across documents: a branch stays missing only
	// if every document reporting ids for the line lists it as missing.
	intersectMissing
)

type branchAcc struct {
	kind    BranchKind
	covered int
	total   int
	taken   map[BranchID]struct{}
	missing map[BranchID]struct{} // nil until the first id-based record
	// complete is set when another document reports the line fully covered
	// with counts only; every known id is then taken.
	complete bool
}

type fileAcc struct {
	lines    map[int]LineRecord
	branches map[int]*branchAcc
}

// accumulator folds line and branch records into per-file state. Every
// operation on it is commutative and associative.
type accumulator struct {
	byPath map[string]*fileAcc
}

func newAccumulator() *accumulator {
	return &accumulator{byPath: make(map[string]*fileAcc)}
}

func (a *accumulator) touch(path string) *fileAcc {
	f, ok := a.byPath[path]
	if !ok {
		f = &fileAcc{
			lines:    make(map[int]LineRecord),
			branches: make(map[int]*branchAcc),
		}
		a.byPath[path] = f
	}
	return f
}

func (a *accumulator) addLine(path string, rec LineRecord) {
	f := a.touch(path)
	if prev, ok := f.lines[rec.Number]; ok && prev.Hits >= rec.Hits {
		return
	}
	f.lines[rec.Number] = rec
}

func (a *accumulator) addBranch(path string, br BranchRecord, mode missingMode) {
	f := a.touch(path)
	acc, ok := f.branches[br.Number]
	if !ok {
		acc = &branchAcc{kind: BranchCounts, taken: make(map[BranchID]struct{})}
		f.branches[br.Number] = acc
	}

	acc.covered = max(acc.covered, br.Covered)
	acc.total = max(acc.total, br.Total)

	if br.Kind != BranchIDs {
		if mode == intersectMissing && br.Total > 0 && br.Covered == br.Total {
			acc.complete = true
		}
		return
	}
	acc.kind = BranchIDs
	for _, id := range br.Taken {
		acc.taken[id] = struct{}{}
	}

	incoming := make(map[BranchID]struct{}, len(br.Missing))
	for _, id := range br.Missing {
		incoming[id] = struct{}{}
	}
	switch {
	case acc.missing == nil:
		acc.missing = incoming
	case mode == unionMissing:
		for id := range incoming {
			acc.missing[id] = struct{}{}
		}
	default:
		for id := range acc.missing {
			if _, ok := incoming[id]; !ok {
				delete(acc.missing, id)
			}
		}
	}
}

func (a *accumulator) addFile(f FileCoverage, mode missingMode) {
	a.touch(f.Path)
	for _, rec := range f.Lines {
		a.addLine(f.Path, rec)
	}
	for _, br := range f.Branches {
		a.addBranch(f.Path, br, mode)
	}
}

// files materializes the accumulated state sorted by path.
func (a *accumulator) files() []FileCoverage {
	paths := lo.Keys(a.byPath)
	sort.Strings(paths)

	out := make([]FileCoverage, 0, len(paths))
	for _, p := range paths {
		out = append(out, a.byPath[p].build(p))
	}
	return out
}

func (f *fileAcc) build(path string) FileCoverage {
	fc := NewFileCoverage(path)
	for n, rec := range f.lines {
		fc.Lines[n] = rec
	}
	for n, acc := range f.branches {
		br := BranchRecord{
			Number:  n,
			Kind:    acc.kind,
			Covered: acc.covered,
			Total:   acc.total,
		}
		if acc.kind == BranchIDs {
			taken := make(map[BranchID]struct{}, len(acc.taken)+len(acc.missing))
			for id := range acc.taken {
				taken[id] = struct{}{}
			}
			missing := make(map[BranchID]struct{}, len(acc.missing))
			for id := range acc.missing {
				if _, ok := taken[id]; ok {
					continue
				}
				if acc.complete {
					taken[id] = struct{}{}
				} else {
					missing[id] = struct{}{}
				}
			}
			br.Taken = sortedIDs(taken)
			br.Missing = sortedIDs(missing)
		}
		fc.Branches[n] = br
	}
	return fc
}

// Merge combines the files of any number of parsed documents into one
// Dataset. The result does not depend on document order.
//
// A line is covered if any document reports hits for it. Branch ids taken in
// any document are taken; an id stays missing only when it is missing in every
// document that mentions the line. A document with count-only data mentions
// the line's ids as missing unless it reports every branch covered, which
// makes all known ids taken. Count-only branch data merges by maximum covered
// and maximum total, never by sum.
func Merge(docs ...[]FileCoverage) (*Dataset, error) {
	global := newAccumulator()

	for i, doc := range docs {
		local := newAccumulator()
		for _, f := range doc {
			if err := validate(f); err != nil {
				return nil, cverr.Malformed("document %d: %v", i+1, err)
			}
			local.addFile(f, unionMissing)
		}
		for _, f := range local.files() {
			global.addFile(f, intersectMissing)
		}
	}

	files := make(map[string]FileCoverage, len(global.byPath))
	for _, f := range global.files() {
		files[f.Path] = f
	}

	logger.Debug("merged %d document(s) into %d file(s)", len(docs), len(files))
	return newDataset(files), nil
}

// validate rejects records that cannot be merged safely.
func validate(f FileCoverage) error {
	if f.Path == "" {
		return errorf("file with empty path")
	}
	for n, rec := range f.Lines {
		if n < 1 || rec.Number != n {
			return errorf("%s: line key %d does not match record line %d", f.Path, n, rec.Number)
		}
		if rec.Hits < 0 {
			return errorf("%s:%d: negative hits %d", f.Path, n, rec.Hits)
		}
	}
	for n, br := range f.Branches {
		if n < 1 || br.Number != n {
			return errorf("%s: branch key %d does not match record line %d", f.Path, n, br.Number)
		}
		if br.Covered < 0 || br.Total < 0 || br.Covered > br.Total {
			return errorf("%s:%d: inconsistent branch counts %d/%d", f.Path, n, br.Covered, br.Total)
		}
		if br.Kind == BranchCounts && (len(br.Taken) > 0 || len(br.Missing) > 0) {
			return errorf("%s:%d: count-only branch record carries branch ids", f.Path, n)
		}
		taken := make(map[BranchID]struct{}, len(br.Taken))
		for _, id := range br.Taken {
			taken[id] = struct{}{}
		}
		for _, id := range br.Missing {
			if _, ok := taken[id]; ok {
				return errorf("%s:%d: branch %s is both taken and missing", f.Path, n, id)
			}
		}
	}
	return nil
}

func sortedIDs(set map[BranchID]struct{}) []BranchID {
	if len(set) == 0 {
		return nil
	}
	ids := lo.Keys(set)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
