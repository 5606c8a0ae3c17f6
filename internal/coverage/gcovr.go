package coverage

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/zjy-dev/gcovr-json-util/v2/pkg/gcovr"

	cverr "github.com/zjy-dev/covgap/internal/errors"
)

// isGcovrJSON reports whether path names a gcovr JSON report rather than a
// Cobertura document.
func isGcovrJSON(path string) bool {
	return strings.EqualFold(pathExt(path), ".json")
}

func pathExt(p string) string {
	p = ToSlash(p)
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.LastIndexByte(p, '.'); i > 0 {
		return p[i:]
	}
	return ""
}

// ParseGcovrFile reads a gcovr JSON report (gcovr --json) with
// gcovr-json-util and converts it with FromGcovr.
func ParseGcovrFile(path string, opts ParseOptions) ([]FileCoverage, error) {
	report, err := gcovr.ParseReport(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, cverr.NoInput(err, path)
		}
		return nil, cverr.MarkMalformed(err, path+": invalid gcovr JSON")
	}
	if opts.Name == "" {
		opts.Name = path
	}
	return FromGcovr(report, opts)
}

// FromGcovr converts a parsed gcovr JSON report into FileCoverage values.
//
// gcovr lists a line once per function it belongs to, so repeated entries
// (inlined or template code) reconcile by maximum count like duplicate
// Cobertura lines. Branch data is not carried by the report.
func FromGcovr(report *gcovr.GcovrReport, opts ParseOptions) ([]FileCoverage, error) {
	if report == nil {
		return []FileCoverage{}, nil
	}
	name := opts.Name
	if name == "" {
		name = "<input>"
	}
	if report.FormatVersion == "" {
		return nil, cverr.Malformed("%s: not a gcovr JSON report (no gcovr/format_version)", name)
	}

	acc := newAccumulator()
	for _, gcovrFile := range report.Files {
		if strings.TrimSpace(gcovrFile.FilePath) == "" {
			return nil, cverr.Malformed("%s: file entry without a path", name)
		}
		path := NormalizePath(gcovrFile.FilePath, nil, opts.Root)
		acc.touch(path)

		for _, line := range gcovrFile.Lines {
			if line.LineNumber < 1 || line.Count < 0 {
				return nil, cverr.Malformed("%s: %s: invalid line %d with count %d",
					name, path, line.LineNumber, line.Count)
			}
			acc.addLine(path, LineRecord{Number: line.LineNumber, Hits: line.Count})
		}
	}
	return acc.files(), nil
}
