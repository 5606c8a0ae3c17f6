package coverage

import (
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	cverr "github.com/zjy-dev/covgap/internal/errors"
)

// fullConditionCoverage is the percentage at which a condition counts as taken.
const fullConditionCoverage = 100

// ParseOptions controls how a document is turned into FileCoverage values.
type ParseOptions struct {
	// Root is the project root used to relativize file paths. Empty keeps the
	// paths as reported.
	Root string

	// Name identifies the document in error messages (usually its file path).
	Name string
}

type xmlClass struct {
	Filename string    `xml:"filename,attr"`
	Lines    []xmlLine `xml:"lines>line"`
}

type xmlLine struct {
	Number            string         `xml:"number,attr"`
	Hits              string         `xml:"hits,attr"`
	Branch            string         `xml:"branch,attr"`
	ConditionCoverage string         `xml:"condition-coverage,attr"`
	MissingBranches   string         `xml:"missing-branches,attr"`
	Conditions        []xmlCondition `xml:"conditions>condition"`
}

type xmlCondition struct {
	Number   string `xml:"number,attr"`
	Type     string `xml:"type,attr"`
	Coverage string `xml:"coverage,attr"`
}

var conditionCoverageRe = regexp.MustCompile(`\(?\s*(\d+)\s*/\s*(\d+)\s*\)?`)

// ParseConditionCoverage extracts the covered/total pair from values such as
// "50% (1/2)", "(1/2)" or "1/2".
func ParseConditionCoverage(text string) (covered, total int, ok bool) {
	m := conditionCoverageRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	covered, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return covered, total, true
}

// Parse reads one Cobertura-style coverage document and returns the files it
// reports, sorted by path. <class> elements are collected wherever they
// appear under the <coverage> root. Duplicate line entries for a file are
// reconciled by taking the maximum hit count.
func Parse(r io.Reader, opts ParseOptions) ([]FileCoverage, error) {
	name := opts.Name
	if name == "" {
		name = "<input>"
	}

	type packagedClass struct {
		pkg string
		cls xmlClass
	}
	var (
		sources []string
		classes []packagedClass
		pkgs    []string // enclosing <package> names
		depth   int
		sawRoot bool
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if !sawRoot {
				return nil, cverr.Malformed("%s: no <coverage> root element", name)
			}
			break
		}
		if err != nil {
			return nil, cverr.MarkMalformed(err, name+": invalid coverage XML")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if sawRoot || t.Name.Local != "coverage" {
					return nil, cverr.Malformed("%s: unexpected root element <%s>, want a single <coverage>", name, t.Name.Local)
				}
				sawRoot = true
			}
			switch t.Name.Local {
			case "class":
				var cls xmlClass
				if err := dec.DecodeElement(&cls, &t); err != nil {
					return nil, cverr.MarkMalformed(err, name+": invalid <class>")
				}
				pkg := ""
				if len(pkgs) > 0 {
					pkg = pkgs[len(pkgs)-1]
				}
				classes = append(classes, packagedClass{pkg: pkg, cls: cls})
				continue
			case "source":
				var src string
				if err := dec.DecodeElement(&src, &t); err != nil {
					return nil, cverr.MarkMalformed(err, name+": invalid <source>")
				}
				sources = append(sources, src)
				continue
			case "package":
				pkgs = append(pkgs, attr(t, "name"))
			}
			depth++
		case xml.EndElement:
			if t.Name.Local == "package" && len(pkgs) > 0 {
				pkgs = pkgs[:len(pkgs)-1]
			}
			depth--
		}
	}

	acc := newAccumulator()
	for _, pc := range classes {
		if strings.TrimSpace(pc.cls.Filename) == "" {
			return nil, cverr.Malformed("%s: class in package %q has no filename", name, pc.pkg)
		}
		path := NormalizePath(pc.cls.Filename, sources, opts.Root)
		acc.touch(path)

		for _, ln := range pc.cls.Lines {
			rec, br, err := parseLine(ln)
			if err != nil {
				return nil, cverr.Malformed("%s: %s: %v", name, path, err)
			}
			acc.addLine(path, rec)
			if br != nil {
				acc.addBranch(path, *br, unionMissing)
			}
		}
	}

	return acc.files(), nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func parseLine(ln xmlLine) (LineRecord, *BranchRecord, error) {
	number, err := strconv.Atoi(strings.TrimSpace(ln.Number))
	if err != nil || number < 1 {
		return LineRecord{}, nil, errorf("invalid line number %q", ln.Number)
	}

	hits := 0
	if h := strings.TrimSpace(ln.Hits); h != "" {
		hits, err = strconv.Atoi(h)
		if err != nil || hits < 0 {
			return LineRecord{}, nil, errorf("line %d: invalid hits %q", number, ln.Hits)
		}
	}

	rec := LineRecord{Number: number, Hits: hits}
	br, err := parseBranch(number, ln)
	if err != nil {
		return LineRecord{}, nil, err
	}
	return rec, br, nil
}

// parseBranch builds the branch record of a line, or nil when the line has no
// branch data.
func parseBranch(number int, ln xmlLine) (*BranchRecord, error) {
	br := BranchRecord{Number: number, Kind: BranchCounts}
	hasData := false

	if strings.EqualFold(strings.TrimSpace(ln.Branch), "true") {
		if covered, total, ok := ParseConditionCoverage(ln.ConditionCoverage); ok {
			if covered > total {
				return nil, errorf("line %d: condition-coverage %q covers more than total", number, ln.ConditionCoverage)
			}
			br.Covered, br.Total = covered, total
			hasData = total > 0
		}
	}

	taken := make(map[BranchID]struct{})
	missing := make(map[BranchID]struct{})

	for _, c := range ln.Conditions {
		id := conditionID(c)
		if conditionPercent(c.Coverage) >= fullConditionCoverage {
			taken[id] = struct{}{}
		} else {
			missing[id] = struct{}{}
		}
	}

	// missing-branches only applies when the line carries no explicit conditions.
	if len(ln.Conditions) == 0 {
		for _, tok := range strings.Split(ln.MissingBranches, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				missing[BranchID(tok)] = struct{}{}
			}
		}
	}

	if len(taken) > 0 || len(missing) > 0 {
		for id := range taken {
			delete(missing, id)
		}
		br.Kind = BranchIDs
		br.Taken = sortedIDs(taken)
		br.Missing = sortedIDs(missing)
		hasData = true
	}

	if !hasData {
		return nil, nil
	}
	return &br, nil
}

func conditionID(c xmlCondition) BranchID {
	num := strings.TrimSpace(c.Number)
	if num == "" {
		num = "?"
	}
	if typ := strings.TrimSpace(c.Type); typ != "" {
		return BranchID(strings.ToLower(typ) + ":" + num)
	}
	return BranchID(num)
}

// conditionPercent parses "50%" or "50"; unparseable values count as 0.
func conditionPercent(s string) int {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
