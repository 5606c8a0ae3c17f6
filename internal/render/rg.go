package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/zjy-dev/covgap/internal/report"
	"github.com/zjy-dev/covgap/internal/section"
)

func init() {
	Register("rg", func(opts Options) (Renderer, error) { return &RgRenderer{opts: opts}, nil })
}

// RgRenderer writes ripgrep-style lines ("path:line:code" for uncovered lines,
// "path-line-code" for context) so editors and grep tooling can jump to them.
// Without snippets every range is one "path:start-end" line.
type RgRenderer struct {
	opts Options
}

// Render implements Renderer.
func (g *RgRenderer) Render(w io.Writer, r *report.Report) error {
	var out []string
	if s := r.Sections.Lines; s != nil {
		out = append(out, g.ranges(s.Files)...)
	}
	if s := r.Sections.Branches; s != nil {
		for _, f := range s.Files {
			for _, bl := range f.Lines {
				line := fmt.Sprintf("%s:%d:%s %d/%d", f.File, bl.Line, bl.Status, bl.Covered, bl.Total)
				if len(bl.Missing) > 0 {
					line += " missing=" + strings.ReplaceAll(joinIDs(bl.Missing), " ", "")
				}
				out = append(out, line)
			}
		}
	}
	if s := r.Sections.Summary; s != nil {
		for _, row := range s.Rows {
			out = append(out, rgSummary(row))
		}
		out = append(out, rgSummary(s.Total))
	}
	if s := r.Sections.Diff; s != nil {
		for _, f := range s.NewlyUncovered {
			for _, rg := range f.Ranges {
				out = append(out, fmt.Sprintf("+%s:%s", f.File, rg.String()))
			}
		}
		for _, f := range s.Resolved {
			for _, rg := range f.Ranges {
				out = append(out, fmt.Sprintf("-%s:%s", f.File, rg.String()))
			}
		}
	}

	if len(out) == 0 {
		return nil
	}
	_, err := io.WriteString(w, strings.Join(out, "\n")+"\n")
	return err
}

func (g *RgRenderer) ranges(files []section.FileRanges) []string {
	var out []string
	for _, f := range files {
		for _, rg := range f.Ranges {
			lines := g.opts.snippet(f.File, rg.Start, rg.End)
			if len(lines) == 0 {
				out = append(out, fmt.Sprintf("%s:%s", f.File, rg.String()))
				continue
			}
			if g.opts.Context > 0 && len(out) > 0 {
				out = append(out, "--")
			}
			for _, l := range lines {
				sep := "-"
				if l.InRange {
					sep = ":"
				}
				out = append(out, fmt.Sprintf("%s%s%d%s%s", f.File, sep, l.Number, sep, l.Text))
			}
		}
	}
	return out
}

func rgSummary(row section.SummaryRow) string {
	return fmt.Sprintf("%s:stmt=%.1f%% br=%.1f%% misses=%d", row.File, row.StmtPct, row.BranchPct, row.Misses)
}
