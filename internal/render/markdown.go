package render

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/zjy-dev/covgap/internal/report"
	"github.com/zjy-dev/covgap/internal/section"
)

func init() {
	Register("markdown", func(opts Options) (Renderer, error) { return NewMarkdownRenderer(opts), nil })
	Register("md", func(opts Options) (Renderer, error) { return NewMarkdownRenderer(opts), nil })
}

// MarkdownRenderer writes a GitHub-flavoured Markdown report, suitable for
// pull request comments and job summaries.
type MarkdownRenderer struct {
	opts Options
}

// NewMarkdownRenderer creates a new MarkdownRenderer.
func NewMarkdownRenderer(opts Options) *MarkdownRenderer {
	return &MarkdownRenderer{
		opts: opts,
	}
}

// Render implements Renderer.
func (m *MarkdownRenderer) Render(w io.Writer, r *report.Report) error {
	var content string
	content += "# Coverage report\n\n"
	content += fmt.Sprintf("_%s %s, %d file(s) from %s_\n\n",
		r.Meta.Tool, r.Meta.Version, r.Meta.Files, inputList(r.Meta.Inputs))

	if r.Threshold != nil {
		if r.Threshold.Passed {
			content += "**Thresholds:** passed\n\n"
		} else {
			content += "**Thresholds:** failed\n\n"
			for _, f := range r.Threshold.Failures {
				content += fmt.Sprintf("- `%s`\n", f.String())
			}
			content += "\n"
		}
	}

	if s := r.Sections.Summary; s != nil {
		content += m.summary(*s)
	}
	if s := r.Sections.Lines; s != nil {
		content += m.lines(*s)
	}
	if s := r.Sections.Branches; s != nil {
		content += m.branches(*s)
	}
	if s := r.Sections.Diff; s != nil {
		content += m.diff(*s)
	}

	_, err := io.WriteString(w, strings.TrimRight(content, "\n")+"\n")
	return err
}

func (m *MarkdownRenderer) summary(sec section.SummarySection) string {
	content := "## Summary\n\n"
	if len(sec.Rows) == 0 {
		return content + msgNoSummary + "\n\n"
	}

	content += "| File | Stmts | Miss | Stmt % | Branches | BrMiss | Branch % |\n"
	content += "|---|---:|---:|---:|---:|---:|---:|\n"
	rows := sec.Rows
	if m.opts.GroupDepth > 0 {
		rows = sec.Groups(m.opts.GroupDepth)
	}
	for _, row := range rows {
		content += summaryLine(mdEscape(row.File), row)
	}
	content += summaryLine("**"+section.TotalLabel+"**", sec.Total)
	return content + "\n"
}

func summaryLine(label string, row section.SummaryRow) string {
	return fmt.Sprintf("| %s | %d | %d | %.1f%% | %d | %d | %.1f%% |\n",
		label, row.StatementsTotal, row.MissingStatements(), row.StmtPct,
		row.BranchesTotal, row.MissingBranches(), row.BranchPct)
}

func (m *MarkdownRenderer) lines(sec section.LinesSection) string {
	content := "## Uncovered lines\n\n"
	if sec.Empty() {
		return content + msgNoLines + "\n\n"
	}

	for _, f := range sec.Files {
		labels := make([]string, len(f.Ranges))
		for i, rg := range f.Ranges {
			labels[i] = rg.String()
		}
		content += fmt.Sprintf("- `%s`: %s\n", f.File, strings.Join(labels, ", "))
	}
	content += "\n"

	for _, f := range sec.Files {
		for _, rg := range f.Ranges {
			lines := m.opts.snippet(f.File, rg.Start, rg.End)
			if len(lines) == 0 {
				continue
			}
			content += fmt.Sprintf("### %s:%s\n\n```%s\n", f.File, rg.String(), fenceLanguage(f.File))
			for _, l := range lines {
				marker := " "
				if l.InRange {
					marker = ">"
				}
				content += fmt.Sprintf("%s%5d  %s\n", marker, l.Number, l.Text)
			}
			content += "```\n\n"
		}
	}
	return content
}

func (m *MarkdownRenderer) branches(sec section.BranchesSection) string {
	content := fmt.Sprintf("## Branches (%s)\n\n", sec.Mode)
	if sec.Empty() {
		return content + msgNoBranches + "\n\n"
	}

	content += "| File | Line | Status | Covered | Missing |\n"
	content += "|---|---:|---|---:|---|\n"
	for _, f := range sec.Files {
		for _, bl := range f.Lines {
			content += fmt.Sprintf("| %s | %d | %s | %d/%d | %s |\n",
				mdEscape(f.File), bl.Line, bl.Status, bl.Covered, bl.Total, mdEscape(joinIDs(bl.Missing)))
		}
	}
	return content + "\n"
}

func (m *MarkdownRenderer) diff(sec section.DiffSection) string {
	content := "## Diff\n\n"
	content += fmt.Sprintf("### Newly uncovered (%d lines)\n\n", sec.NewlyUncoveredLines)
	content += rangeList(sec.NewlyUncovered, msgNoDiffNew)
	content += fmt.Sprintf("### Resolved (%d lines)\n\n", sec.ResolvedLines)
	content += rangeList(sec.Resolved, msgNoDiffResolved)
	return content
}

func rangeList(files []section.FileRanges, empty string) string {
	if len(files) == 0 {
		return empty + "\n\n"
	}
	var content string
	for _, f := range files {
		labels := make([]string, len(f.Ranges))
		for i, rg := range f.Ranges {
			labels[i] = rg.String()
		}
		content += fmt.Sprintf("- `%s`: %s\n", f.File, strings.Join(labels, ", "))
	}
	return content + "\n"
}

func inputList(inputs []string) string {
	if len(inputs) == 0 {
		return "no inputs"
	}
	quoted := make([]string, len(inputs))
	for i, in := range inputs {
		quoted[i] = "`" + in + "`"
	}
	return strings.Join(quoted, ", ")
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

var fenceLanguages = map[string]string{
	".py":   "python",
	".go":   "go",
	".c":    "c",
	".h":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".java": "java",
	".js":   "javascript",
	".ts":   "typescript",
	".rs":   "rust",
	".rb":   "ruby",
}

func fenceLanguage(file string) string {
	return fenceLanguages[strings.ToLower(path.Ext(file))]
}
