package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/zjy-dev/covgap/internal/coverage"
	"github.com/zjy-dev/covgap/internal/report"
	"github.com/zjy-dev/covgap/internal/section"
)

func init() {
	Register("human", func(opts Options) (Renderer, error) { return NewHumanRenderer(opts), nil })
}

// HumanRenderer writes tables for a terminal.
type HumanRenderer struct {
	opts Options

	heading *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
}

// NewHumanRenderer creates a HumanRenderer.
func NewHumanRenderer(opts Options) *HumanRenderer {
	h := &HumanRenderer{
		opts:    opts,
		heading: color.New(color.Bold),
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed),
	}
	for _, c := range []*color.Color{h.heading, h.good, h.warn, h.bad} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return h
}

// Render implements Renderer.
func (h *HumanRenderer) Render(w io.Writer, r *report.Report) error {
	var blocks []string
	if r.Sections.Lines != nil {
		blocks = append(blocks, h.lines(*r.Sections.Lines))
	}
	if r.Sections.Branches != nil {
		blocks = append(blocks, h.branches(*r.Sections.Branches))
	}
	if r.Sections.Summary != nil {
		blocks = append(blocks, h.summary(*r.Sections.Summary))
	}
	if r.Sections.Diff != nil {
		blocks = append(blocks, h.diff(*r.Sections.Diff))
	}
	if r.Threshold != nil {
		blocks = append(blocks, h.threshold(r))
	}

	_, err := io.WriteString(w, strings.Join(blocks, "\n\n")+"\n")
	return err
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	return tbl
}

func rightAligned(cols ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, n := range cols {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight, AlignFooter: text.AlignRight}
	}
	return cfgs
}

func (h *HumanRenderer) lines(sec section.LinesSection) string {
	title := h.heading.Sprint("Uncovered lines")
	if sec.Empty() {
		return title + "\n" + msgNoLines
	}

	var sb strings.Builder
	sb.WriteString(title)
	for _, f := range sec.Files {
		sb.WriteString("\n\n" + h.heading.Sprint(f.File) + "\n")

		tbl := newTable()
		tbl.AppendHeader(table.Row{"Start", "End", "# Lines"})
		tbl.SetColumnConfigs(rightAligned(1, 2, 3))
		for _, rg := range f.Ranges {
			tbl.AppendRow(table.Row{rg.Start, rg.End, rg.End - rg.Start + 1})
		}
		sb.WriteString(tbl.Render())

		for _, rg := range f.Ranges {
			if lines := h.opts.snippet(f.File, rg.Start, rg.End); len(lines) > 0 {
				sb.WriteString("\n\n" + f.File + ":" + rg.String())
				for _, l := range lines {
					sb.WriteString("\n" + h.sourceLine(l.Number, l.Text, l.InRange))
				}
			}
		}
	}
	return sb.String()
}

func (h *HumanRenderer) sourceLine(n int, code string, inRange bool) string {
	line := fmt.Sprintf("%5d: %s", n, code)
	if inRange {
		return h.bad.Sprint(line)
	}
	return line
}

func (h *HumanRenderer) branches(sec section.BranchesSection) string {
	title := h.heading.Sprintf("Branches (%s)", sec.Mode)
	if sec.Empty() {
		return title + "\n" + msgNoBranches
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"File", "Line", "Status", "Covered", "Missing"})
	tbl.SetColumnConfigs(rightAligned(2, 4))
	for _, f := range sec.Files {
		for _, bl := range f.Lines {
			tbl.AppendRow(table.Row{
				f.File,
				bl.Line,
				h.status(bl.Status),
				fmt.Sprintf("%d/%d", bl.Covered, bl.Total),
				joinIDs(bl.Missing),
			})
		}
	}
	return title + "\n" + tbl.Render()
}

func (h *HumanRenderer) status(s coverage.BranchStatus) string {
	switch s {
	case coverage.StatusAllCovered:
		return h.good.Sprint(string(s))
	case coverage.StatusPartial:
		return h.warn.Sprint(string(s))
	default:
		return h.bad.Sprint(string(s))
	}
}

func (h *HumanRenderer) pct(v float64) string {
	s := fmt.Sprintf("%.1f%%", v)
	switch {
	case v >= 90:
		return h.good.Sprint(s)
	case v >= 50:
		return h.warn.Sprint(s)
	default:
		return h.bad.Sprint(s)
	}
}

func (h *HumanRenderer) summary(sec section.SummarySection) string {
	title := h.heading.Sprint("Summary")
	if len(sec.Rows) == 0 {
		return title + "\n" + msgNoSummary
	}

	out := title + "\n" + h.summaryTable("File", sec.Rows, sec.Total)
	if h.opts.GroupDepth > 0 {
		out += "\n\n" + h.heading.Sprint("Directories") + "\n" +
			h.summaryTable("Directory", sec.Groups(h.opts.GroupDepth), sec.Total)
	}
	return out
}

func (h *HumanRenderer) summaryTable(label string, rows []section.SummaryRow, total section.SummaryRow) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{label, "Stmts", "Miss", "Stmt %", "Branches", "BrMiss", "Branch %", "Uncovered"})
	tbl.SetColumnConfigs(rightAligned(2, 3, 4, 5, 6, 7))
	for _, row := range rows {
		tbl.AppendRow(h.summaryRow(row))
	}
	tbl.AppendFooter(h.summaryRow(total))
	return tbl.Render()
}

func (h *HumanRenderer) summaryRow(row section.SummaryRow) table.Row {
	ranges := make([]string, len(row.UncoveredRanges))
	for i, rg := range row.UncoveredRanges {
		ranges[i] = rg.String()
	}
	return table.Row{
		row.File,
		humanize.Comma(int64(row.StatementsTotal)),
		humanize.Comma(int64(row.MissingStatements())),
		h.pct(row.StmtPct),
		humanize.Comma(int64(row.BranchesTotal)),
		humanize.Comma(int64(row.MissingBranches())),
		h.pct(row.BranchPct),
		strings.Join(ranges, ", "),
	}
}

func (h *HumanRenderer) diff(sec section.DiffSection) string {
	var sb strings.Builder
	sb.WriteString(h.heading.Sprintf("Newly uncovered (%s lines)", humanize.Comma(int64(sec.NewlyUncoveredLines))))
	sb.WriteString("\n" + h.fileRanges(sec.NewlyUncovered, msgNoDiffNew, h.bad))
	sb.WriteString("\n\n" + h.heading.Sprintf("Resolved (%s lines)", humanize.Comma(int64(sec.ResolvedLines))))
	sb.WriteString("\n" + h.fileRanges(sec.Resolved, msgNoDiffResolved, h.good))
	return sb.String()
}

func (h *HumanRenderer) fileRanges(files []section.FileRanges, empty string, c *color.Color) string {
	if len(files) == 0 {
		return empty
	}
	lines := make([]string, len(files))
	for i, f := range files {
		labels := make([]string, len(f.Ranges))
		for j, rg := range f.Ranges {
			labels[j] = rg.String()
		}
		lines[i] = "  " + f.File + ": " + c.Sprint(strings.Join(labels, ", "))
	}
	return strings.Join(lines, "\n")
}

func (h *HumanRenderer) threshold(r *report.Report) string {
	if r.Threshold.Passed {
		return h.good.Sprint(msgThresholdPassed)
	}
	lines := []string{h.bad.Sprint("Thresholds failed:")}
	for _, f := range r.Threshold.Failures {
		lines = append(lines, "  "+f.String())
	}
	return strings.Join(lines, "\n")
}

func joinIDs(ids []coverage.BranchID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
