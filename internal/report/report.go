// Package report assembles the requested sections of a coverage dataset into
// a Report, the single value every renderer consumes.
package report

import (
	"github.com/zjy-dev/covgap/internal/coverage"
	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/section"
	"github.com/zjy-dev/covgap/internal/threshold"
)

// ToolName is recorded in every report's metadata.
const ToolName = "covgap"

// Options records the options a report was built with.
type Options struct {
	Sections   []string `json:"sections" yaml:"sections"`
	BranchMode string   `json:"branch_mode,omitempty" yaml:"branch_mode,omitempty"`
	Sort       string   `json:"sort,omitempty" yaml:"sort,omitempty"`
	MaxGap     int      `json:"max_gap,omitempty" yaml:"max_gap,omitempty"`
	Includes   []string `json:"includes,omitempty" yaml:"includes,omitempty"`
	Excludes   []string `json:"excludes,omitempty" yaml:"excludes,omitempty"`
	Threshold  string   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Metadata describes how a report was produced. It carries no timestamps so
// identical inputs give byte-identical output.
type Metadata struct {
	Tool       string   `json:"tool" yaml:"tool"`
	Version    string   `json:"version" yaml:"version"`
	Root       string   `json:"root,omitempty" yaml:"root,omitempty"`
	Inputs     []string `json:"inputs" yaml:"inputs"`
	BaseInputs []string `json:"base_inputs,omitempty" yaml:"base_inputs,omitempty"`
	Files      int      `json:"files" yaml:"files"`
	Options    Options  `json:"options" yaml:"options"`
}

// Sections holds the built sections. Unrequested sections are nil.
type Sections struct {
	Lines    *section.LinesSection    `json:"lines,omitempty" yaml:"lines,omitempty"`
	Branches *section.BranchesSection `json:"branches,omitempty" yaml:"branches,omitempty"`
	Summary  *section.SummarySection  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Diff     *section.DiffSection     `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Report is an assembled coverage report.
type Report struct {
	Meta      Metadata          `json:"meta" yaml:"meta"`
	Sections  Sections          `json:"sections" yaml:"sections"`
	Threshold *threshold.Result `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Has reports whether section k was built.
func (r *Report) Has(k section.Kind) bool {
	if r == nil {
		return false
	}
	switch k {
	case section.Lines:
		return r.Sections.Lines != nil
	case section.Branches:
		return r.Sections.Branches != nil
	case section.Summary:
		return r.Sections.Summary != nil
	case section.Diff:
		return r.Sections.Diff != nil
	default:
		return false
	}
}

// Passed reports whether the attached threshold result, if any, passed.
func (r *Report) Passed() bool {
	return r == nil || r.Threshold == nil || r.Threshold.Passed
}

// Request describes the report to assemble.
type Request struct {
	Current *coverage.Dataset
	// Base is the comparison dataset for the Diff section.
	Base *coverage.Dataset

	Sections   section.Set
	BranchMode section.BranchMode
	Sort       section.SummarySort
	Lines      section.LinesOptions
	Policy     threshold.Policy

	Meta Metadata
}

// ValidateSelection checks a section selection before any input is read.
func ValidateSelection(sections section.Set, hasBase bool) error {
	if sections.Empty() {
		return cverr.ConfigurationWithHint(
			"select at least one of: lines, branches, summary, diff",
			"no report sections selected")
	}
	if sections.Has(section.Diff) && !hasBase {
		return cverr.ConfigurationWithHint(
			"pass the comparison report with --base",
			"the diff section requires a base dataset")
	}
	return nil
}

// Validate checks the request for configuration errors.
func (req Request) Validate() error {
	return ValidateSelection(req.Sections, req.Base != nil)
}

// Assemble builds the requested sections of req.Current and evaluates the
// threshold policy against the summary aggregate when one is supplied.
func Assemble(req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rep := &Report{Meta: req.Meta}
	if rep.Meta.Tool == "" {
		rep.Meta.Tool = ToolName
	}
	if rep.Meta.Inputs == nil {
		rep.Meta.Inputs = []string{}
	}
	rep.Meta.Files = req.Current.Len()
	rep.Meta.Options.Sections = sectionNames(req.Sections)

	if req.Sections.Has(section.Lines) {
		lines := section.BuildLines(req.Current, req.Lines)
		rep.Sections.Lines = &lines
	}
	if req.Sections.Has(section.Branches) {
		branches := section.BuildBranches(req.Current, req.BranchMode)
		rep.Sections.Branches = &branches
		rep.Meta.Options.BranchMode = string(branches.Mode)
	}

	var summary *section.SummarySection
	if req.Sections.Has(section.Summary) || !req.Policy.Empty() {
		s := section.BuildSummaryWith(req.Current, req.Sort, req.Lines)
		summary = &s
	}
	if req.Sections.Has(section.Summary) {
		rep.Sections.Summary = summary
		rep.Meta.Options.Sort = string(summary.Sort)
	}
	if req.Sections.Has(section.Diff) {
		diff := section.BuildDiff(req.Current, req.Base, req.Lines)
		rep.Sections.Diff = &diff
	}

	if !req.Policy.Empty() {
		res := threshold.Evaluate(summary.Total, req.Policy)
		rep.Threshold = &res
		rep.Meta.Options.Threshold = req.Policy.String()
	}
	rep.Meta.Options.MaxGap = req.Lines.MaxGap

	return rep, nil
}

func sectionNames(s section.Set) []string {
	kinds := s.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}
