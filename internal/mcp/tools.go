package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/logger"
	"github.com/zjy-dev/covgap/internal/render"
	"github.com/zjy-dev/covgap/internal/report"
	"github.com/zjy-dev/covgap/internal/section"
	"github.com/zjy-dev/covgap/internal/threshold"
)

// Tool names.
const (
	ToolNameReport = "coverage_report"
	ToolNameDiff   = "coverage_diff"
)

const (
	reportToolDescription = "Merge Cobertura XML coverage files and report uncovered line ranges, " +
		"partially covered branches and per-file coverage percentages as JSON. " +
		"Optionally evaluates threshold expressions such as stmt_pct>=80."
	diffToolDescription = "Compare two sets of Cobertura XML coverage files and list the line ranges " +
		"that became uncovered and the ranges that are no longer uncovered."
)

// ReportInput is the input schema for the coverage_report tool.
type ReportInput struct {
	Paths      []string `json:"paths"                 jsonschema:"Cobertura XML or gcovr JSON files or glob patterns to merge"`
	Include    []string `json:"include,omitempty"     jsonschema:"optional glob patterns; only matching files are reported"`
	Exclude    []string `json:"exclude,omitempty"     jsonschema:"optional gitignore-style patterns of files to drop"`
	Sections   []string `json:"sections,omitempty"    jsonschema:"sections to build: lines branches summary or all (default: all)"`
	BranchMode string   `json:"branch_mode,omitempty" jsonschema:"branch lines to list: missing-only partial or all (default: partial)"`
	Sort       string   `json:"sort,omitempty"        jsonschema:"summary sort key such as file stmt_pct or misses (default: file)"`
	MaxGap     int      `json:"max_gap,omitempty"     jsonschema:"split uncovered ranges across gaps wider than this many lines (0 disables)"`
	Threshold  []string `json:"threshold,omitempty"   jsonschema:"optional threshold expressions of the form metric op bound (metrics: stmt_pct branch_pct misses)"`
}

// DiffInput is the input schema for the coverage_diff tool.
type DiffInput struct {
	Paths     []string `json:"paths"             jsonschema:"current Cobertura XML or gcovr JSON files or glob patterns"`
	BasePaths []string `json:"base_paths"        jsonschema:"baseline Cobertura XML or gcovr JSON files or glob patterns"`
	Include   []string `json:"include,omitempty" jsonschema:"optional glob patterns; only matching files are compared"`
	Exclude   []string `json:"exclude,omitempty" jsonschema:"optional gitignore-style patterns of files to drop"`
	MaxGap    int      `json:"max_gap,omitempty" jsonschema:"split ranges across gaps wider than this many lines (0 disables)"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleReport(ctx context.Context, _ *mcpsdk.CallToolRequest, in ReportInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	p, err := s.reportPipeline(in)
	if err != nil {
		return errorResult(err)
	}
	return s.run(ctx, ToolNameReport, p)
}

func (s *Server) handleDiff(ctx context.Context, _ *mcpsdk.CallToolRequest, in DiffInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(in.BasePaths) == 0 {
		return errorResult(cverr.Configuration("base_paths must not be empty"))
	}
	p := report.Pipeline{
		Paths:     in.Paths,
		BasePaths: in.BasePaths,
		Root:      s.root,
		Includes:  in.Include,
		Excludes:  in.Exclude,
		Sections:  section.NewSet(section.Diff),
		Lines:     section.LinesOptions{MaxGap: in.MaxGap},
		Version:   s.version,
	}
	return s.run(ctx, ToolNameDiff, p)
}

func (s *Server) reportPipeline(in ReportInput) (report.Pipeline, error) {
	sections := section.DefaultSet
	if len(in.Sections) > 0 {
		set, err := section.ParseSet(in.Sections)
		if err != nil {
			return report.Pipeline{}, err
		}
		sections = set
	}
	mode, err := section.ParseBranchMode(in.BranchMode)
	if err != nil {
		return report.Pipeline{}, err
	}
	sort, err := section.ParseSummarySort(in.Sort)
	if err != nil {
		return report.Pipeline{}, err
	}
	policy, err := threshold.ParseAll(in.Threshold)
	if err != nil {
		return report.Pipeline{}, err
	}
	if in.MaxGap < 0 {
		return report.Pipeline{}, cverr.Configuration("max_gap must not be negative, got %d", in.MaxGap)
	}

	return report.Pipeline{
		Paths:      in.Paths,
		Root:       s.root,
		Includes:   in.Include,
		Excludes:   in.Exclude,
		Sections:   sections,
		BranchMode: mode,
		Sort:       sort,
		Lines:      section.LinesOptions{MaxGap: in.MaxGap},
		Policy:     policy,
		Version:    s.version,
	}, nil
}

func (s *Server) run(ctx context.Context, tool string, p report.Pipeline) (*mcpsdk.CallToolResult, ToolOutput, error) {
	rep, err := p.Run(ctx)
	if err != nil {
		logger.Warn("%s: %v", tool, err)
		return errorResult(err)
	}
	data, err := render.NewJSONRenderer().Marshal(rep)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(data)
}

// errorResult builds a CallToolResult with isError set. Configuration hints
// are appended so the client can correct its arguments.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	msg := err.Error()
	if hints := cverr.Hints(err); len(hints) > 0 {
		msg += "\nhint: " + strings.Join(hints, "\nhint: ")
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: msg},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult wraps an encoded report. The structured output carries the same
// document decoded into generic values.
func jsonResult(data []byte) (*mcpsdk.CallToolResult, ToolOutput, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return errorResult(fmt.Errorf("decode result: %w", err))
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
