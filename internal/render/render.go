// Package render formats an assembled report. Renderers only format: ordering
// and aggregation are fixed by the report itself.
package render

import (
	"io"
	"sort"
	"strings"

	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/logger"
	"github.com/zjy-dev/covgap/internal/report"
	"github.com/zjy-dev/covgap/internal/source"
)

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, r *report.Report) error
}

// Options configures the renderers. Not every renderer uses every option.
type Options struct {
	// Color enables ANSI styling in the human renderer.
	Color bool
	// Sources enables code snippets for uncovered ranges. Nil disables them.
	Sources *source.Cache
	// Context is the number of lines shown around each snippet.
	Context int
	// GroupDepth adds directory rollups to the summary when > 0.
	GroupDepth int
}

// Factory creates a renderer from options.
type Factory func(opts Options) (Renderer, error)

var (
	registry = make(map[string]Factory)
)

// Register adds a renderer factory to the registry under name.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New creates a renderer by format name.
func New(name string, opts Options) (Renderer, error) {
	factory, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, cverr.ConfigurationWithHint(
			"available formats: "+strings.Join(Formats(), ", "),
			"unknown output format %q", name)
	}
	return factory(opts)
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// snippet returns the source lines of a range, or nil when snippets are off
// or the file cannot be read.
func (o Options) snippet(file string, start, end int) []source.Line {
	if o.Sources == nil {
		return nil
	}
	lines, err := o.Sources.Snippet(file, start, end, o.Context)
	if err != nil {
		logger.Debug("no snippet for %s: %v", file, err)
		return nil
	}
	return lines
}

const (
	msgNoLines         = "No uncovered lines."
	msgNoBranches      = "No uncovered branches."
	msgNoSummary       = "No summary data."
	msgNoDiffNew       = "No new uncovered lines."
	msgNoDiffResolved  = "No resolved uncovered lines."
	msgThresholdPassed = "Thresholds passed."
)
