// Package threshold parses coverage threshold policies and evaluates them
// against a summary aggregate.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/section"
)

// Metric is a quantity a constraint bounds.
type Metric string

const (
	MetricStmtPct     Metric = "stmt_pct"
	MetricBranchPct   Metric = "branch_pct"
	MetricTotalMisses Metric = "total_misses"
)

var metricAliases = map[string]Metric{
	"stmt_pct":     MetricStmtPct,
	"stmt":         MetricStmtPct,
	"statement":    MetricStmtPct,
	"statements":   MetricStmtPct,
	"branch_pct":   MetricBranchPct,
	"br":           MetricBranchPct,
	"branch":       MetricBranchPct,
	"branches":     MetricBranchPct,
	"total_misses": MetricTotalMisses,
	"miss":         MetricTotalMisses,
	"misses":       MetricTotalMisses,
}

// isPercentage reports whether the metric is bounded to 0..100.
func (m Metric) isPercentage() bool {
	return m == MetricStmtPct || m == MetricBranchPct
}

// defaultOp is the comparison used by the "metric=value" shorthand.
func (m Metric) defaultOp() Op {
	if m == MetricTotalMisses {
		return OpLE
	}
	return OpGE
}

// Op is a comparison operator.
type Op string

const (
	OpGE Op = ">="
	OpLE Op = "<="
)

func (o Op) holds(actual, bound float64) bool {
	if o == OpLE {
		return actual <= bound
	}
	return actual >= bound
}

// Constraint bounds one metric.
type Constraint struct {
	Metric Metric  `json:"metric" yaml:"metric"`
	Op     Op      `json:"op" yaml:"op"`
	Bound  float64 `json:"bound" yaml:"bound"`
}

// String formats the constraint in canonical form, e.g. "stmt_pct>=80".
func (c Constraint) String() string {
	return string(c.Metric) + string(c.Op) + strconv.FormatFloat(c.Bound, 'f', -1, 64)
}

// Policy is an ordered list of constraints. The zero Policy always passes.
type Policy struct {
	Constraints []Constraint `json:"constraints" yaml:"constraints"`
}

// Empty reports whether the policy has no constraints.
func (p Policy) Empty() bool {
	return len(p.Constraints) == 0
}

// String joins the constraints with commas.
func (p Policy) String() string {
	parts := make([]string, len(p.Constraints))
	for i, c := range p.Constraints {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

var (
	termRe      = regexp.MustCompile(`([A-Za-z][A-Za-z_-]*)\s*(>=|<=|=)\s*([^\s,]+)`)
	separatorRe = regexp.MustCompile(`^[\s,]*$`)
)

// Parse parses a threshold expression. Terms are separated by commas or
// whitespace and have the form "metric op bound", e.g.
// "stmt_pct>=80, branch_pct>=70, total_misses<=10". The shorthand
// "stmt=80 br=70 miss=10" uses >= for percentages and <= for misses.
func Parse(expr string) (Policy, error) {
	if strings.TrimSpace(expr) == "" {
		return Policy{}, cverr.Configuration("threshold expression must be non-empty")
	}

	matches := termRe.FindAllStringSubmatchIndex(expr, -1)
	if len(matches) == 0 {
		return Policy{}, invalidTerm(expr)
	}

	var p Policy
	last := 0
	for _, m := range matches {
		if gap := expr[last:m[0]]; !separatorRe.MatchString(gap) {
			return Policy{}, invalidTerm(strings.TrimSpace(gap))
		}
		last = m[1]

		c, err := parseTerm(expr[m[2]:m[3]], expr[m[4]:m[5]], expr[m[6]:m[7]])
		if err != nil {
			return Policy{}, err
		}
		p.Constraints = append(p.Constraints, c)
	}
	if rest := expr[last:]; !separatorRe.MatchString(rest) {
		return Policy{}, invalidTerm(strings.TrimSpace(rest))
	}
	return p, nil
}

// ParseAll parses several expressions, for example repeated flags, into one
// policy preserving order.
func ParseAll(exprs []string) (Policy, error) {
	var p Policy
	for _, e := range exprs {
		if strings.TrimSpace(e) == "" {
			continue
		}
		q, err := Parse(e)
		if err != nil {
			return Policy{}, err
		}
		p.Constraints = append(p.Constraints, q.Constraints...)
	}
	return p, nil
}

func parseTerm(name, op, value string) (Constraint, error) {
	metric, ok := metricAliases[strings.ReplaceAll(strings.ToLower(name), "-", "_")]
	if !ok {
		return Constraint{}, cverr.ConfigurationWithHint(
			"valid metrics: stmt_pct, branch_pct, total_misses",
			"unknown threshold metric %q", name)
	}

	c := Constraint{Metric: metric, Op: Op(op)}
	if op == "=" {
		c.Op = metric.defaultOp()
	}

	bound, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	if err != nil || math.IsNaN(bound) || math.IsInf(bound, 0) {
		return Constraint{}, cverr.Configuration("invalid threshold value %q for %s", value, metric)
	}
	switch {
	case metric.isPercentage() && (bound < 0 || bound > 100):
		return Constraint{}, cverr.Configuration("threshold %s must be between 0 and 100, got %v", metric, bound)
	case metric == MetricTotalMisses && (bound < 0 || bound != math.Trunc(bound)):
		return Constraint{}, cverr.Configuration("threshold %s must be a non-negative integer, got %v", metric, bound)
	}
	c.Bound = bound
	return c, nil
}

func invalidTerm(tok string) error {
	return cverr.ConfigurationWithHint(
		`use terms like "stmt_pct>=80", "branch_pct>=70" or "total_misses<=10"`,
		"invalid threshold term %q", tok)
}

// Failure records one constraint that did not hold.
type Failure struct {
	Metric Metric  `json:"metric" yaml:"metric"`
	Op     Op      `json:"op" yaml:"op"`
	Actual float64 `json:"actual" yaml:"actual"`
	Bound  float64 `json:"bound" yaml:"bound"`
}

// String describes the failure for humans.
func (f Failure) String() string {
	return fmt.Sprintf("%s %s %s (actual %s)", f.Metric, f.Op,
		strconv.FormatFloat(f.Bound, 'f', -1, 64), strconv.FormatFloat(f.Actual, 'f', -1, 64))
}

// Result is the outcome of evaluating a policy.
type Result struct {
	Passed   bool      `json:"passed" yaml:"passed"`
	Failures []Failure `json:"failures" yaml:"failures"`
}

// Err returns an ErrThresholdFailed error describing the failures, or nil
// when the policy passed.
func (r Result) Err() error {
	if r.Passed {
		return nil
	}
	msgs := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		msgs[i] = f.String()
	}
	return cverr.ThresholdFailed("coverage threshold failed: %s", strings.Join(msgs, "; "))
}

// Actual returns the value of metric for the aggregate row.
func Actual(agg section.SummaryRow, metric Metric) float64 {
	switch metric {
	case MetricStmtPct:
		return agg.StmtPct
	case MetricBranchPct:
		return agg.BranchPct
	case MetricTotalMisses:
		return float64(agg.Misses)
	default:
		return 0
	}
}

// Evaluate checks every constraint of p against agg. Bounds are inclusive.
// Failures are listed in policy order.
func Evaluate(agg section.SummaryRow, p Policy) Result {
	res := Result{Passed: true, Failures: []Failure{}}
	for _, c := range p.Constraints {
		actual := Actual(agg, c.Metric)
		if c.Op.holds(actual, c.Bound) {
			continue
		}
		res.Passed = false
		res.Failures = append(res.Failures, Failure{
			Metric: c.Metric,
			Op:     c.Op,
			Actual: actual,
			Bound:  c.Bound,
		})
	}
	return res
}
