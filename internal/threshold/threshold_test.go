package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cverr "github.com/zjy-dev/covgap/internal/errors"
	"github.com/zjy-dev/covgap/internal/section"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []Constraint
	}{
		{
			name: "canonical",
			expr: "stmt_pct>=80",
			want: []Constraint{{MetricStmtPct, OpGE, 80}},
		},
		{
			name: "several with spaces",
			expr: "stmt_pct >= 80, branch_pct>=70.5  total_misses<=10",
			want: []Constraint{
				{MetricStmtPct, OpGE, 80},
				{MetricBranchPct, OpGE, 70.5},
				{MetricTotalMisses, OpLE, 10},
			},
		},
		{
			name: "shorthand",
			expr: "stmt=90 br=75% miss=3",
			want: []Constraint{
				{MetricStmtPct, OpGE, 90},
				{MetricBranchPct, OpGE, 75},
				{MetricTotalMisses, OpLE, 3},
			},
		},
		{
			name: "long aliases",
			expr: "statements=50,Branches=40,misses=0",
			want: []Constraint{
				{MetricStmtPct, OpGE, 50},
				{MetricBranchPct, OpGE, 40},
				{MetricTotalMisses, OpLE, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Constraints)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", "   "},
		{"unknown metric", "lines_pct>=80"},
		{"bad number", "stmt_pct>=eighty"},
		{"percentage above range", "stmt_pct>=101"},
		{"negative percentage", "branch_pct>=-1"},
		{"fractional misses", "total_misses<=1.5"},
		{"missing operator", "stmt_pct 80"},
		{"trailing garbage", "stmt_pct>=80 please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr)
			require.Error(t, err)
			assert.True(t, cverr.Is(err, cverr.ErrConfiguration), "got %v", err)
			assert.Equal(t, cverr.ExitUsage, cverr.ExitCode(err))
		})
	}
}

func TestParseAll(t *testing.T) {
	p, err := ParseAll([]string{"stmt_pct>=80", "", "total_misses<=4"})
	require.NoError(t, err)
	assert.Equal(t, "stmt_pct>=80,total_misses<=4", p.String())

	p, err = ParseAll(nil)
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestEvaluate(t *testing.T) {
	agg := func(covered, total int) section.SummaryRow {
		return section.Aggregate(section.TotalLabel, []section.SummaryRow{
			{StatementsTotal: total, StatementsCovered: covered},
		})
	}

	t.Run("boundary is inclusive", func(t *testing.T) {
		p, err := Parse("stmt_pct>=90")
		require.NoError(t, err)

		res := Evaluate(agg(9, 10), p)
		assert.True(t, res.Passed)
		assert.Empty(t, res.Failures)
		assert.NoError(t, res.Err())
	})

	t.Run("below bound fails", func(t *testing.T) {
		p, err := Parse("stmt_pct>=80")
		require.NoError(t, err)

		res := Evaluate(agg(75, 100), p)
		assert.False(t, res.Passed)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, Failure{Metric: MetricStmtPct, Op: OpGE, Actual: 75, Bound: 80}, res.Failures[0])

		err = res.Err()
		require.Error(t, err)
		assert.True(t, cverr.Is(err, cverr.ErrThresholdFailed))
		assert.Equal(t, cverr.ExitThreshold, cverr.ExitCode(err))
		assert.Contains(t, err.Error(), "stmt_pct >= 80 (actual 75)")
	})

	t.Run("misses upper bound", func(t *testing.T) {
		p, err := Parse("total_misses<=3")
		require.NoError(t, err)

		assert.True(t, Evaluate(agg(7, 10), p).Passed)
		res := Evaluate(agg(6, 10), p)
		assert.False(t, res.Passed)
		assert.Equal(t, 4.0, res.Failures[0].Actual)
	})

	t.Run("zero statements count as zero percent", func(t *testing.T) {
		p, err := Parse("stmt_pct>=1")
		require.NoError(t, err)
		assert.False(t, Evaluate(agg(0, 0), p).Passed)
	})

	t.Run("empty policy passes", func(t *testing.T) {
		res := Evaluate(agg(0, 10), Policy{})
		assert.True(t, res.Passed)
	})
}
