package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaanHessen/rollwright/internal/engine"
	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/trace"
)

func sampleTrace() trace.Trace {
	var t trace.Trace
	t.Append("[")
	t.AppendStruck("3")
	t.Append(" ")
	t.AppendColored("17")
	t.Append("] + 4")
	return t
}

func view(d prob.ProbDist, target *int) DistView {
	v := DistView{Masses: d.Masses(), Mean: d.Expectation(), Sigma: d.Sigma(), Approximate: d.Approximate(), Target: target}
	if target != nil {
		v.AtLeast = d.AtLeast(*target)
	}
	return v
}

func TestPlainTraceMarksStyles(t *testing.T) {
	assert.Equal(t, "[~~3~~ *17*] + 4", NewPlain().Trace(sampleTrace()))
	assert.Equal(t, "", NewPlain().Trace(nil))
}

func TestNumberUsesSeparators(t *testing.T) {
	assert.Equal(t, "1,000,000", Number(1_000_000))
	assert.Equal(t, "-42", Number(-42))
}

func TestPlainSummary(t *testing.T) {
	target := 7
	out := NewPlain().Summary(view(prob.Uniform(1, 6).Add(prob.Uniform(1, 6), prob.DefaultLimits()), &target))
	assert.Contains(t, out, "mean 7.00")
	assert.Contains(t, out, "range 2 to 12")
	assert.Contains(t, out, "P(result >= 7) = 58.33%")
	assert.NotContains(t, out, "approximate")

	approx := NewPlain().Summary(view(prob.Uniform(1, 6).AsApproximate(), nil))
	assert.Contains(t, approx, "(approximate)")
	assert.NotContains(t, approx, "P(result")

	assert.Equal(t, "no outcomes", NewPlain().Summary(DistView{}))
}

func TestPlainChartOneRowPerOutcome(t *testing.T) {
	out := NewPlain().Chart(view(prob.Uniform(1, 6), nil), 40)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "1 |#"))
	assert.True(t, strings.HasSuffix(lines[5], "16.67%"))
	// equal masses give equal bars
	assert.Equal(t, strings.Count(lines[0], "#"), strings.Count(lines[5], "#"))
}

func TestPlainChartHighlightsTarget(t *testing.T) {
	target := 5
	out := NewPlain().Chart(view(prob.Uniform(1, 6), &target), 40)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[3], "#")
	assert.Contains(t, lines[4], "=")
	assert.NotContains(t, lines[4], "#")
}

func TestChartRowsBucketWideDistributions(t *testing.T) {
	rows := chartRows(prob.Uniform(1, 1000).Masses(), MaxChartRows)
	assert.LessOrEqual(t, len(rows), MaxChartRows)
	assert.Equal(t, 1, rows[0].lo)
	assert.Equal(t, 1000, rows[len(rows)-1].hi)
	total := 0.0
	for _, r := range rows {
		total += r.p
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Equal(t, "1..25", rows[0].label())
}

func TestChartRowsSkipGaps(t *testing.T) {
	d := prob.FromWeights(map[int]float64{0: 1, 500: 1})
	rows := chartRows(d.Masses(), 10)
	require.Len(t, rows, 2)
	assert.InDelta(t, 0.5, rows[0].p, 1e-12)
}

func TestStyledRendersEverySegment(t *testing.T) {
	r := NewStyled(PaletteFor(DefaultTheme))
	out := r.Trace(sampleTrace())
	for _, part := range []string{"3", "17", "+ 4"} {
		assert.Contains(t, out, part)
	}
	target := 4
	chart := r.Chart(view(prob.Uniform(1, 6), &target), 50)
	assert.Equal(t, 6, strings.Count(chart, "\n"))
	assert.Contains(t, r.Summary(view(prob.Uniform(1, 6), &target)), "50.00%")
}

func TestDocsListsEveryFunction(t *testing.T) {
	fns := engine.Functions()
	md := DocsMarkdown(fns)
	for _, f := range fns {
		assert.Contains(t, md, f.Title)
		assert.Contains(t, md, f.Usage)
	}
	out := Docs(fns, 70)
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "Functions")
}
