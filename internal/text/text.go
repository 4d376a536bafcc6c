// Package text turns roll traces and distributions into terminal output.
package text

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/trace"
)

// DefaultChartWidth is used when the caller does not know the terminal width.
const DefaultChartWidth = 60

// MaxChartRows bounds the rows of a chart; wider distributions are bucketed.
const MaxChartRows = 40

// DistView is the part of a distribution a renderer shows.
type DistView struct {
	Masses      []prob.Mass
	Mean        float64
	Sigma       float64
	Approximate bool
	Target      *int
	AtLeast     float64 // chance of meeting Target
}

// Renderer draws traces and distributions.
type Renderer interface {
	Trace(t trace.Trace) string
	Summary(v DistView) string
	Chart(v DistView, width int) string
}

var printer = message.NewPrinter(language.English)

// Number formats v with thousands separators.
func Number(v int) string { return printer.Sprintf("%d", v) }

func percent(p float64) string { return printer.Sprintf("%6.2f%%", p*100) }

func summaryParts(v DistView) (stats, target string) {
	if len(v.Masses) == 0 {
		return "no outcomes", ""
	}
	lo, hi := v.Masses[0].Outcome, v.Masses[len(v.Masses)-1].Outcome
	stats = printer.Sprintf("mean %.2f  sd %.2f  range %s to %s", v.Mean, v.Sigma, Number(lo), Number(hi))
	if v.Target != nil {
		target = printer.Sprintf("P(result >= %s) = %.2f%%", Number(*v.Target), v.AtLeast*100)
	}
	return stats, target
}

type row struct {
	lo, hi int
	p      float64
}

func (r row) label() string {
	if r.lo == r.hi {
		return strconv.Itoa(r.lo)
	}
	return strconv.Itoa(r.lo) + ".." + strconv.Itoa(r.hi)
}

// chartRows groups masses into at most maxRows rows of equal outcome span.
func chartRows(ms []prob.Mass, maxRows int) []row {
	if len(ms) == 0 {
		return nil
	}
	if len(ms) <= maxRows {
		rows := make([]row, len(ms))
		for i, m := range ms {
			rows[i] = row{lo: m.Outcome, hi: m.Outcome, p: m.P}
		}
		return rows
	}
	lo, hi := ms[0].Outcome, ms[len(ms)-1].Outcome
	size := int(math.Ceil((float64(hi) - float64(lo) + 1) / float64(maxRows)))
	var rows []row
	for _, m := range ms {
		start := lo + (m.Outcome-lo)/size*size
		if n := len(rows); n > 0 && rows[n-1].lo == start {
			rows[n-1].p += m.P
			continue
		}
		rows = append(rows, row{lo: start, hi: min(start+size-1, hi), p: m.P})
	}
	return rows
}

// layout returns the rows, the label column width, the bar width and the largest row mass.
func layout(v DistView, width int) ([]row, int, int, float64) {
	if width <= 0 {
		width = DefaultChartWidth
	}
	rows := chartRows(v.Masses, MaxChartRows)
	labelWidth, peak := 0, 0.0
	for _, r := range rows {
		labelWidth = max(labelWidth, len(r.label()))
		peak = max(peak, r.p)
	}
	barWidth := max(width-labelWidth-12, 10)
	return rows, labelWidth, barWidth, peak
}

func barLength(p, peak float64, barWidth int) int {
	if peak <= 0 {
		return 0
	}
	n := int(math.Round(p / peak * float64(barWidth)))
	if n == 0 && p > 0 {
		n = 1
	}
	return n
}

func meetsTarget(r row, target *int) bool { return target != nil && r.lo >= *target }

type plain struct{}

// NewPlain renders without colour: struck text as ~~x~~ and highlighted text as *x*.
func NewPlain() Renderer { return plain{} }

func (plain) Trace(t trace.Trace) string {
	var b strings.Builder
	for _, s := range t {
		switch s.Style {
		case trace.Struck:
			b.WriteString("~~" + s.Text + "~~")
		case trace.Colored:
			b.WriteString("*" + s.Text + "*")
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func (plain) Summary(v DistView) string {
	stats, target := summaryParts(v)
	if v.Approximate {
		stats += " (approximate)"
	}
	if target != "" {
		return stats + "\n" + target
	}
	return stats
}

func (plain) Chart(v DistView, width int) string {
	rows, labelWidth, barWidth, peak := layout(v, width)
	var b strings.Builder
	for _, r := range rows {
		fill := "#"
		if meetsTarget(r, v.Target) {
			fill = "="
		}
		b.WriteString(strings.Repeat(" ", labelWidth-len(r.label())) + r.label())
		b.WriteString(" |")
		b.WriteString(strings.Repeat(fill, barLength(r.p, peak, barWidth)))
		b.WriteString(" " + strings.TrimSpace(percent(r.p)) + "\n")
	}
	return b.String()
}
