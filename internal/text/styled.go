package text

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DaanHessen/rollwright/internal/trace"
)

type styled struct {
	plain   lipgloss.Style
	struck  lipgloss.Style
	colored lipgloss.Style
	muted   lipgloss.Style
	bar     lipgloss.Style
	hit     lipgloss.Style
	warn    lipgloss.Style
}

// NewStyled renders with lipgloss using the palette's colours.
func NewStyled(p Palette) Renderer {
	return styled{
		plain:   lipgloss.NewStyle().Foreground(p.Text),
		struck:  lipgloss.NewStyle().Foreground(p.Muted).Strikethrough(true),
		colored: lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(p.Muted),
		bar:     lipgloss.NewStyle().Foreground(p.BarFill),
		hit:     lipgloss.NewStyle().Foreground(p.Success),
		warn:    lipgloss.NewStyle().Foreground(p.Warning),
	}
}

func (s styled) Trace(t trace.Trace) string {
	var b strings.Builder
	for _, seg := range t {
		switch seg.Style {
		case trace.Struck:
			b.WriteString(s.struck.Render(seg.Text))
		case trace.Colored:
			b.WriteString(s.colored.Render(seg.Text))
		default:
			b.WriteString(s.plain.Render(seg.Text))
		}
	}
	return b.String()
}

func (s styled) Summary(v DistView) string {
	stats, target := summaryParts(v)
	out := s.plain.Render(stats)
	if v.Approximate {
		out += " " + s.warn.Render("(approximate)")
	}
	if target != "" {
		out += "\n" + s.hit.Render(target)
	}
	return out
}

func (s styled) Chart(v DistView, width int) string {
	rows, labelWidth, barWidth, peak := layout(v, width)
	var b strings.Builder
	for _, r := range rows {
		style := s.bar
		if meetsTarget(r, v.Target) {
			style = s.hit
		}
		b.WriteString(s.muted.Render(strings.Repeat(" ", labelWidth-len(r.label())) + r.label() + " │"))
		b.WriteString(style.Render(strings.Repeat("█", barLength(r.p, peak, barWidth))))
		b.WriteString(s.muted.Render(" "+strings.TrimSpace(percent(r.p))) + "\n")
	}
	return b.String()
}
