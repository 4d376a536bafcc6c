package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DaanHessen/rollwright/internal/text"
)

func (m model) View() string {
	var body string
	switch m.view {
	case viewHistory:
		body = m.scroll(m.renderHistory())
	case viewPresets:
		body = m.scroll(m.renderPresets())
	case viewHelp:
		body = m.scroll(m.docs)
	default:
		body = m.renderConsole()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTopBar(), body, m.renderBottomBar())
}

func (m model) contentWidth() int {
	if m.width <= 0 {
		return 100
	}
	return m.width
}

func (m model) renderTopBar() string {
	left := "ROLLWRIGHT " + m.version + " • " + m.view
	right := "theme " + m.theme
	if m.seedText != "" {
		right = "seed " + m.seedText + "  " + right
	}
	gap := max(m.contentWidth()-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return m.styles.title.Render(left + strings.Repeat(" ", gap) + right)
}

func (m model) renderBottomBar() string {
	keys := "[Enter] roll  [↑/↓] recall  [Tab] views  [Ctrl+T] theme  [?] help  [Esc] back/quit"
	line := m.styles.input.Render("> " + m.input + "▏")
	if m.status != "" {
		line += "  " + m.styles.muted.Render(m.status)
	}
	return line + "\n" + m.styles.muted.Render(keys)
}

func (m model) renderConsole() string {
	w := m.contentWidth()
	sideWidth := 34
	if w < 90 {
		sideWidth = 26
	}
	mainWidth := max(w-sideWidth-4, 20)

	var b strings.Builder
	switch {
	case m.rollErr != nil:
		b.WriteString(m.styles.warn.Render(m.rollErr.Error()) + "\n")
	case m.last != nil:
		b.WriteString(m.styles.title.Render(fmt.Sprintf("%s = %s", m.last.Canonical, text.Number(m.last.Value))) + "\n")
		b.WriteString(m.renderer.Trace(m.last.Trace) + "\n\n")
	default:
		b.WriteString(m.styles.muted.Render("Type an expression such as 2d6+4 or adv(d20)+5 and press Enter.") + "\n")
	}
	switch {
	case m.computing:
		b.WriteString(m.styles.muted.Render("computing distribution...") + "\n")
	case m.distErr != nil:
		b.WriteString(m.styles.warn.Render("distribution: "+m.distErr.Error()) + "\n")
	case m.dist != nil:
		view := m.dist.View()
		b.WriteString(m.renderer.Summary(view) + "\n\n")
		b.WriteString(m.renderer.Chart(view, mainWidth))
	}
	main := lipgloss.NewStyle().Width(mainWidth).Render(b.String())
	side := m.styles.panel.Width(sideWidth).Render(m.renderSessionRolls())
	return lipgloss.JoinHorizontal(lipgloss.Top, main, side)
}

// renderSessionRolls lists this session's rolls, newest first.
func (m model) renderSessionRolls() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Rolls") + "\n")
	if len(m.rolls) == 0 {
		b.WriteString(m.styles.muted.Render("(none yet)"))
		return b.String()
	}
	limit := 15
	if m.height > 10 {
		limit = m.height - 8
	}
	for i := len(m.rolls) - 1; i >= 0 && len(m.rolls)-i <= limit; i-- {
		r := m.rolls[i]
		fmt.Fprintf(&b, "%-14s %s\n", abbrev(r.expr, 14), text.Number(r.value))
	}
	return b.String()
}

func abbrev(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func (m model) renderHistory() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("History") + "\n")
	if m.historyErr != nil {
		b.WriteString(m.styles.muted.Render(m.historyErr.Error()) + "\n")
		return b.String()
	}
	if len(m.history) == 0 {
		b.WriteString("(no stored rolls)\n")
	}
	for _, r := range m.history {
		fmt.Fprintf(&b, "%s  %-24s %8s  %s\n", r.CreatedAt.Format("01-02 15:04"), abbrev(r.Expression, 24), text.Number(r.Value), m.renderer.Trace(r.Trace))
	}
	return b.String()
}

func (m model) renderPresets() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Presets") + "  " + m.styles.muted.Render("roll with @name, save with :save name") + "\n")
	if m.presetsErr != nil {
		b.WriteString(m.styles.muted.Render(m.presetsErr.Error()) + "\n")
		return b.String()
	}
	if len(m.presets) == 0 {
		b.WriteString("(no presets)\n")
	}
	for _, p := range m.presets {
		fmt.Fprintf(&b, "@%-20s %s\n", p.Name, p.Expression)
	}
	return b.String()
}


// scroll cuts content to the lines that fit below the top bar.
func (m model) scroll(content string) string {
	lines := strings.Split(content, "\n")
	avail := m.height - 4
	if avail <= 5 || len(lines) <= avail {
		return content
	}
	off := min(m.scrollOffset, len(lines)-avail)
	return strings.Join(lines[off:off+avail], "\n")
}
