// Package ui is the interactive dice console.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DaanHessen/rollwright/internal/roller"
	"github.com/DaanHessen/rollwright/internal/store"
	"github.com/DaanHessen/rollwright/internal/text"
	"github.com/DaanHessen/rollwright/internal/util"
)

const (
	viewConsole = "console"
	viewHistory = "history"
	viewPresets = "presets"
	viewHelp    = "help"
)

// maxSessionRolls bounds the in-memory roll list.
const maxSessionRolls = 200

// commandPrefix starts a console command such as ":target 15".
const commandPrefix = ":"

type rollEntry struct {
	expr  string
	value int
	trace string
}

// distMsg carries a finished distribution back to Update.
type distMsg struct {
	gen int
	res *roller.DistResult
	err error
}

type historyMsg struct {
	recs []store.RollRecord
	err  error
}

type presetsMsg struct {
	presets []store.Preset
	err     error
}

type styles struct {
	title lipgloss.Style
	muted lipgloss.Style
	warn  lipgloss.Style
	panel lipgloss.Style
	input lipgloss.Style
}

func newStyles(p text.Palette) styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		muted: lipgloss.NewStyle().Foreground(p.Muted),
		warn:  lipgloss.NewStyle().Foreground(p.Warning),
		panel: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Border).Padding(0, 1),
		input: lipgloss.NewStyle().Foreground(p.AccentAlt),
	}
}

type model struct {
	ctx      context.Context
	svc      roller.Service
	version  string
	seedText string

	theme    string
	renderer text.Renderer
	styles   styles

	view   string
	width  int
	height int

	input    string
	recall   []string // submitted inputs, oldest first
	recallAt int
	target   *int
	status   string

	last    *roller.RollResult
	rollErr error
	rolls   []rollEntry

	// generation increases with every submitted expression; distMsgs from
	// older generations are dropped.
	generation int
	cancelDist context.CancelFunc
	dist       *roller.DistResult
	distErr    error
	computing  bool

	history    []store.RollRecord
	historyErr error
	presets    []store.Preset
	presetsErr error
	docs       string

	scrollOffset int
}

func initialModel(ctx context.Context, svc roller.Service, cfg util.Config, version string) model {
	m := model{
		ctx:      ctx,
		svc:      svc,
		version:  version,
		seedText: cfg.SeedText,
		view:     viewConsole,
	}
	m.applyTheme(cfg.Theme)
	return m
}

func (m *model) applyTheme(name string) {
	if _, ok := indexOf(text.ThemeNames(), name); !ok {
		name = text.DefaultTheme
	}
	m.theme = name
	p := text.PaletteFor(name)
	m.renderer = text.NewStyled(p)
	m.styles = newStyles(p)
}

func indexOf(list []string, s string) (int, bool) {
	for i, v := range list {
		if v == s {
			return i, true
		}
	}
	return -1, false
}

// tea.Model implementation ---------------------------------------------------
func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == viewHelp {
			m.prepareHelp()
		}
		return m, nil
	case distMsg:
		if msg.gen != m.generation {
			return m, nil
		}
		m.computing = false
		m.cancelDist = nil
		m.dist, m.distErr = msg.res, msg.err
		return m, nil
	case historyMsg:
		m.history, m.historyErr = msg.recs, msg.err
		return m, nil
	case presetsMsg:
		m.presets, m.presetsErr = msg.presets, msg.err
		return m, nil
	case tea.KeyMsg:
		k := msg.String()
		switch k {
		case "ctrl+c":
			m.stopDist()
			return m, tea.Quit
		case "tab":
			return m, m.cycleViews()
		case "ctrl+t":
			m.applyTheme(text.NextThemeName(m.theme, 1))
			return m, nil
		case "esc":
			if m.view != viewConsole {
				m.view = viewConsole
				return m, nil
			}
			m.stopDist()
			return m, tea.Quit
		}
		if m.view != viewConsole {
			switch k {
			case "down", "j", "pgdown":
				m.scrollOffset += 3
			case "up", "k", "pgup":
				m.scrollOffset = max(m.scrollOffset-3, 0)
			case "home":
				m.scrollOffset = 0
			case "?":
				m.view = viewConsole
			}
			return m, nil
		}
		switch k {
		case "enter":
			return m, m.submit()
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case "ctrl+u":
			m.input = ""
		case "up":
			if m.recallAt > 0 {
				m.recallAt--
				m.input = m.recall[m.recallAt]
			}
		case "down":
			if m.recallAt < len(m.recall)-1 {
				m.recallAt++
				m.input = m.recall[m.recallAt]
			} else {
				m.recallAt = len(m.recall)
				m.input = ""
			}
		case "?":
			if m.input == "" {
				m.view = viewHelp
				m.scrollOffset = 0
				m.prepareHelp()
				return m, nil
			}
			m.input += k
		default:
			if isRuneInput(k) {
				m.input += k
			}
		}
	}
	return m, nil
}

func (m *model) cycleViews() tea.Cmd {
	m.scrollOffset = 0
	switch m.view {
	case viewConsole:
		m.view = viewHistory
		return m.loadHistory()
	case viewHistory:
		m.view = viewPresets
		return m.loadPresets()
	case viewPresets:
		m.view = viewHelp
		m.prepareHelp()
	default:
		m.view = viewConsole
	}
	return nil
}

// prepareHelp renders the function reference for the current width.
func (m *model) prepareHelp() {
	m.docs = text.Docs(m.svc.Functions(), m.contentWidth()-2) +
		"\nCommands: :target N | :target off | :save NAME | :delete NAME | :theme\n"
}

func (m *model) stopDist() {
	if m.cancelDist != nil {
		m.cancelDist()
		m.cancelDist = nil
	}
}

// submit rolls the input at once and starts its distribution in the background.
func (m *model) submit() tea.Cmd {
	in := strings.TrimSpace(m.input)
	if in == "" {
		return nil
	}
	m.input = ""
	m.recall = append(m.recall, in)
	m.recallAt = len(m.recall)
	m.status = ""
	if strings.HasPrefix(in, commandPrefix) {
		return m.command(strings.Fields(in[len(commandPrefix):]))
	}
	return m.rollExpression(in)
}

func (m *model) rollExpression(expr string) tea.Cmd {
	m.generation++
	m.stopDist()

	res, err := m.svc.Roll(m.ctx, expr)
	m.last, m.rollErr = res, err
	if err != nil {
		m.dist, m.distErr, m.computing = nil, nil, false
		return nil
	}
	m.rolls = append(m.rolls, rollEntry{expr: expr, value: res.Value, trace: m.renderer.Trace(res.Trace)})
	if len(m.rolls) > maxSessionRolls {
		m.rolls = m.rolls[len(m.rolls)-maxSessionRolls:]
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelDist = cancel
	m.computing = true
	return distCmd(ctx, m.svc, m.generation, expr, m.target)
}

func distCmd(ctx context.Context, svc roller.Service, gen int, expr string, target *int) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Distribution(ctx, expr, target)
		return distMsg{gen: gen, res: res, err: err}
	}
}

func (m *model) loadHistory() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		recs, err := svc.History(ctx, 0)
		return historyMsg{recs: recs, err: err}
	}
}

func (m *model) loadPresets() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		ps, err := svc.Presets(ctx)
		return presetsMsg{presets: ps, err: err}
	}
}

// command runs ":target N", ":target off", ":save NAME", ":delete NAME" and ":theme".
func (m *model) command(fields []string) tea.Cmd {
	if len(fields) == 0 {
		m.status = "empty command"
		return nil
	}
	switch fields[0] {
	case "target":
		if len(fields) != 2 {
			m.status = "usage: :target N | :target off"
			return nil
		}
		if fields[1] == "off" {
			m.target = nil
			m.status = "target cleared"
			return m.rerun()
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			m.status = "target must be a whole number"
			return nil
		}
		m.target = &n
		m.status = "target set to " + text.Number(n)
		return m.rerun()
	case "save":
		if len(fields) != 2 || m.last == nil {
			m.status = "usage: :save NAME (saves the last rolled expression)"
			return nil
		}
		if err := m.svc.SavePreset(m.ctx, fields[1], m.last.Expression); err != nil {
			m.status = err.Error()
			return nil
		}
		m.status = "saved @" + fields[1]
	case "delete":
		if len(fields) != 2 {
			m.status = "usage: :delete NAME"
			return nil
		}
		if err := m.svc.DeletePreset(m.ctx, fields[1]); err != nil {
			m.status = err.Error()
			return nil
		}
		m.status = "deleted @" + fields[1]
	case "theme":
		m.applyTheme(text.NextThemeName(m.theme, 1))
		m.status = "theme " + m.theme
	default:
		m.status = fmt.Sprintf("unknown command %q", fields[0])
	}
	return nil
}

// rerun recomputes the last distribution so a new target shows up.
func (m *model) rerun() tea.Cmd {
	if m.last == nil {
		return nil
	}
	m.generation++
	m.stopDist()
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelDist = cancel
	m.computing = true
	return distCmd(ctx, m.svc, m.generation, m.last.Expression, m.target)
}

func isRuneInput(s string) bool {
	runes := []rune(s)
	return len(runes) == 1 && runes[0] >= 32 && runes[0] < 127
}
