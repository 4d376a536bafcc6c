package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaanHessen/rollwright/internal/engine"
	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/roller"
	"github.com/DaanHessen/rollwright/internal/store"
	"github.com/DaanHessen/rollwright/internal/text"
	"github.com/DaanHessen/rollwright/internal/trace"
	"github.com/DaanHessen/rollwright/internal/util"
)

type fakeService struct {
	rolled  []string
	targets []*int
	saved   map[string]string
}

func (f *fakeService) Roll(_ context.Context, src string) (*roller.RollResult, error) {
	if strings.Contains(src, "bad") {
		return nil, errors.New("cannot parse")
	}
	f.rolled = append(f.rolled, src)
	return &roller.RollResult{Expression: src, Canonical: src, Value: 7, Trace: trace.Of("[7]")}, nil
}

func (f *fakeService) Distribution(_ context.Context, src string, target *int) (*roller.DistResult, error) {
	f.targets = append(f.targets, target)
	d := prob.Uniform(1, 6)
	return &roller.DistResult{Expression: src, Canonical: src, Masses: d.Masses(), Mean: 3.5, Sigma: d.Sigma(), Target: target}, nil
}

func (f *fakeService) Functions() []engine.FunctionDoc { return engine.Functions() }

func (f *fakeService) History(context.Context, int) ([]store.RollRecord, error) {
	return []store.RollRecord{{Expression: "d20", Value: 12, Trace: trace.Of("[12]")}}, nil
}

func (f *fakeService) SavePreset(_ context.Context, name, src string) error {
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[name] = src
	return nil
}

func (f *fakeService) Presets(context.Context) ([]store.Preset, error) {
	return nil, roller.ErrPresetsDisabled
}

func (f *fakeService) DeletePreset(context.Context, string) error { return store.ErrNotFound }

func newTestModel(svc roller.Service) model {
	return initialModel(context.Background(), svc, util.Config{Theme: "no-such-theme"}, "test")
}

func typeText(t *testing.T, m model, s string) model {
	t.Helper()
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(model)
	}
	return m
}

func press(m model, k tea.KeyType) (model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(model), cmd
}

func TestUnknownThemeFallsBack(t *testing.T) {
	m := newTestModel(&fakeService{})
	assert.Equal(t, text.DefaultTheme, m.theme)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, text.NextThemeName(text.DefaultTheme, 1), next.(model).theme)
}

func TestSubmitRollsAndComputesDistribution(t *testing.T) {
	svc := &fakeService{}
	m := typeText(t, newTestModel(svc), "2d6+1")
	assert.Equal(t, "2d6+1", m.input)

	m, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"2d6+1"}, svc.rolled)
	assert.Empty(t, m.input)
	assert.True(t, m.computing)
	require.Len(t, m.rolls, 1)

	next, _ := m.Update(cmd())
	m = next.(model)
	assert.False(t, m.computing)
	require.NotNil(t, m.dist)
	assert.Contains(t, m.View(), "mean 3.50")
}

func TestStaleDistributionIsDiscarded(t *testing.T) {
	svc := &fakeService{}
	m := typeText(t, newTestModel(svc), "d4")
	m, first := press(m, tea.KeyEnter)
	m = typeText(t, m, "d8")
	m, second := press(m, tea.KeyEnter)
	require.Equal(t, 2, m.generation)

	// the older request finishes last
	newer := second().(distMsg)
	next, _ := m.Update(newer)
	m = next.(model)
	require.NotNil(t, m.dist)
	assert.Equal(t, "d8", m.dist.Expression)

	older := first().(distMsg)
	next, _ = m.Update(older)
	m = next.(model)
	assert.Equal(t, "d8", m.dist.Expression)
}

func TestRollErrorClearsDistribution(t *testing.T) {
	m := typeText(t, newTestModel(&fakeService{}), "bad")
	m, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Error(t, m.rollErr)
	assert.Nil(t, m.dist)
	assert.Contains(t, m.View(), "cannot parse")
}

func TestRecallWalksSubmittedInputs(t *testing.T) {
	m := typeText(t, newTestModel(&fakeService{}), "d4")
	m, _ = press(m, tea.KeyEnter)
	m = typeText(t, m, "d6")
	m, _ = press(m, tea.KeyEnter)

	m, _ = press(m, tea.KeyUp)
	assert.Equal(t, "d6", m.input)
	m, _ = press(m, tea.KeyUp)
	assert.Equal(t, "d4", m.input)
	m, _ = press(m, tea.KeyDown)
	assert.Equal(t, "d6", m.input)
	m, _ = press(m, tea.KeyDown)
	assert.Empty(t, m.input)
}

func TestTargetCommandRerunsDistribution(t *testing.T) {
	svc := &fakeService{}
	m := typeText(t, newTestModel(svc), "d6")
	m, _ = press(m, tea.KeyEnter)
	m = typeText(t, m, ":target 5")
	m, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	require.NotNil(t, m.target)
	assert.Equal(t, 5, *m.target)

	next, _ := m.Update(cmd())
	m = next.(model)
	require.NotNil(t, m.dist.Target)
	assert.Equal(t, 5, *m.dist.Target)
	// commands are not rolled
	assert.Equal(t, []string{"d6"}, svc.rolled)

	m = typeText(t, m, ":target x")
	m, _ = press(m, tea.KeyEnter)
	assert.Contains(t, m.status, "whole number")
}

func TestPresetCommands(t *testing.T) {
	svc := &fakeService{}
	m := typeText(t, newTestModel(svc), ":save fireball")
	m, _ = press(m, tea.KeyEnter)
	assert.Contains(t, m.status, "usage")

	m = typeText(t, m, "8d6")
	m, _ = press(m, tea.KeyEnter)
	m = typeText(t, m, ":save fireball")
	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, "8d6", svc.saved["fireball"])
	assert.Equal(t, "saved @fireball", m.status)

	m = typeText(t, m, ":delete fireball")
	m, _ = press(m, tea.KeyEnter)
	assert.Contains(t, m.status, "not found")

	m = typeText(t, m, ":nope")
	m, _ = press(m, tea.KeyEnter)
	assert.Contains(t, m.status, "unknown command")
}

func TestTabCyclesViewsAndLoads(t *testing.T) {
	m := newTestModel(&fakeService{})
	m, cmd := press(m, tea.KeyTab)
	assert.Equal(t, viewHistory, m.view)
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(model)
	require.Len(t, m.history, 1)
	assert.Contains(t, m.View(), "d20")

	m, cmd = press(m, tea.KeyTab)
	assert.Equal(t, viewPresets, m.view)
	next, _ = m.Update(cmd())
	m = next.(model)
	assert.ErrorIs(t, m.presetsErr, roller.ErrPresetsDisabled)

	m, _ = press(m, tea.KeyTab)
	assert.Equal(t, viewHelp, m.view)
	assert.NotEmpty(t, m.docs)

	m, _ = press(m, tea.KeyTab)
	assert.Equal(t, viewConsole, m.view)
}

func TestEscapeLeavesSubviewThenQuits(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.view = viewHelp
	m, cmd := press(m, tea.KeyEsc)
	assert.Equal(t, viewConsole, m.view)
	assert.Nil(t, cmd)
	_, cmd = press(m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
