package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DaanHessen/rollwright/internal/roller"
	"github.com/DaanHessen/rollwright/internal/util"
)

// Run boots the console and blocks until it exits.
func Run(ctx context.Context, svc roller.Service, cfg util.Config, version string) error {
	m := initialModel(ctx, svc, cfg, version)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
