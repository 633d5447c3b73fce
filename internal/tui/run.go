package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chazuruo/pdeck/internal/catalog"
	"github.com/chazuruo/pdeck/internal/workflow"
)

// Run starts the interactive interface and blocks until the user quits.
// Snapshot changes made by store are forwarded to the program.
func Run(ctx context.Context, store *catalog.Store, ctrl *workflow.Controller, opts Options) error {
	m := NewModel(ctx, ctrl, store, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	store.OnChange(func(c catalog.Change) {
		p.Send(changedMsg{change: c})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
