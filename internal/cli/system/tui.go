package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/transfer"
	"github.com/julianstephens/habitflow/internal/tui"
)

type TuiCmd struct {
	Import string `help:"Browse an export file instead of the backend's data. Changes are not saved." type:"existingfile"`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	if c.Import != "" {
		doc, err := transfer.ReadFile(c.Import)
		if err != nil {
			return err
		}
		if err := ctx.Sync.Import(doc); err != nil {
			return err
		}
		logger.Info("Loaded export into TUI", "path", c.Import)
	}

	// session changes made elsewhere in the process reach the syncer
	events, stop := ctx.Auth.Subscribe(4)
	defer stop()
	go ctx.Sync.Watch(ctx.Ctx, events)

	m := tui.NewModel(ctx.Ctx, ctx.Sync, ctx.Auth, ctx.Calculator())
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
