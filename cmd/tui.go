package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/desertthunder/soundwave/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.settings().Log.File
	if logPath == "" {
		logPath = "./tmp/soundwave-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.settings().Log.Level))
	r.logger = fileLogger

	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := r.authorized(ctx, app, refreshNow(app)); err != nil {
		return err
	}
	app.Player.Bind(app.Session)

	model := ui.NewModel(ctx, app.Player, app.Devices, app.Library)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
