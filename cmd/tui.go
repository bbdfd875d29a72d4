package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pgbackups/internal/shared"
	"github.com/desertthunder/pgbackups/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal UI for browsing backups.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	fileLogger, logFile, err := shared.NewFileLogger("./tmp/pgbackups-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	engine, err := r.engine(cmd, io.Discard)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, engine)
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return model.Err()
}
