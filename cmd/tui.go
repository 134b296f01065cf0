package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/albumsync/internal/tasks"
	"github.com/desertthunder/albumsync/internal/ui"
)

const tuiLogPath = "./tmp/albumsync-tui.log"

// logToFile sends log output to path until the returned func restores stderr, so logs do not interfere with
// TUI rendering. It must run before services and the engine derive their child loggers.
func (r *Runner) logToFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	r.logger.SetOutput(logFile)
	return func() {
		r.logger.SetOutput(os.Stderr)
		logFile.Close()
	}, nil
}

// syncInteractive runs the review TUI.
func (r *Runner) syncInteractive(ctx context.Context, engine *tasks.SyncEngine) error {
	model := ui.NewModel(ctx, engine)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(r.output))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	result, err := model.Result()
	if err != nil {
		return err
	}
	if result != nil && result.RowsAppended > 0 {
		r.logger.Info("appended rows", "rows", result.RowsAppended)
	}
	return nil
}
