package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/albumsync/internal/formatter"
	"github.com/desertthunder/albumsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

const (
	startHeader       = "Album a day updater"
	startHeaderLength = 50
	doneHeader        = "Done!"
)

// Sync fetches the playlist, compares its albums with the sheet and appends the missing ones.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	interactive := cmd.Bool("interactive")
	if interactive {
		restore, err := r.logToFile(tuiLogPath)
		if err != nil {
			return err
		}
		defer restore()
	}

	engine, err := r.syncEngine(ctx, !cmd.Bool("no-history"))
	if err != nil {
		return err
	}

	if interactive {
		return r.syncInteractive(ctx, engine)
	}

	dryRun := cmd.Bool("dry-run")
	r.writeHeader(startHeader, startHeaderLength)
	r.logger.Info("starting sync", "playlist", r.config.Playlist.ID, "sheet", r.config.Sheet.SpreadsheetID, "dry_run", dryRun)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	result, err := engine.Run(ctx, progressCh, tasks.SyncOptions{DryRun: dryRun})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if dryRun {
		if err := r.printPlan(result); err != nil {
			return err
		}
	}

	r.writeHeader(doneHeader, 0)
	return nil
}

// syncEngine wires the services and, unless disabled, the history recorder.
// A history database that cannot be opened only disables recording.
func (r *Runner) syncEngine(ctx context.Context, record bool) (*tasks.SyncEngine, error) {
	source, err := r.trackSource(ctx)
	if err != nil {
		return nil, err
	}
	sheets, err := r.sheetService(ctx)
	if err != nil {
		return nil, err
	}

	engine, err := r.engine(source, sheets)
	if err != nil {
		return nil, err
	}

	if record {
		repo, err := r.history(ctx)
		if err != nil {
			r.logger.Warn("run history disabled", "error", err)
		} else {
			engine.WithRecorder(repo)
		}
	}

	return engine, nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.FetchTracks:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.BuildAlbums:
		r.writePlain("💿 %s\n", update.Message)
	case tasks.ReadSheet:
		r.writePlain("📄 %s\n", update.Message)
	case tasks.Compare:
		r.writePlain("🔍 %s\n", update.Message)
	case tasks.AppendRows:
		r.writePlain("📝 %s\n", update.Message)
	case tasks.Done:
		r.writePlain("%s\n", update.Message)
	}
}

func (r *Runner) printPlan(result *tasks.SyncResult) error {
	if result.Plan.Empty() {
		return r.writePlainln("Sheet is up to date, nothing to append")
	}

	r.writePlainln("Dry run, %d rows would be appended:", len(result.Plan.Rows))
	data, err := formatter.ExportToText(result.Plan.Missing)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
