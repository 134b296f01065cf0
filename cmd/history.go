package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// runView is the JSON shape of a recorded run.
type runView struct {
	ID           string         `json:"id"`
	Sequence     int            `json:"sequence"`
	PlaylistID   string         `json:"playlist_id"`
	Spreadsheet  string         `json:"spreadsheet_id"`
	Range        string         `json:"range"`
	DryRun       bool           `json:"dry_run"`
	Status       string         `json:"status"`
	Tracks       int            `json:"tracks"`
	Albums       int            `json:"albums"`
	RowsAppended int            `json:"rows_appended"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Appended     []models.Album `json:"appended,omitempty"`
}

func newRunView(run *models.SyncRun) runView {
	return runView{
		ID:           run.ID(),
		Sequence:     run.Sequence(),
		PlaylistID:   run.PlaylistID(),
		Spreadsheet:  run.SpreadsheetID(),
		Range:        run.SheetRange(),
		DryRun:       run.DryRun(),
		Status:       string(run.Status()),
		Tracks:       run.TracksTotal(),
		Albums:       run.AlbumsTotal(),
		RowsAppended: run.RowsAppended(),
		Error:        run.ErrorMessage(),
		StartedAt:    run.StartedAt(),
		CompletedAt:  run.CompletedAt(),
	}
}

// HistoryList prints recorded runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.history(ctx)
	if err != nil {
		return err
	}

	runs, err := repo.List(map[string]any{
		"status": cmd.String("status"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = newRunView(run)
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded\n")
	}

	for _, run := range runs {
		mode := ""
		if run.DryRun() {
			mode = " (dry run)"
		}
		r.writePlain("#%d %s %s%s\n", run.Sequence(), run.StartedAt().Local().Format(time.DateTime), run.Status(), mode)
		r.writePlain("   ID: %s\n", run.ID())
		r.writePlain("   Tracks: %d, Albums: %d, Appended: %d\n", run.TracksTotal(), run.AlbumsTotal(), run.RowsAppended())
		if run.ErrorMessage() != "" {
			r.writePlain("   Error: %s\n", run.ErrorMessage())
		}
	}
	return nil
}

// HistoryShow prints one run and the albums it appended.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	repo, err := r.history(ctx)
	if err != nil {
		return err
	}

	run, err := repo.Get(id)
	if err != nil {
		return err
	}
	albums, err := repo.Albums(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		view := newRunView(run)
		view.Appended = albums
		return r.writeJSON(view, true)
	}

	r.writePlain("Run #%d (%s)\n", run.Sequence(), run.ID())
	r.writePlain("Status: %s\n", run.Status())
	r.writePlain("Playlist: %s\n", run.PlaylistID())
	r.writePlain("Sheet: %s %s\n", run.SpreadsheetID(), run.SheetRange())
	r.writePlain("Dry run: %t\n", run.DryRun())
	r.writePlain("Started: %s\n", run.StartedAt().Local().Format(time.DateTime))
	if run.CompletedAt() != nil {
		r.writePlain("Duration: %s\n", run.Duration().Round(time.Millisecond))
	}
	r.writePlain("Tracks: %d, Albums: %d, Appended: %d\n", run.TracksTotal(), run.AlbumsTotal(), run.RowsAppended())
	if run.ErrorMessage() != "" {
		r.writePlain("Error: %s\n", run.ErrorMessage())
	}

	if len(albums) > 0 {
		r.writePlain("\nAppended albums:\n")
		for i, album := range albums {
			r.writePlain("%d. %s | %s | %s | %s\n", i+1, album.Date, album.Name, album.Artists, album.URI)
		}
	}
	return nil
}

// HistoryDelete removes a run from the history.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	repo, err := r.history(ctx)
	if err != nil {
		return err
	}

	if err := repo.Delete(id); err != nil {
		return err
	}

	r.logger.Info("deleted run", "id", id)
	return r.writePlain("✓ Run %s deleted\n", id)
}
