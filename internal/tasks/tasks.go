package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/services"
	"github.com/desertthunder/albumsync/internal/shared"
)

// SyncOptions modifies a single [SyncEngine.Run].
type SyncOptions struct {
	DryRun bool // Plan without appending
}

// SyncResult contains everything a run produced.
type SyncResult struct {
	Run          *models.SyncRun
	Aggregate    *AggregateResult
	Plan         *ReconcilePlan
	RowsAppended int
}

// RunRecorder persists run history. Recording failures are logged and never fail a run.
type RunRecorder interface {
	StartRun(ctx context.Context, run *models.SyncRun) error
	FinishRun(ctx context.Context, run *models.SyncRun, appended []models.Album) error
}

// SyncEngine runs the aggregator and the reconciler in sequence.
type SyncEngine struct {
	source   services.TrackSource
	sheets   services.SheetService
	playlist PlaylistConfig
	sheet    SheetConfig
	recorder RunRecorder
	logger   *log.Logger
}

// NewSyncEngine creates a new [SyncEngine] with the provided services.
func NewSyncEngine(
	source services.TrackSource, sheets services.SheetService,
	playlist PlaylistConfig, sheet SheetConfig, logger *log.Logger,
) *SyncEngine {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &SyncEngine{
		source:   source,
		sheets:   sheets,
		playlist: playlist,
		sheet:    sheet,
		logger:   logger,
	}
}

// WithRecorder enables run history.
func (e *SyncEngine) WithRecorder(recorder RunRecorder) *SyncEngine {
	e.recorder = recorder
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Albums runs only the aggregation step.
func (e *SyncEngine) Albums(ctx context.Context, progress chan<- ProgressUpdate) (*AggregateResult, error) {
	e.sendProgress(progress, fetchTracksUpdate(0, 0, e.source))

	result, err := aggregateAlbums(ctx, e.source, e.playlist, func(collected, total int) {
		e.sendProgress(progress, fetchTracksUpdate(collected, total, e.source))
	})
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, buildAlbumsUpdate(result))
	return result, nil
}

// Run fetches the playlist, diffs its albums against the sheet and appends the missing ones.
func (e *SyncEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts SyncOptions) (*SyncResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: track source not initialized", shared.ErrServiceUnavailable)
	}
	if e.sheets == nil {
		return nil, fmt.Errorf("%w: sheet service not initialized", shared.ErrServiceUnavailable)
	}

	run := models.NewSyncRun(e.playlist.PlaylistID, e.sheet.SpreadsheetID, e.sheet.Range, opts.DryRun)
	e.startRun(ctx, run)

	result, err := e.run(ctx, progress, run, opts)
	if err != nil {
		run.Fail(err)
		e.finishRun(ctx, run, nil)
		return nil, err
	}

	run.Complete(result.RowsAppended)
	if opts.DryRun {
		e.finishRun(ctx, run, nil)
	} else {
		e.finishRun(ctx, run, result.Plan.Missing)
	}

	e.sendProgress(progress, doneUpdate(result))
	return result, nil
}

// Apply appends the rows of a plan produced by a dry run, recording it as a new run.
//
// The sheet is not re-read, so rows appended by someone else since the plan was made are not detected.
func (e *SyncEngine) Apply(ctx context.Context, progress chan<- ProgressUpdate, planned *SyncResult) (*SyncResult, error) {
	if e.sheets == nil {
		return nil, fmt.Errorf("%w: sheet service not initialized", shared.ErrServiceUnavailable)
	}
	if planned == nil || planned.Plan == nil {
		return nil, fmt.Errorf("%w: no plan to apply", shared.ErrInvalidInput)
	}

	run := models.NewSyncRun(e.playlist.PlaylistID, e.sheet.SpreadsheetID, e.sheet.Range, false)
	if planned.Aggregate != nil {
		run.SetCounts(planned.Aggregate.Tracks, len(planned.Aggregate.Albums))
	}
	e.startRun(ctx, run)

	e.sendProgress(progress, appendRowsUpdate(len(planned.Plan.Rows)))
	n, err := NewReconciler(e.sheets, e.sheet, e.logger).Apply(ctx, planned.Plan)
	if err != nil {
		run.Fail(err)
		e.finishRun(ctx, run, nil)
		return nil, err
	}

	run.Complete(n)
	e.finishRun(ctx, run, planned.Plan.Missing)

	result := &SyncResult{Run: run, Aggregate: planned.Aggregate, Plan: planned.Plan, RowsAppended: n}
	e.sendProgress(progress, doneUpdate(result))
	return result, nil
}

func (e *SyncEngine) run(ctx context.Context, progress chan<- ProgressUpdate, run *models.SyncRun, opts SyncOptions) (*SyncResult, error) {
	result := &SyncResult{Run: run}

	aggregate, err := e.Albums(ctx, progress)
	if err != nil {
		return nil, err
	}
	result.Aggregate = aggregate
	run.SetCounts(aggregate.Tracks, len(aggregate.Albums))

	reconciler := NewReconciler(e.sheets, e.sheet, e.logger)

	e.sendProgress(progress, readSheetUpdate(e.sheet.Range))
	plan, err := reconciler.Plan(ctx, aggregate.Albums)
	if err != nil {
		return nil, err
	}
	result.Plan = plan
	e.sendProgress(progress, compareUpdate(plan, len(aggregate.Albums)))

	if opts.DryRun {
		e.logger.Info("dry run, skipping append", "rows", len(plan.Rows))
		return result, nil
	}

	e.sendProgress(progress, appendRowsUpdate(len(plan.Rows)))
	n, err := reconciler.Apply(ctx, plan)
	if err != nil {
		return nil, err
	}
	result.RowsAppended = n
	return result, nil
}

func (e *SyncEngine) startRun(ctx context.Context, run *models.SyncRun) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.StartRun(ctx, run); err != nil {
		e.logger.Warn("failed to record run start", "error", err)
	}
}

func (e *SyncEngine) finishRun(ctx context.Context, run *models.SyncRun, appended []models.Album) {
	if e.recorder == nil || run.ID() == "" {
		return
	}
	if err := e.recorder.FinishRun(ctx, run, appended); err != nil {
		e.logger.Warn("failed to record run result", "run", run.ID(), "error", err)
	}
}

// wrapRequestError adds context to a collaborator error.
//
// Authentication errors pass through unchanged; untyped errors are wrapped with [shared.ErrAPIRequest].
func wrapRequestError(err error, format string, args ...any) error {
	if _, ok := shared.AsAuthError(err); ok {
		return err
	}

	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrDataShape), errors.Is(err, shared.ErrNotFound):
		return fmt.Errorf("%s: %w", msg, err)
	default:
		return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, msg, err)
	}
}
