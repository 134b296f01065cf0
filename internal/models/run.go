package models

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a [SyncRun].
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SyncRun records one execution of the sync job.
type SyncRun struct {
	id            string
	sequence      int
	playlistID    string
	spreadsheetID string
	sheetRange    string
	dryRun        bool
	status        RunStatus
	tracksTotal   int
	albumsTotal   int
	rowsAppended  int
	errorMessage  string
	startedAt     time.Time
	completedAt   *time.Time
	createdAt     time.Time
	updatedAt     time.Time
	deletedAt     *time.Time
}

// NewSyncRun creates a running [SyncRun] started now.
func NewSyncRun(playlistID, spreadsheetID, sheetRange string, dryRun bool) *SyncRun {
	now := time.Now().UTC()
	return &SyncRun{
		playlistID:    playlistID,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		dryRun:        dryRun,
		status:        RunStatusRunning,
		startedAt:     now,
		createdAt:     now,
		updatedAt:     now,
	}
}

// RestoreSyncRun rebuilds a [SyncRun] from stored columns.
func RestoreSyncRun(
	id string, sequence int, playlistID, spreadsheetID, sheetRange string, dryRun bool,
	status RunStatus, tracksTotal, albumsTotal, rowsAppended int, errorMessage string,
	startedAt time.Time, completedAt *time.Time, createdAt, updatedAt time.Time, deletedAt *time.Time,
) *SyncRun {
	return &SyncRun{
		id:            id,
		sequence:      sequence,
		playlistID:    playlistID,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		dryRun:        dryRun,
		status:        status,
		tracksTotal:   tracksTotal,
		albumsTotal:   albumsTotal,
		rowsAppended:  rowsAppended,
		errorMessage:  errorMessage,
		startedAt:     startedAt,
		completedAt:   completedAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		deletedAt:     deletedAt,
	}
}

func (r *SyncRun) ID() string              { return r.id }
func (r *SyncRun) Sequence() int           { return r.sequence }
func (r *SyncRun) PlaylistID() string      { return r.playlistID }
func (r *SyncRun) SpreadsheetID() string   { return r.spreadsheetID }
func (r *SyncRun) SheetRange() string      { return r.sheetRange }
func (r *SyncRun) DryRun() bool            { return r.dryRun }
func (r *SyncRun) Status() RunStatus       { return r.status }
func (r *SyncRun) TracksTotal() int        { return r.tracksTotal }
func (r *SyncRun) AlbumsTotal() int        { return r.albumsTotal }
func (r *SyncRun) RowsAppended() int       { return r.rowsAppended }
func (r *SyncRun) ErrorMessage() string    { return r.errorMessage }
func (r *SyncRun) StartedAt() time.Time    { return r.startedAt }
func (r *SyncRun) CompletedAt() *time.Time { return r.completedAt }
func (r *SyncRun) CreatedAt() time.Time    { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time    { return r.updatedAt }
func (r *SyncRun) DeletedAt() *time.Time   { return r.deletedAt }

func (r *SyncRun) SetID(id string)              { r.id = id }
func (r *SyncRun) SetSequence(sequence int)     { r.sequence = sequence }
func (r *SyncRun) SetUpdatedAt(t time.Time)     { r.updatedAt = t }
func (r *SyncRun) SetCounts(tracks, albums int) { r.tracksTotal, r.albumsTotal = tracks, albums }

// Complete marks the run as finished after appending rows.
func (r *SyncRun) Complete(rowsAppended int) {
	now := time.Now().UTC()
	r.status = RunStatusCompleted
	r.rowsAppended = rowsAppended
	r.completedAt = &now
}

// Fail marks the run as failed with err.
func (r *SyncRun) Fail(err error) {
	now := time.Now().UTC()
	r.status = RunStatusFailed
	if err != nil {
		r.errorMessage = err.Error()
	}
	r.completedAt = &now
}

// Duration is the time between start and completion, zero while running.
func (r *SyncRun) Duration() time.Duration {
	if r.completedAt == nil {
		return 0
	}
	return r.completedAt.Sub(r.startedAt)
}

// Validate checks required fields and status consistency.
func (r *SyncRun) Validate() error {
	if r.playlistID == "" {
		return fmt.Errorf("playlist ID is required")
	}
	if r.spreadsheetID == "" {
		return fmt.Errorf("spreadsheet ID is required")
	}
	switch r.status {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
	default:
		return fmt.Errorf("invalid status %q", r.status)
	}
	if r.tracksTotal < 0 || r.albumsTotal < 0 || r.rowsAppended < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	if r.rowsAppended > r.albumsTotal {
		return fmt.Errorf("rows appended (%d) exceeds albums (%d)", r.rowsAppended, r.albumsTotal)
	}
	return nil
}
