package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/shared"
)

const runColumns = `id, sequence, playlist_id, spreadsheet_id, sheet_range, dry_run, status, tracks_total, albums_total,
		rows_appended, error_message, started_at, completed_at, created_at, updated_at, deleted_at`

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// RunRepository implements models.Repository[*models.SyncRun] for sync run history.
//
// It also records the albums each run appended, and satisfies the engine's run recorder through [RunRepository.StartRun] and [RunRepository.FinishRun].
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.SyncRun] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.SyncRun) error {
	return r.create(context.Background(), run)
}

// StartRun records a run as it begins.
func (r *RunRepository) StartRun(ctx context.Context, run *models.SyncRun) error {
	return r.create(ctx, run)
}

func (r *RunRepository) create(ctx context.Context, run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO runs (id, sequence, playlist_id, spreadsheet_id, sheet_range, dry_run, status, tracks_total, albums_total,
			rows_appended, error_message, started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		sequence,
		run.PlaylistID(),
		run.SpreadsheetID(),
		run.SheetRange(),
		run.DryRun(),
		string(run.Status()),
		run.TracksTotal(),
		run.AlbumsTotal(),
		run.RowsAppended(),
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		nullTime(run.CompletedAt()),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", shared.ErrNotFound, id)
	}
	return run, err
}

// Update writes the run's status, counts and completion time
func (r *RunRepository) Update(run *models.SyncRun) error {
	return r.update(context.Background(), r.db, run)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *RunRepository) update(ctx context.Context, db execer, run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET status = ?, tracks_total = ?, albums_total = ?, rows_appended = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.ExecContext(ctx, query,
		string(run.Status()),
		run.TracksTotal(),
		run.AlbumsTotal(),
		run.RowsAppended(),
		nullString(run.ErrorMessage()),
		nullTime(run.CompletedAt()),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run not found or already deleted: %s", shared.ErrNotFound, run.ID())
	}

	return nil
}

// FinishRun stores the final state of run together with the albums it appended, in one transaction.
func (r *RunRepository) FinishRun(ctx context.Context, run *models.SyncRun, appended []models.Album) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.update(ctx, tx, run); err != nil {
		return err
	}
	if err := insertAlbums(ctx, tx, run.ID(), appended); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run not found or already deleted: %s", shared.ErrNotFound, id)
	}

	return nil
}

// List retrieves runs newest first, excluding soft-deleted runs.
//
// Supported criteria: "status" (string), "playlist_id" (string), "dry_run" (bool), "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	if dryRun, ok := criteria["dry_run"].(bool); ok {
		query += " AND dry_run = ?"
		args = append(args, dryRun)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// AddAlbums records albums appended by the run with the given ID, after any already recorded.
func (r *RunRepository) AddAlbums(runID string, albums []models.Album) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertAlbums(context.Background(), tx, runID, albums); err != nil {
		return err
	}
	return tx.Commit()
}

// Albums returns the albums appended by a run in append order.
func (r *RunRepository) Albums(runID string) ([]models.Album, error) {
	query := `
		SELECT album_id, uri, name, artists, date
		FROM run_albums
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run albums: %w", err)
	}
	defer rows.Close()

	var albums []models.Album
	for rows.Next() {
		var a models.Album
		if err := rows.Scan(&a.ID, &a.URI, &a.Name, &a.Artists, &a.Date); err != nil {
			return nil, fmt.Errorf("failed to scan run album: %w", err)
		}
		if day, err := time.Parse(models.DateFormat, a.Date); err == nil {
			a.AddedAt = day
		}
		albums = append(albums, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return albums, nil
}

func insertAlbums(ctx context.Context, tx *sql.Tx, runID string, albums []models.Album) error {
	if len(albums) == 0 {
		return nil
	}

	var start int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position) + 1, 0) FROM run_albums WHERE run_id = ?", runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get album position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_albums (run_id, position, album_id, uri, name, artists, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare album insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range albums {
		if _, err := stmt.ExecContext(ctx, runID, start+i, a.ID, a.URI, a.Name, a.Artists, a.Date); err != nil {
			return fmt.Errorf("failed to insert album %s: %w", a.URI, err)
		}
	}
	return nil
}

// scanRun scans a single row into a [models.SyncRun]
func scanRun(row scanner) (*models.SyncRun, error) {
	var (
		id            string
		sequence      int
		playlistID    string
		spreadsheetID string
		sheetRange    string
		dryRun        bool
		status        string
		tracksTotal   int
		albumsTotal   int
		rowsAppended  int
		errorMessage  sql.NullString
		startedAt     time.Time
		completedAt   sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := row.Scan(&id, &sequence, &playlistID, &spreadsheetID, &sheetRange, &dryRun, &status, &tracksTotal, &albumsTotal,
		&rowsAppended, &errorMessage, &startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return models.RestoreSyncRun(
		id, sequence, playlistID, spreadsheetID, sheetRange, dryRun,
		models.RunStatus(status), tracksTotal, albumsTotal, rowsAppended, errorMessage.String,
		startedAt, timePtr(completedAt), createdAt, updatedAt, timePtr(deletedAt),
	), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
