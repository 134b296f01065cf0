package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/services"
	"github.com/desertthunder/albumsync/internal/shared"
)

// DefaultReferenceDate is the day the listening log starts.
var DefaultReferenceDate = time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)

// SheetConfig identifies the destination range and the formula written to its second column.
type SheetConfig struct {
	SpreadsheetID string
	Range         string
	Formula       string
}

// OffsetFormula returns the day-offset formula for column B.
//
// It counts the days between reference and the date in column A of the same row, minus the row's position,
// so a log with exactly one album per day evaluates to zero. Rows with an empty date evaluate to "".
func OffsetFormula(reference time.Time) string {
	return fmt.Sprintf(
		`=IF(ISBLANK(INDIRECT("A" & ROW())), "", (-1*(DATEDIF(DATE(%d,%d,%d),INDIRECT("A" & ROW()),"D")-(ROW()-2))))`,
		reference.Year(), int(reference.Month()), reference.Day(),
	)
}

// RecordedURIs collects the album URIs already present in rows. Rows too short to hold a URI are ignored.
func RecordedURIs(rows []models.SheetRow) map[string]struct{} {
	recorded := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.Recorded() {
			recorded[row.URI()] = struct{}{}
		}
	}
	return recorded
}

// MissingAlbums keeps the albums whose URI is not recorded, in input order.
func MissingAlbums(albums []models.Album, recorded map[string]struct{}) []models.Album {
	var missing []models.Album
	for _, album := range albums {
		if _, ok := recorded[album.URI]; !ok {
			missing = append(missing, album)
		}
	}
	return missing
}

// BuildRow lays out one album as [date, formula, name, artists, uri].
func BuildRow(album models.Album, formula string) []any {
	return []any{album.Date, formula, album.Name, album.Artists, album.URI}
}

// ReconcilePlan is what [Reconciler.Apply] will append.
type ReconcilePlan struct {
	ExistingRows int            // Rows read from the sheet
	Recorded     int            // Distinct URIs already recorded
	Missing      []models.Album // Albums to append, in order
	Rows         [][]any        // One row per missing album
}

// Empty reports whether there is nothing to append.
func (p *ReconcilePlan) Empty() bool {
	return p == nil || len(p.Rows) == 0
}

// Reconciler appends albums missing from the sheet.
type Reconciler struct {
	sheets services.SheetService
	config SheetConfig
	logger *log.Logger
}

// NewReconciler creates a [Reconciler]. An empty formula defaults to [OffsetFormula] of [DefaultReferenceDate].
func NewReconciler(sheets services.SheetService, config SheetConfig, logger *log.Logger) *Reconciler {
	if config.Formula == "" {
		config.Formula = OffsetFormula(DefaultReferenceDate)
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Reconciler{sheets: sheets, config: config, logger: logger}
}

// Plan reads the sheet and determines which albums to append.
func (r *Reconciler) Plan(ctx context.Context, albums []models.Album) (*ReconcilePlan, error) {
	if r.sheets == nil {
		return nil, fmt.Errorf("%w: sheet service not initialized", shared.ErrServiceUnavailable)
	}

	rows, err := r.sheets.ReadRange(ctx, r.config.SpreadsheetID, r.config.Range)
	if err != nil {
		return nil, wrapRequestError(err, "failed to read %s", r.config.Range)
	}

	return r.plan(rows, albums), nil
}

func (r *Reconciler) plan(rows []models.SheetRow, albums []models.Album) *ReconcilePlan {
	recorded := RecordedURIs(rows)
	missing := MissingAlbums(albums, recorded)

	plan := &ReconcilePlan{
		ExistingRows: len(rows),
		Recorded:     len(recorded),
		Missing:      missing,
		Rows:         make([][]any, 0, len(missing)),
	}
	for _, album := range missing {
		plan.Rows = append(plan.Rows, BuildRow(album, r.config.Formula))
	}

	r.logger.Debug("planned append", "existing_rows", plan.ExistingRows, "recorded", plan.Recorded, "missing", len(missing))
	return plan
}

// Apply appends the planned rows in a single request. An empty plan issues no request.
func (r *Reconciler) Apply(ctx context.Context, plan *ReconcilePlan) (int, error) {
	if plan.Empty() {
		r.logger.Info("sheet is up to date")
		return 0, nil
	}
	if r.sheets == nil {
		return 0, fmt.Errorf("%w: sheet service not initialized", shared.ErrServiceUnavailable)
	}

	for _, album := range plan.Missing {
		r.logger.Debug("adding album", "date", album.Date, "name", album.Name, "artists", album.Artists, "uri", album.URI)
	}

	n, err := r.sheets.AppendRows(ctx, r.config.SpreadsheetID, r.config.Range, services.ValueInputUserEntered, plan.Rows)
	if err != nil {
		return 0, wrapRequestError(err, "failed to append %d rows", len(plan.Rows))
	}
	return n, nil
}

// Reconcile plans and applies in one step.
func (r *Reconciler) Reconcile(ctx context.Context, albums []models.Album) (*ReconcilePlan, int, error) {
	plan, err := r.Plan(ctx, albums)
	if err != nil {
		return nil, 0, err
	}

	n, err := r.Apply(ctx, plan)
	if err != nil {
		return plan, 0, err
	}
	return plan, n, nil
}
