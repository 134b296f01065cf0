package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/shared"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsService implements [SheetService] over the Google Sheets v4 API.
type SheetsService struct {
	srv    *sheets.Service
	logger *log.Logger
}

// NewSheetsService creates a Sheets client; opts usually come from [GoogleClientOptions].
func NewSheetsService(ctx context.Context, logger *log.Logger, opts ...option.ClientOption) (*SheetsService, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, shared.NewAuthError(googleServiceName, googleRemediation, fmt.Errorf("unable to create sheets client: %w", err))
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &SheetsService{srv: srv, logger: logger}, nil
}

func (s *SheetsService) Name() string {
	return googleServiceName
}

// ReadRange returns the rows of rng. Trailing empty cells are omitted by the API, so rows may be ragged.
func (s *SheetsService) ReadRange(ctx context.Context, spreadsheetID, rng string) ([]models.SheetRow, error) {
	s.logger.Debug("reading sheet", "spreadsheet", spreadsheetID, "range", rng)

	resp, err := s.srv.Spreadsheets.Values.Get(spreadsheetID, rng).MajorDimension("ROWS").Context(ctx).Do()
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	rows, err := models.NewSheetRows(resp.Values)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("read sheet", "rows", len(rows))
	return rows, nil
}

// AppendRows appends rows after the last row of the table found in rng and returns how many rows were written.
func (s *SheetsService) AppendRows(ctx context.Context, spreadsheetID, rng, inputOption string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	body := &sheets.ValueRange{
		Range:          rng,
		MajorDimension: "ROWS",
		Values:         rows,
	}

	resp, err := s.srv.Spreadsheets.Values.Append(spreadsheetID, rng, body).
		ValueInputOption(inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return 0, classifyGoogleError(err)
	}

	updated := len(rows)
	if resp.Updates != nil && resp.Updates.UpdatedRows > 0 {
		updated = int(resp.Updates.UpdatedRows)
	}

	s.logger.Debug("appended rows", "rows", updated, "range", rng)
	return updated, nil
}

// classifyGoogleError maps 401/403 responses to [shared.AuthenticationError] and 404 to [shared.ErrNotFound].
func classifyGoogleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return shared.NewAuthError(googleServiceName, googleRemediation, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", shared.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
}
