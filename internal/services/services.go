package services

import (
	"context"

	"github.com/desertthunder/albumsync/internal/models"
)

// ValueInputUserEntered makes the destination parse values as if typed by a user, so formulas are evaluated.
const ValueInputUserEntered = "USER_ENTERED"

// TrackSource fetches pages of playlist tracks.
type TrackSource interface {
	// PlaylistTracksPage returns the page of tracks starting at offset, along with the playlist's declared total.
	PlaylistTracksPage(ctx context.Context, ownerID, playlistID string, offset int) (*TrackPage, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// TrackPage is one page of playlist tracks.
type TrackPage struct {
	Items []models.Track
	Total int
}

// SheetService reads and appends spreadsheet rows.
type SheetService interface {
	// ReadRange returns every row currently stored in rng.
	ReadRange(ctx context.Context, spreadsheetID, rng string) ([]models.SheetRow, error)

	// AppendRows appends rows after the last row of rng in a single request and returns the number of rows written.
	AppendRows(ctx context.Context, spreadsheetID, rng, inputOption string, rows [][]any) (int, error)

	// Name returns the name of the service (e.g., "Google Sheets")
	Name() string
}
