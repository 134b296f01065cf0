package models

import (
	"fmt"
	"strconv"

	"github.com/desertthunder/albumsync/internal/shared"
)

// URIColumn is the zero-based column holding the album URI.
const URIColumn = 4

// SheetRow is one existing spreadsheet row as string cells.
type SheetRow []string

// NewSheetRow converts the raw cell values returned by the Sheets API.
//
// Cells arrive as strings for formatted values; numbers and booleans appear with unformatted reads.
func NewSheetRow(cells []any) (SheetRow, error) {
	row := make(SheetRow, len(cells))
	for i, cell := range cells {
		switch v := cell.(type) {
		case nil:
			row[i] = ""
		case string:
			row[i] = v
		case float64:
			row[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			row[i] = strconv.FormatBool(v)
		default:
			return nil, shared.NewDataShapeError("sheet_row", fmt.Sprintf("cell[%d]", i), fmt.Errorf("unsupported cell type %T", cell))
		}
	}
	return row, nil
}

// NewSheetRows converts every row of a value range.
func NewSheetRows(values [][]any) ([]SheetRow, error) {
	rows := make([]SheetRow, 0, len(values))
	for i, cells := range values {
		row, err := NewSheetRow(cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// URI returns the recorded album URI, or "" when the row is too short to hold one.
func (r SheetRow) URI() string {
	if len(r) <= URIColumn {
		return ""
	}
	return r[URIColumn]
}

// Recorded reports whether the row counts as an already recorded album.
func (r SheetRow) Recorded() bool {
	return r.URI() != ""
}
