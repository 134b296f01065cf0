package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/services"
	"github.com/desertthunder/albumsync/internal/shared"
	tu "github.com/desertthunder/albumsync/internal/testing"
)

const defaultFormula = `=IF(ISBLANK(INDIRECT("A" & ROW())), "", (-1*(DATEDIF(DATE(2017,1,1),INDIRECT("A" & ROW()),"D")-(ROW()-2))))`

func testAlbums() []models.Album {
	return []models.Album{
		{ID: "1", Date: "03/04/2018", Name: "First", Artists: "A, B", URI: "spotify:album:1"},
		{ID: "2", Date: "03/05/2018", Name: "Second", Artists: "C", URI: "spotify:album:2"},
		{ID: "3", Date: "03/06/2018", Name: "Third", Artists: "D", URI: "spotify:album:3"},
	}
}

func TestOffsetFormula(t *testing.T) {
	if got := OffsetFormula(DefaultReferenceDate); got != defaultFormula {
		t.Errorf("unexpected formula\n got: %s\nwant: %s", got, defaultFormula)
	}

	got := OffsetFormula(time.Date(2020, time.February, 9, 0, 0, 0, 0, time.UTC))
	want := `=IF(ISBLANK(INDIRECT("A" & ROW())), "", (-1*(DATEDIF(DATE(2020,2,9),INDIRECT("A" & ROW()),"D")-(ROW()-2))))`
	if got != want {
		t.Errorf("unexpected formula\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildRow(t *testing.T) {
	row := BuildRow(testAlbums()[0], defaultFormula)
	want := []any{"03/04/2018", defaultFormula, "First", "A, B", "spotify:album:1"}

	if len(row) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d: expected %v, got %v", i, want[i], row[i])
		}
	}
}

func TestRecordedURIs(t *testing.T) {
	rows := []models.SheetRow{
		{"03/04/2018", "0", "First", "A, B", "spotify:album:1"},
		{"03/05/2018", "0", "Second"},
		{"03/06/2018", "0", "Third", "D", ""},
		{"03/07/2018", "0", "Fourth", "E", "spotify:album:4", "extra"},
		{},
	}

	recorded := RecordedURIs(rows)

	if len(recorded) != 2 {
		t.Fatalf("expected 2 recorded URIs, got %d: %v", len(recorded), recorded)
	}
	for _, uri := range []string{"spotify:album:1", "spotify:album:4"} {
		if _, ok := recorded[uri]; !ok {
			t.Errorf("expected %s to be recorded", uri)
		}
	}
}

func TestMissingAlbums(t *testing.T) {
	t.Run("keeps input order", func(t *testing.T) {
		recorded := map[string]struct{}{"spotify:album:2": {}}

		missing := MissingAlbums(testAlbums(), recorded)

		if len(missing) != 2 || missing[0].ID != "1" || missing[1].ID != "3" {
			t.Errorf("expected albums 1 and 3, got %+v", missing)
		}
	})

	t.Run("everything recorded", func(t *testing.T) {
		recorded := map[string]struct{}{"spotify:album:1": {}, "spotify:album:2": {}, "spotify:album:3": {}}

		if missing := MissingAlbums(testAlbums(), recorded); len(missing) != 0 {
			t.Errorf("expected nothing missing, got %+v", missing)
		}
	})

	t.Run("empty sheet", func(t *testing.T) {
		if missing := MissingAlbums(testAlbums(), RecordedURIs(nil)); len(missing) != 3 {
			t.Errorf("expected all albums missing, got %d", len(missing))
		}
	})
}

func TestReconciler(t *testing.T) {
	config := SheetConfig{SpreadsheetID: "sheet", Range: "Listened!A2:E"}

	t.Run("appends only missing albums", func(t *testing.T) {
		sheets := &tu.MockSheetService{Rows: []models.SheetRow{
			{"03/05/2018", "0", "Second", "C", "spotify:album:2"},
		}}
		r := NewReconciler(sheets, config, nil)

		plan, n, err := r.Reconcile(context.Background(), testAlbums())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if n != 2 {
			t.Errorf("expected 2 rows appended, got %d", n)
		}
		if plan.ExistingRows != 1 || plan.Recorded != 1 {
			t.Errorf("unexpected plan counts %+v", plan)
		}
		if sheets.AppendCalls != 1 {
			t.Errorf("expected a single append request, got %d", sheets.AppendCalls)
		}
		if sheets.LastInputOption != services.ValueInputUserEntered {
			t.Errorf("expected USER_ENTERED, got %s", sheets.LastInputOption)
		}
		if sheets.LastRange != "Listened!A2:E" {
			t.Errorf("expected configured range, got %s", sheets.LastRange)
		}

		if len(sheets.Appended) != 2 {
			t.Fatalf("expected 2 appended rows, got %d", len(sheets.Appended))
		}
		first := sheets.Appended[0]
		if first[0] != "03/04/2018" || first[1] != defaultFormula || first[4] != "spotify:album:1" {
			t.Errorf("unexpected first row %v", first)
		}
		if sheets.Appended[1][4] != "spotify:album:3" {
			t.Errorf("expected album 3 second, got %v", sheets.Appended[1])
		}
	})

	t.Run("nothing missing issues no append", func(t *testing.T) {
		sheets := &tu.MockSheetService{}
		for _, a := range testAlbums() {
			sheets.Rows = append(sheets.Rows, models.SheetRow{a.Date, "0", a.Name, a.Artists, a.URI})
		}
		r := NewReconciler(sheets, config, nil)

		plan, n, err := r.Reconcile(context.Background(), testAlbums())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 0 || !plan.Empty() {
			t.Errorf("expected empty plan, got %d rows", len(plan.Rows))
		}
		if sheets.AppendCalls != 0 {
			t.Errorf("expected no append request, got %d", sheets.AppendCalls)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		sheets := &tu.MockSheetService{}
		r := NewReconciler(sheets, config, nil)

		if _, _, err := r.Reconcile(context.Background(), testAlbums()); err != nil {
			t.Fatalf("first run: %v", err)
		}
		_, n, err := r.Reconcile(context.Background(), testAlbums())
		if err != nil {
			t.Fatalf("second run: %v", err)
		}

		if n != 0 {
			t.Errorf("expected second run to append nothing, got %d", n)
		}
		if sheets.AppendCalls != 1 {
			t.Errorf("expected exactly one append across both runs, got %d", sheets.AppendCalls)
		}
		if len(sheets.Rows) != 3 {
			t.Errorf("expected 3 rows in sheet, got %d", len(sheets.Rows))
		}
	})

	t.Run("custom formula", func(t *testing.T) {
		sheets := &tu.MockSheetService{}
		r := NewReconciler(sheets, SheetConfig{SpreadsheetID: "sheet", Range: "A:E", Formula: "=0"}, nil)

		plan, err := r.Plan(context.Background(), testAlbums()[:1])
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if plan.Rows[0][1] != "=0" {
			t.Errorf("expected custom formula, got %v", plan.Rows[0][1])
		}
	})

	t.Run("read authentication error propagates", func(t *testing.T) {
		authErr := shared.NewAuthError("Google Sheets", "login", nil)
		r := NewReconciler(&tu.MockSheetService{ReadErr: authErr}, config, nil)

		_, _, err := r.Reconcile(context.Background(), testAlbums())
		if err != error(authErr) {
			t.Errorf("expected the original authentication error, got %v", err)
		}
	})

	t.Run("append failure", func(t *testing.T) {
		sheets := &tu.MockSheetService{AppendErr: errors.New("quota exceeded")}
		r := NewReconciler(sheets, config, nil)

		plan, n, err := r.Reconcile(context.Background(), testAlbums())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if n != 0 || plan == nil || len(plan.Rows) != 3 {
			t.Errorf("expected the plan to be returned with nothing appended")
		}
	})

	t.Run("nil sheet service", func(t *testing.T) {
		r := NewReconciler(nil, config, nil)
		if _, err := r.Plan(context.Background(), testAlbums()); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
