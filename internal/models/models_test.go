package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/albumsync/internal/shared"
)

func TestNewTrack(t *testing.T) {
	album := TrackAlbum{ID: "alb1", Name: "Album", Artists: []string{"A", "B"}, URI: "spotify:album:alb1"}

	t.Run("valid", func(t *testing.T) {
		track, err := NewTrack("t1", "Song", []string{"A"}, "2018-03-04T22:10:00Z", album)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := time.Date(2018, 3, 4, 22, 10, 0, 0, time.UTC)
		if !track.AddedAt.Equal(want) {
			t.Errorf("expected %v, got %v", want, track.AddedAt)
		}
		if track.String() != "Song - A" {
			t.Errorf("unexpected String() %q", track.String())
		}
	})

	tests := []struct {
		name    string
		addedAt string
		album   TrackAlbum
		field   string
	}{
		{name: "missing added_at", addedAt: "", album: album, field: "added_at"},
		{name: "garbage added_at", addedAt: "yesterday", album: album, field: "added_at"},
		{name: "missing album id", addedAt: "2018-03-04T22:10:00Z", album: TrackAlbum{URI: "spotify:album:x"}, field: "album.id"},
		{name: "missing album uri", addedAt: "2018-03-04T22:10:00Z", album: TrackAlbum{ID: "x"}, field: "album.uri"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTrack("t1", "Song", nil, tt.addedAt, tt.album)
			if !errors.Is(err, shared.ErrDataShape) {
				t.Fatalf("expected ErrDataShape, got %v", err)
			}
			var shapeErr *shared.DataShapeError
			if !errors.As(err, &shapeErr) || shapeErr.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestParseAddedAt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "2017-01-01T00:00:00Z", want: "01/01/2017"},
		{in: "2017-12-31T23:59:59.123Z", want: "12/31/2017"},
		{in: "2017-06-05T23:30:00-05:00", want: "06/05/2017"},
		{in: "2017-06-05", want: "06/05/2017"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddedAt(tt.in)
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if got.Format(DateFormat) != tt.want {
				t.Errorf("got %s, want %s", got.Format(DateFormat), tt.want)
			}
		})
	}
}

func TestNewAlbum(t *testing.T) {
	track, err := NewTrack("t1", "Song", []string{"Solo"}, "2018-03-04T10:00:00Z", TrackAlbum{
		ID: "abc", Name: "X", Artists: []string{"A", "B"}, URI: "spotify:album:abc",
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	album := NewAlbum(*track)
	want := Album{ID: "abc", Date: "03/04/2018", Name: "X", Artists: "A, B", URI: "spotify:album:abc", AddedAt: track.AddedAt}
	if album != want {
		t.Errorf("got %+v, want %+v", album, want)
	}

	if day := album.Day(); !day.Equal(time.Date(2018, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected day %v", day)
	}
}

func TestSheetRow(t *testing.T) {
	t.Run("converts scalar cells", func(t *testing.T) {
		row, err := NewSheetRow([]any{"1/1/2020", 3.0, "A", true, nil})
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		want := SheetRow{"1/1/2020", "3", "A", "true", ""}
		for i := range want {
			if row[i] != want[i] {
				t.Errorf("cell %d = %q, want %q", i, row[i], want[i])
			}
		}
		if row.Recorded() {
			t.Error("row with empty URI cell must not count as recorded")
		}
	})

	t.Run("rejects nested cells", func(t *testing.T) {
		_, err := NewSheetRows([][]any{{"ok"}, {map[string]any{"x": 1}}})
		if !errors.Is(err, shared.ErrDataShape) {
			t.Errorf("expected ErrDataShape, got %v", err)
		}
	})

	tests := []struct {
		name string
		row  SheetRow
		want string
	}{
		{name: "full row", row: SheetRow{"1/1/2020", "", "A", "Artist1", "uri1"}, want: "uri1"},
		{name: "short row", row: SheetRow{"1/1/2020", "", "A", "Artist1"}, want: ""},
		{name: "empty", row: SheetRow{}, want: ""},
		{name: "extra columns", row: SheetRow{"d", "f", "n", "a", "uri2", "note"}, want: "uri2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.URI(); got != tt.want {
				t.Errorf("URI() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSyncRun(t *testing.T) {
	t.Run("lifecycle", func(t *testing.T) {
		run := NewSyncRun("pl", "sheet", "Listened!A2:E", false)
		if run.Status() != RunStatusRunning {
			t.Fatalf("expected running, got %s", run.Status())
		}
		if err := run.Validate(); err != nil {
			t.Fatalf("expected valid run, got %v", err)
		}

		run.SetCounts(10, 4)
		run.Complete(3)
		if run.Status() != RunStatusCompleted || run.RowsAppended() != 3 {
			t.Errorf("unexpected state %s/%d", run.Status(), run.RowsAppended())
		}
		if run.CompletedAt() == nil || run.Duration() < 0 {
			t.Error("expected completion time")
		}
	})

	t.Run("fail records message", func(t *testing.T) {
		run := NewSyncRun("pl", "sheet", "r", true)
		run.Fail(errors.New("boom"))
		if run.Status() != RunStatusFailed || run.ErrorMessage() != "boom" {
			t.Errorf("unexpected state %s/%q", run.Status(), run.ErrorMessage())
		}
	})

	t.Run("validate", func(t *testing.T) {
		tests := []struct {
			name string
			run  *SyncRun
		}{
			{name: "missing playlist", run: NewSyncRun("", "sheet", "r", false)},
			{name: "missing sheet", run: NewSyncRun("pl", "", "r", false)},
			{name: "bad status", run: RestoreSyncRun("id", 1, "pl", "sheet", "r", false, "paused", 0, 0, 0, "", time.Now(), nil, time.Now(), time.Now(), nil)},
			{name: "too many rows", run: RestoreSyncRun("id", 1, "pl", "sheet", "r", false, RunStatusCompleted, 1, 1, 2, "", time.Now(), nil, time.Now(), time.Now(), nil)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := tt.run.Validate(); err == nil {
					t.Error("expected validation error")
				}
			})
		}
	})
}
