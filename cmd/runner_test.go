package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/repositories"
	"github.com/desertthunder/albumsync/internal/shared"
	tu "github.com/desertthunder/albumsync/internal/testing"
)

type fixture struct {
	runner *Runner
	output *bytes.Buffer
	source *tu.MockTrackSource
	sheets *tu.MockSheetService
	db     *sql.DB
	config *shared.Config
	path   string
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	config := shared.DefaultConfig()
	config.Sheet.SpreadsheetID = "sheet-1"

	f := &fixture{
		output: &bytes.Buffer{},
		source: &tu.MockTrackSource{
			PageSize: 2,
			Tracks: []models.Track{
				tu.MustTrack(t, "t1", "A", "Album A", []string{"X"}, "2018-03-04T10:00:00Z"),
				tu.MustTrack(t, "t2", "A", "Album A", []string{"X"}, "2018-03-04T11:00:00Z"),
				tu.MustTrack(t, "t3", "B", "Album B", []string{"Y", "Z"}, "2018-03-05T10:00:00Z"),
			},
		},
		sheets: &tu.MockSheetService{},
		db:     newTestDB(t),
		config: config,
		path:   filepath.Join(t.TempDir(), "config.toml"),
	}

	f.runner = NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: f.path,
		Source:     f.source,
		Sheets:     f.sheets,
		DB:         f.db,
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     f.output,
		Open:       func(string) error { return nil },
	})
	return f
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	argv := append([]string{"albumsync", "--config", f.path}, args...)
	return newApp(f.runner).Run(context.Background(), argv)
}

func (f *fixture) runs(t *testing.T) []*models.SyncRun {
	t.Helper()
	runs, err := repositories.NewRunRepository(f.db).List(nil)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	return runs
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			source := &tu.MockTrackSource{}
			sheets := &tu.MockSheetService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Source:     source,
				Sheets:     sheets,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.source != source {
				t.Error("expected source to be set")
			}
			if runner.sheets != sheets {
				t.Error("expected sheets to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.open == nil {
				t.Error("expected browser opener to be set")
			}
		})

		t.Run("Close without database", func(t *testing.T) {
			if err := NewRunner(RunnerOpts{}).Close(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected marshal error")
			}
		})

		t.Run("handles write errors", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON("x", false); err == nil {
				t.Error("expected write error")
			}

			limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner = NewRunner(RunnerOpts{Output: &limited})
			if err := runner.writeJSON("x", false); err == nil || !strings.Contains(err.Error(), "newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writeHeader", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeHeader(startHeader, startHeaderLength); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), strings.Repeat("*", 50)+"\n") {
			t.Errorf("expected 50 star rule, got %q", output.String())
		}
		if !strings.Contains(output.String(), startHeader) {
			t.Errorf("expected title, got %q", output.String())
		}
	})
}

func TestSync(t *testing.T) {
	t.Run("appends missing albums", func(t *testing.T) {
		f := newFixture(t)
		f.sheets.Rows = []models.SheetRow{{"03/05/2018", "0", "Album B", "Y, Z", "spotify:album:B"}}

		if err := f.run(t); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(f.sheets.Appended) != 1 || f.sheets.Appended[0][4] != "spotify:album:A" {
			t.Fatalf("unexpected appended rows %v", f.sheets.Appended)
		}
		if f.sheets.LastInputOption != "USER_ENTERED" || f.sheets.LastRange != "Listened!A2:E" {
			t.Errorf("unexpected append target %s %s", f.sheets.LastRange, f.sheets.LastInputOption)
		}

		output := f.output.String()
		if !strings.Contains(output, startHeader) || !strings.Contains(output, doneHeader) {
			t.Errorf("expected start and done headers, got %q", output)
		}
		if !strings.Contains(output, "1 rows appended") {
			t.Errorf("expected progress summary, got %q", output)
		}

		runs := f.runs(t)
		if len(runs) != 1 || runs[0].RowsAppended() != 1 || runs[0].Status() != models.RunStatusCompleted {
			t.Fatalf("expected one completed run, got %v", runs)
		}
		albums, err := repositories.NewRunRepository(f.db).Albums(runs[0].ID())
		if err != nil || len(albums) != 1 || albums[0].URI != "spotify:album:A" {
			t.Errorf("expected appended album in history, got %v, %v", albums, err)
		}
	})

	t.Run("second run appends nothing", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "sync"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := f.run(t, "sync"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if f.sheets.AppendCalls != 1 || len(f.sheets.Appended) != 2 {
			t.Errorf("expected one append of 2 rows, got %d calls and %d rows", f.sheets.AppendCalls, len(f.sheets.Appended))
		}
	})

	t.Run("dry run", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "--dry-run"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if f.sheets.AppendCalls != 0 {
			t.Error("dry run must not append")
		}
		output := f.output.String()
		if !strings.Contains(output, "2 rows would be appended") {
			t.Errorf("expected plan summary, got %q", output)
		}
		if !strings.Contains(output, "03/04/2018 | Album A | X | spotify:album:A") {
			t.Errorf("expected planned rows, got %q", output)
		}

		runs := f.runs(t)
		if len(runs) != 1 || !runs[0].DryRun() {
			t.Errorf("expected one dry run recorded, got %v", runs)
		}
	})

	t.Run("no history", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "sync", "--no-history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runs := f.runs(t); len(runs) != 0 {
			t.Errorf("expected no runs recorded, got %d", len(runs))
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		f := newFixture(t)
		f.config.Sheet.SpreadsheetID = ""

		if err := f.run(t); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if f.source.Requests() != 0 {
			t.Error("expected no requests with invalid config")
		}
	})

	t.Run("authentication error", func(t *testing.T) {
		f := newFixture(t)
		f.sheets.ReadErr = shared.NewAuthError("Google Sheets", "run auth google", errors.New("401"))

		err := f.run(t)
		if _, ok := shared.AsAuthError(err); !ok {
			t.Fatalf("expected authentication error, got %v", err)
		}
		if f.sheets.AppendCalls != 0 {
			t.Error("expected no append after auth failure")
		}

		runs := f.runs(t)
		if len(runs) != 1 || runs[0].Status() != models.RunStatusFailed {
			t.Errorf("expected failed run recorded, got %v", runs)
		}
	})
}

func TestAlbums(t *testing.T) {
	t.Run("prints albums", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "albums", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := f.output.String()
		if !strings.HasPrefix(output, "Date,Name,Artists,URI\n") {
			t.Errorf("expected CSV header, got %q", output)
		}
		if !strings.Contains(output, `03/05/2018,Album B,"Y, Z",spotify:album:B`) {
			t.Errorf("expected album row, got %q", output)
		}
		if f.sheets.ReadCalls != 0 {
			t.Error("albums must not read the sheet")
		}
	})

	t.Run("writes file", func(t *testing.T) {
		f := newFixture(t)
		path := filepath.Join(t.TempDir(), "albums.md")

		if err := f.run(t, "albums", "--format", "markdown", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if content := tu.MustReadFile(t, path); !strings.Contains(content, "# Album a day") {
			t.Errorf("expected markdown title, got %q", content)
		}
		if !strings.Contains(f.output.String(), "2 albums written") {
			t.Errorf("expected confirmation, got %q", f.output.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "albums", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	if err := f.run(t, "sync"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	runs := f.runs(t)
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	id := runs[0].ID()

	t.Run("list", func(t *testing.T) {
		f.output.Reset()
		if err := f.run(t, "history", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "#1") || !strings.Contains(f.output.String(), id) {
			t.Errorf("expected run in list, got %q", f.output.String())
		}
	})

	t.Run("list json", func(t *testing.T) {
		f.output.Reset()
		if err := f.run(t, "history", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), `"rows_appended": 2`) {
			t.Errorf("expected JSON run, got %q", f.output.String())
		}
	})

	t.Run("show", func(t *testing.T) {
		f.output.Reset()
		if err := f.run(t, "history", "show", id); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		output := f.output.String()
		if !strings.Contains(output, "Appended albums:") || !strings.Contains(output, "spotify:album:B") {
			t.Errorf("expected appended albums, got %q", output)
		}
	})

	t.Run("show missing id", func(t *testing.T) {
		if err := f.run(t, "history", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := f.run(t, "history", "delete", id); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := f.run(t, "history", "show", id); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		f := newFixture(t)
		f.config.Credentials.Google.APIKey = "key"

		if err := f.run(t, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := f.output.String()
		if !strings.Contains(output, "Spotify: ✓") {
			t.Errorf("expected spotify status, got %q", output)
		}
		if !strings.Contains(output, "API key") {
			t.Errorf("expected google API key status, got %q", output)
		}
	})

	t.Run("google requires client credentials", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "auth", "google"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, f.path)

		loaded, err := shared.LoadConfig(f.path)
		if err != nil {
			t.Fatalf("expected written config to load, got %v", err)
		}
		if loaded.Sheet.Range != "Listened!A2:E" {
			t.Errorf("unexpected range %q", loaded.Sheet.Range)
		}

		if err := f.run(t, "setup", "config"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected error for existing config, got %v", err)
		}
	})

	t.Run("database", func(t *testing.T) {
		f := newFixture(t)
		f.runner.db = nil
		f.config.Database.Path = filepath.Join(t.TempDir(), "history.db")
		t.Cleanup(func() { f.runner.Close() })

		if err := f.run(t, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, f.config.Database.Path)
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		want        int
		remediation bool
	}{
		{name: "success", err: nil, want: 0},
		{name: "auth", err: fmt.Errorf("sync: %w", shared.NewAuthError("Spotify", "Set SPOTIFY_CLIENT_ID", nil)), want: 1, remediation: true},
		{name: "cancelled", err: context.Canceled, want: 130},
		{name: "other", err: shared.ErrAPIRequest, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			var logged []string
			logf := func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) }

			if got := exitCode(tt.err, &stderr, logf); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
			if tt.remediation != strings.Contains(stderr.String(), "Set SPOTIFY_CLIENT_ID") {
				t.Errorf("unexpected remediation output %q", stderr.String())
			}
			if tt.err != nil && len(logged) == 0 {
				t.Error("expected error to be logged")
			}
		})
	}
}
