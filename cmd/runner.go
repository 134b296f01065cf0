package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/albumsync/internal/repositories"
	"github.com/desertthunder/albumsync/internal/services"
	"github.com/desertthunder/albumsync/internal/shared"
	"github.com/desertthunder/albumsync/internal/tasks"
	"github.com/desertthunder/albumsync/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	source     services.TrackSource
	sheets     services.SheetService
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
	open       func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Source, Sheets and DB are built from the config on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     services.TrackSource
	Sheets     services.SheetService
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
	Open       func(string) error // Opens a URL in the browser
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		sheets:     opts.Sheets,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
		open:       opts.Open,
	}
}

// Before loads the configuration named by --config unless one was injected, and applies --verbose.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := shared.ResolveConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	return ctx, nil
}

// Close releases the history database if the runner opened it.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, albumsCommand, historyCommand, authCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// trackSource returns the injected source or authenticates against Spotify.
func (r *Runner) trackSource(ctx context.Context) (services.TrackSource, error) {
	if r.source != nil {
		return r.source, nil
	}

	source, err := services.NewSpotifySource(ctx, services.SpotifyOptions{
		ClientID:     r.config.Credentials.Spotify.ClientID,
		ClientSecret: r.config.Credentials.Spotify.ClientSecret,
		PageSize:     r.config.Playlist.PageSize,
		Logger:       shared.WithLogger(r.logger, "service", "spotify"),
	})
	if err != nil {
		return nil, err
	}

	r.source = source
	return source, nil
}

// sheetService returns the injected service or builds a Sheets client from the configured credentials.
func (r *Runner) sheetService(ctx context.Context) (services.SheetService, error) {
	if r.sheets != nil {
		return r.sheets, nil
	}

	opts, err := services.GoogleClientOptions(ctx, r.config.Credentials.Google, r.saveGoogleToken)
	if err != nil {
		return nil, err
	}

	srv, err := services.NewSheetsService(ctx, shared.WithLogger(r.logger, "service", "sheets"), opts...)
	if err != nil {
		return nil, err
	}

	r.sheets = srv
	return srv, nil
}

// saveGoogleToken persists a refreshed token. Failures are logged since the current run can continue.
func (r *Runner) saveGoogleToken(token *oauth2.Token) {
	if err := r.config.Credentials.Google.Update(token); err != nil {
		r.logger.Warn("failed to update google token", "error", err)
		return
	}
	if r.configPath == "" {
		return
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to save refreshed google token", "path", r.configPath, "error", err)
		return
	}
	r.logger.Debug("saved refreshed google token", "path", r.configPath)
}

// history opens the run history database on first use.
func (r *Runner) history(ctx context.Context) (*repositories.RunRepository, error) {
	if r.db == nil {
		db, err := shared.OpenHistory(ctx, r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		r.db = db
	}
	return repositories.NewRunRepository(r.db), nil
}

// engine builds a [tasks.SyncEngine] from the config. sheets may be nil for commands that only aggregate.
func (r *Runner) engine(source services.TrackSource, sheets services.SheetService) (*tasks.SyncEngine, error) {
	reference, err := r.config.Sheet.ParsedReferenceDate()
	if err != nil {
		return nil, err
	}

	playlist := tasks.PlaylistConfig{
		OwnerID:    r.config.Playlist.OwnerID,
		PlaylistID: r.config.Playlist.ID,
		Ordering:   r.config.Playlist.Ordering,
	}
	sheet := tasks.SheetConfig{
		SpreadsheetID: r.config.Sheet.SpreadsheetID,
		Range:         r.config.Sheet.Range,
		Formula:       tasks.OffsetFormula(reference),
	}

	return tasks.NewSyncEngine(source, sheets, playlist, sheet, shared.WithLogger(r.logger, "component", "engine")), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

// writeHeader prints title between two star rules of the given length.
func (r *Runner) writeHeader(title string, length int) error {
	return r.writePlain("%s\n", ui.Header(title, length))
}
