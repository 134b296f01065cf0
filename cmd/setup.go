package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/albumsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", shared.ErrInvalidArgument, r.configPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("✓ Config written to %s\n\n", r.configPath)
	r.writePlain("Next steps:\n")
	r.writePlain("  1. Set sheet.spreadsheet_id (or GOOGLE_SHEET_ID)\n")
	r.writePlain("  2. Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET, e.g. in .env\n")
	r.writePlain("  3. Run `albumsync auth google` or point credentials.google.credentials_file at a service account key\n")
	return nil
}

// SetupDatabase initializes the history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if _, err := r.history(ctx); err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}
