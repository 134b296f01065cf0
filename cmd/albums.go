package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/albumsync/internal/formatter"
	"github.com/desertthunder/albumsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Albums prints the playlist's deduplicated albums. The sheet is not read.
func (r *Runner) Albums(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	outputFile := cmd.String("output")

	if r.config.Playlist.ID == "" {
		return fmt.Errorf("%w: playlist.id is empty", shared.ErrInvalidConfig)
	}

	source, err := r.trackSource(ctx)
	if err != nil {
		return err
	}

	engine, err := r.engine(source, nil)
	if err != nil {
		return err
	}

	result, err := engine.Albums(ctx, nil)
	if err != nil {
		return err
	}

	r.logger.Info("aggregated playlist", "tracks", result.Tracks, "albums", len(result.Albums), "requests", result.Requests)

	if outputFile != "" {
		if err := formatter.WriteExport(result.Albums, format, cmd.String("title"), outputFile); err != nil {
			return err
		}
		return r.writePlain("✓ %d albums written to %s\n", len(result.Albums), outputFile)
	}

	data, err := formatter.Export(result.Albums, format, cmd.String("title"))
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
