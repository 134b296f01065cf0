package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/albumsync/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(".env"); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	runner := NewRunner(RunnerOpts{ConfigPath: defaultConfigPath, Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(runner).Run(ctx, os.Args)
	stop()

	if closeErr := runner.Close(); closeErr != nil {
		logger.Warn("failed to close history database", "error", closeErr)
	}
	os.Exit(exitCode(err, os.Stderr, logger.Errorf))
}

// newApp builds the root command. Running it without a subcommand performs a sync.
func newApp(r *Runner) *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   defaultConfigPath,
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}, syncFlags(true)...)

	return &cli.Command{
		Name:     "albumsync",
		Usage:    "Append the albums of an album-a-day Spotify playlist to a Google Sheet",
		Version:  "0.1.0",
		Flags:    flags,
		Before:   r.Before,
		Action:   r.Sync,
		Commands: r.register(),
	}
}

// exitCode maps an application error to the process exit status, printing remediation for authentication errors.
func exitCode(err error, stderr io.Writer, logf func(string, ...any)) int {
	if err == nil {
		return 0
	}

	if authErr, ok := shared.AsAuthError(err); ok {
		logf("%s authentication failed: %v", authErr.Service, err)
		if authErr.Remediation != "" {
			fmt.Fprintf(stderr, "\n%s\n", authErr.Remediation)
		}
		return 1
	}

	if errors.Is(err, context.Canceled) {
		logf("interrupted")
		return 130
	}

	logf("application error: %v", err)
	return 1
}
