// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/albumsync/internal/formatter"
	"github.com/urfave/cli/v3"
)

// syncFlags are shared by the root command and `sync`. The root copies are local so they do not clash with
// the subcommand's.
func syncFlags(local bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "dry-run",
			Local:   local,
			Aliases: []string{"n"},
			Usage:   "Compare and print the rows that would be appended without writing",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Local: local,
			Usage: "Do not record this run in the history database",
		},
		&cli.BoolFlag{
			Name:    "interactive",
			Local:   local,
			Aliases: []string{"i"},
			Usage:   "Review the missing albums in a terminal UI before appending",
		},
	}
}

// syncCommand appends missing albums to the sheet
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Append albums from the playlist that are missing from the sheet",
		Flags:  syncFlags(false),
		Action: r.Sync,
	}
}

// albumsCommand lists the aggregated albums without touching the sheet
func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "albums",
		Usage: "List the playlist's albums in date order",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (" + strings.Join(formatter.Formats, ", ") + ")",
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Markdown document title",
				Value: "Album a day",
			},
		},
		Action: r.Albums,
	}
}

// historyCommand inspects recorded sync runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded sync runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only show runs with this status (running, completed, failed)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a run and the albums it appended",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a run from the history",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "google",
				Usage:  "Authorize Google Sheets access in the browser and store the token",
				Action: r.AuthGoogle,
			},
			{
				Name:   "status",
				Usage:  "Show which credentials will be used",
				Action: r.AuthStatus,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
