// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// captureCommand captures a new backup of a database.
func captureCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "capture",
		Aliases: []string{"backup"},
		Usage:   "Capture a backup of DATABASE (default DATABASE_URL), optionally named BACKUP_ID",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "database"},
			&cli.StringArg{Name: "backup"},
		},
		Action: r.Capture,
	}
}

// restoreCommand overwrites a database with a backup or a dump URL.
func restoreCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Restore a database from a backup (default latest) or a dump URL",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "source"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db",
				Usage:    "Database to overwrite, e.g. DATABASE_URL or RED",
				Required: true,
			},
			confirmFlag(),
			forceFlag(),
		},
		Action: r.Restore,
	}
}

// listCommand lists the app's backups.
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List backups",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (table, csv, markdown, text)",
				Value:   "table",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to a file instead of stdout",
			},
			jsonFlag(),
		},
		Action: r.List,
	}
}

// infoCommand shows the details of one backup.
func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show details of a backup (default latest)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "backup"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the download URL in a browser",
			},
			jsonFlag(),
		},
		Action: r.Info,
	}
}

// backupURLCommand prints the download URL of a finished backup.
func backupURLCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backup-url",
		Usage: "Print the download URL of a backup (default latest)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "backup"},
		},
		Action: r.BackupURL,
	}
}

// downloadCommand saves a backup's dump locally.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download a backup (default latest) to a local file",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "backup"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Destination file (default: the backup's file name)",
			},
		},
		Action: r.Download,
	}
}

// destroyCommand permanently deletes a backup.
func destroyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "destroy",
		Usage: "Permanently delete a backup",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "backup"},
		},
		Flags: []cli.Flag{
			confirmFlag(),
			forceFlag(),
		},
		Action: r.Destroy,
	}
}

// transfersCommand lists every transfer, not only backups.
func transfersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "transfers",
		Usage:  "List all transfers",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Transfers,
	}
}

// promoteCommand points DATABASE_URL at another database.
func promoteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "promote",
		Usage: "Use the URL in config var DATABASE (default DATABASE_URL) as the app's DATABASE_URL",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "database"},
		},
		Action: r.Promote,
	}
}

// xferCommand runs a raw transfer between two endpoints.
func xferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "xfer",
		Usage: "Run a raw transfer, streaming the job log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "from",
				Usage:    "Source: config var, postgres or http(s) URL, or backup name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Destination (default: a new backup)",
			},
		},
		Action: r.Xfer,
	}
}

// configCommand manages the local config var store used to resolve databases.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the app's config vars",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List config vars",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ConfigList,
			},
			{
				Name:      "get",
				Usage:     "Print the value of a config var",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.ConfigGet,
			},
			{
				Name:  "set",
				Usage: "Set a config var",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
					&cli.StringArg{Name: "value"},
				},
				Action: r.ConfigSet,
			},
			{
				Name:      "unset",
				Usage:     "Remove a config var",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.ConfigUnset,
			},
		},
	}
}

// setupCommand handles setup operations for the local store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database, run migrations and seed config vars",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// browseCommand returns the top-level TUI command for interactive backup management.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch interactive TUI for browsing backups",
		Action:  r.Browse,
	}
}

func confirmFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "confirm",
		Usage: "Re-type the app name to confirm a destructive action",
	}
}

func forceFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "force",
		Usage: "Skip confirmation",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}
