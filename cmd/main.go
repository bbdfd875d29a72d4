package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pgbackups/internal/shared"
	"github.com/urfave/cli/v3"
)

const upgradeMessage = ` !    Your pgbackups client is out of date.
 !    Install the latest release and re-run this command.`

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrVersionMismatch):
			fmt.Fprintln(os.Stderr, upgradeMessage)
			runner.Close()
			os.Exit(1)
		default:
			runner.Close()
			logger.Fatalf("application error: %v", err)
		}
	}
}

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "pgbackups",
		Usage:   "Capture, restore and manage Postgres backups",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "app",
				Aliases: []string{"a"},
				Usage:   "App to operate on (default: app.name from config.toml)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log debug records, including progress updates",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				shared.SetLogLevel(runner.logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}
}
