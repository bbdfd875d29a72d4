package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/pgbackups/internal/repositories"
	"github.com/desertthunder/pgbackups/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database, runs migrations and seeds the config file's [config_vars].
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app := cmd.String("app")
	if app == "" {
		app = config.App.Name
	}
	if app != "" && len(config.ConfigVars) > 0 {
		if err := repositories.NewConfigVarRepository(db).Seed(app, config.ConfigVars); err != nil {
			return err
		}
		r.logger.Info("seeded config vars", "app", app, "count", len(config.ConfigVars))
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}
