package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/pgbackups/internal/formatter"
	"github.com/desertthunder/pgbackups/internal/shared"
	"github.com/desertthunder/pgbackups/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ConfigList prints the app's config vars, postgres URLs included.
func (r *Runner) ConfigList(ctx context.Context, cmd *cli.Command) error {
	app, err := r.appName(cmd)
	if err != nil {
		return err
	}
	repo, err := r.store()
	if err != nil {
		return err
	}

	vars, err := repo.List(map[string]any{"app": app})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		values := make(map[string]string, len(vars))
		for _, cv := range vars {
			values[cv.Name()] = cv.Value()
		}
		return r.writeJSON(values, true)
	}

	if len(vars) == 0 {
		return r.writePlain("No config vars for %s.\n", app)
	}

	if err := r.writePlain("=== %s Config Vars\n", app); err != nil {
		return err
	}
	rows := make([][]string, len(vars))
	for i, cv := range vars {
		rows[i] = []string{cv.Name() + ":", cv.Value()}
	}
	return r.writePlain("%s\n", formatter.Table{Delimiter: " "}.Render(rows))
}

// ConfigGet prints the value of a single config var.
func (r *Runner) ConfigGet(ctx context.Context, cmd *cli.Command) error {
	app, name, err := r.configVarArgs(cmd)
	if err != nil {
		return err
	}
	repo, err := r.store()
	if err != nil {
		return err
	}

	cv, err := repo.GetByName(app, name)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", cv.Value())
}

// ConfigSet creates or updates a config var.
func (r *Runner) ConfigSet(ctx context.Context, cmd *cli.Command) error {
	app, name, err := r.configVarArgs(cmd)
	if err != nil {
		return err
	}
	value := cmd.StringArg("value")
	if value == "" {
		return fmt.Errorf("%w: config var value", shared.ErrMissingArgument)
	}

	repo, err := r.store()
	if err != nil {
		return err
	}
	if _, err := repo.Set(app, name, value); err != nil {
		return err
	}

	r.logger.Debug("config var set", "app", app, "name", name)
	return r.writePlain("Set %s for %s.\n", name, app)
}

// ConfigUnset removes a config var.
func (r *Runner) ConfigUnset(ctx context.Context, cmd *cli.Command) error {
	app, name, err := r.configVarArgs(cmd)
	if err != nil {
		return err
	}
	repo, err := r.store()
	if err != nil {
		return err
	}
	if err := repo.Unset(app, name); err != nil {
		return err
	}
	return r.writePlain("Unset %s for %s.\n", name, app)
}

// Promote copies a database's postgres URL into DATABASE_URL.
func (r *Runner) Promote(ctx context.Context, cmd *cli.Command) error {
	app, err := r.appName(cmd)
	if err != nil {
		return err
	}
	name := cmd.StringArg("database")
	if name == "" {
		name = tasks.DefaultDatabase
		if err := r.writePlain("Defaulting to %s for your database location\n", name); err != nil {
			return err
		}
	}

	repo, err := r.store()
	if err != nil {
		return err
	}

	cv, err := repo.GetByName(app, name)
	if err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}
	if !cv.IsPostgresURL() {
		return fmt.Errorf("%w: %s does not appear to contain a postgres URL", shared.ErrInvalidArgument, name)
	}

	current, err := repo.GetByName(app, tasks.DefaultDatabase)
	switch {
	case err == nil && current.Value() == cv.Value():
		return r.writePlain("That database is already the primary database (%s) for app %s.\n", tasks.DefaultDatabase, app)
	case err != nil && !errors.Is(err, shared.ErrConfigVarNotFound):
		return err
	}

	if _, err := repo.Set(app, tasks.DefaultDatabase, cv.Value()); err != nil {
		return err
	}

	r.logger.Info("database promoted", "app", app, "from", name)
	return r.writePlain("Attached %s to app %s at %s.\n", name, app, tasks.DefaultDatabase)
}

func (r *Runner) configVarArgs(cmd *cli.Command) (string, string, error) {
	app, err := r.appName(cmd)
	if err != nil {
		return "", "", err
	}
	name := cmd.StringArg("name")
	if name == "" {
		return "", "", fmt.Errorf("%w: config var name", shared.ErrMissingArgument)
	}
	return app, name, nil
}
