package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pgbackups/internal/formatter"
	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
	"github.com/desertthunder/pgbackups/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Capture backs up a database and reports the new backup's id.
func (r *Runner) Capture(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(cmd, r.output)
	if err != nil {
		return err
	}

	updates, stop := r.watch()
	result, err := engine.Capture(ctx, cmd.StringArg("database"), cmd.StringArg("backup"), updates)
	stop()
	if err != nil {
		return err
	}

	if !result.OK() {
		return fmt.Errorf("%w: backup not created", shared.ErrTransferFailed)
	}

	r.logger.Info("backup captured", "backup", result.BackupID, "database", result.Database.Name)
	return r.writePlain("Backup id %s created.\n", result.BackupID)
}

// Restore overwrites --db with a backup (default latest) or a dump URL.
func (r *Runner) Restore(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(cmd, r.output)
	if err != nil {
		return err
	}

	updates, stop := r.watch()
	result, err := engine.Restore(ctx, tasks.RestoreRequest{
		Source:  cmd.StringArg("source"),
		DB:      cmd.String("db"),
		Confirm: cmd.String("confirm"),
		Force:   cmd.Bool("force"),
	}, updates)
	stop()
	if err != nil {
		return err
	}

	if !result.OK() {
		return fmt.Errorf("%w: restore not successful", shared.ErrTransferFailed)
	}

	r.logger.Info("database restored", "database", result.Database.Name)
	return r.writePlain("%s restored.\n", result.Database.Name)
}

// List prints the app's backups as a table or in an export format.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine, err := r.engine(cmd, r.output)
	if err != nil {
		return err
	}

	backups, err := engine.ListBackups(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(backups, true)
	}

	data, err := formatter.Export(engine.App(), backups, format)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(path, data); err != nil {
			return err
		}
		r.logger.Info("backups exported", "path", path, "format", format, "count", len(backups))
		return r.writePlain("Exported %d backups to %s\n", len(backups), path)
	}

	return r.writePlain("%s", data)
}

// Info prints the details of one backup, optionally opening its download URL.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(cmd, r.output)
	if err != nil {
		return err
	}

	backup, err := engine.Backup(ctx, cmd.StringArg("backup"), nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(backup, true); err != nil {
			return err
		}
	} else {
		err := r.writePlain("%s%s\n%s\n",
			formatter.BackupInfo(backup),
			shared.DisplayInfo("Age", shared.TimeAgo(backup.CreatedAt)),
			shared.DisplayInfo("Status", formatter.TransferStatus(backup)),
		)
		if err != nil {
			return err
		}
	}

	if !cmd.Bool("open") {
		return nil
	}
	if backup.PublicURL == "" {
		return fmt.Errorf("%w: backup %s has no public URL", shared.ErrAPIRequest, models.BackupID(backup.ToURL))
	}
	return openBrowser(backup.PublicURL)
}

// BackupURL prints the public download URL of a finished backup.
func (r *Runner) BackupURL(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(cmd, r.output)
	if err != nil {
		return err
	}

	backup, err := engine.Backup(ctx, cmd.StringArg("backup"), nil)
	if err != nil {
		return err
	}

	id := models.BackupID(backup.ToURL)
	switch {
	case backup.Failed():
		return fmt.Errorf("%w: backup %s did not complete successfully", shared.ErrTransferFailed, id)
	case !backup.Finished():
		return fmt.Errorf("%w: backup %s", shared.ErrBackupIncomplete, id)
	case backup.PublicURL == "":
		return fmt.Errorf("%w: backup %s has no public URL", shared.ErrAPIRequest, id)
	}
	return r.writePlain("URL for backup %s:\n%s\n", id, backup.PublicURL)
}

// Download saves a backup to a local file.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(cmd, r.output)
	if err != nil {
		return err
	}

	updates, stop := r.watch()
	dest, err := engine.Download(ctx, cmd.StringArg("backup"), cmd.String("output"), updates)
	stop()
	if err != nil {
		return err
	}

	r.logger.Info("backup downloaded", "path", dest)
	return nil
}

// Destroy permanently deletes a backup after confirmation.
func (r *Runner) Destroy(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(cmd, r.output)
	if err != nil {
		return err
	}

	name := cmd.StringArg("backup")
	updates, stop := r.watch()
	err = engine.Destroy(ctx, name, cmd.String("confirm"), cmd.Bool("force"), updates)
	stop()
	if err != nil {
		return err
	}

	return r.writePlain("Backup %s deleted.\n", name)
}

// Transfers lists every transfer with its status.
func (r *Runner) Transfers(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(cmd, r.output)
	if err != nil {
		return err
	}

	transfers, err := engine.Transfers(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(transfers, true)
	}
	return r.writePlain("%s", formatter.TransferTable(transfers))
}

var openBrowser = shared.OpenBrowser
