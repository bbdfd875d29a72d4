package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/progress"
	"github.com/desertthunder/pgbackups/internal/shared"
	"golang.org/x/time/rate"
)

// downloadRedraw caps how often the download status line is redrawn.
const downloadRedraw = 100 * time.Millisecond

// Backup returns the named backup, or the latest one when name is empty.
func (e *BackupEngine) Backup(ctx context.Context, name string, updates chan<- ProgressUpdate) (*models.Transfer, error) {
	e.sendProgress(updates, fetchBackupUpdate(name))
	if name == "" {
		return e.client.GetLatestBackup(ctx)
	}
	return e.client.GetBackup(ctx, name)
}

// ListBackups returns the transfers that produced a backup without failing.
func (e *BackupEngine) ListBackups(ctx context.Context) ([]*models.Transfer, error) {
	transfers, err := e.client.GetTransfers(ctx)
	if err != nil {
		return nil, err
	}

	var backups []*models.Transfer
	for _, t := range transfers {
		if t.IsBackup() && !t.Failed() {
			backups = append(backups, t)
		}
	}
	if len(backups) == 0 {
		return nil, fmt.Errorf("%w: capture one with `pgbackups capture`", shared.ErrNoBackups)
	}
	return backups, nil
}

// Transfers returns every transfer for the app.
func (e *BackupEngine) Transfers(ctx context.Context) ([]*models.Transfer, error) {
	return e.client.GetTransfers(ctx)
}

// Destroy permanently deletes the named backup after confirmation.
func (e *BackupEngine) Destroy(ctx context.Context, name, confirm string, force bool, updates chan<- ProgressUpdate) error {
	if name == "" {
		return fmt.Errorf("%w: backup name", shared.ErrMissingArgument)
	}

	backup, err := e.Backup(ctx, name, updates)
	if err != nil {
		return err
	}
	if backup.Destroyed() {
		return fmt.Errorf("%w: %s", shared.ErrBackupDestroyed, name)
	}
	if !shared.Confirm(e.app, confirm, force) {
		return fmt.Errorf("%w: backup %s will be permanently deleted, re-run with --confirm %s", shared.ErrConfirmationRequired, name, e.app)
	}

	e.sendProgress(updates, deleteBackupUpdate(name))
	deleted, err := e.client.DeleteBackup(ctx, name)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: error deleting backup %s", shared.ErrBackupNotFound, name)
	}

	e.sendProgress(updates, completeUpdate(name))
	return nil
}

// DownloadFile is the local file a backup downloads to: the base name of its destination URL.
func DownloadFile(b *models.Transfer) string {
	return path.Base(b.ToURL)
}

// Download streams the backup's public URL into dest (default [DownloadFile]), refusing to overwrite an existing
// file. Progress is drawn on the status line.
func (e *BackupEngine) Download(ctx context.Context, name, dest string, updates chan<- ProgressUpdate) (string, error) {
	backup, err := e.Backup(ctx, name, updates)
	if err != nil {
		return "", err
	}
	if backup.PublicURL == "" {
		return "", fmt.Errorf("%w: backup %s has no public URL", shared.ErrAPIRequest, models.BackupID(backup.ToURL))
	}
	if dest == "" {
		dest = DownloadFile(backup)
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%w: '%s'", shared.ErrFileExists, dest)
		}
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}

	e.sendProgress(updates, downloadUpdate(dest))
	if err := e.fetchDump(ctx, backup, f); err != nil {
		f.Close()
		os.Remove(dest)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dest, err)
	}

	e.sendProgress(updates, completeUpdate(dest))
	return dest, nil
}

func (e *BackupEngine) fetchDump(ctx context.Context, backup *models.Transfer, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, backup.PublicURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download failed: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download failed: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	line := progress.NewStatusLine(e.output)
	counter := &downloadCounter{
		line:    line,
		size:    backup.Size.String(),
		limiter: rate.NewLimiter(rate.Every(downloadRedraw), 1),
	}

	if _, err := io.Copy(w, io.TeeReader(resp.Body, counter)); err != nil {
		_ = line.Close()
		return fmt.Errorf("%w: download interrupted: %v", shared.ErrTransport, err)
	}

	size := counter.size
	if size == "" {
		size = shared.FormatSize(counter.n)
	}
	return line.Redisplay(fmt.Sprintf("Download ... %s / %s, done", shared.FormatSize(counter.n), size), true)
}

// downloadCounter counts bytes written through it and redraws the download status line at a bounded rate.
type downloadCounter struct {
	line    *progress.StatusLine
	size    string
	limiter *rate.Limiter
	n       int64
	ticks   int
}

func (c *downloadCounter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	if c.limiter.Allow() {
		_ = c.line.Redisplay(fmt.Sprintf("Download ... %s / %s %s", shared.FormatSize(c.n), c.size, c.line.Spin(c.ticks)), false)
		c.ticks++
	}
	return len(p), nil
}
