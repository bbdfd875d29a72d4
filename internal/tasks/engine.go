package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pgbackups/internal/formatter"
	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/progress"
	"github.com/desertthunder/pgbackups/internal/services"
	"github.com/desertthunder/pgbackups/internal/shared"
)

// EngineOpts configures a [BackupEngine].
type EngineOpts struct {
	App    string             // app whose databases are backed up, required for confirmation
	Client services.JobClient // remote job API
	Vars   ConfigVarSource    // config vars for database resolution. Default: empty
	Poller *progress.Poller   // Default: progress.NewPoller with Output and Logger
	Output io.Writer          // Default: os.Stdout
	Logger *log.Logger        // Default: shared.NewLogger(nil)

	// HTTPClient fetches backup dumps for download.
	// Default: http.DefaultClient
	HTTPClient *http.Client
}

// BackupEngine runs backup operations against a [services.JobClient], tracking each remote job until it finishes.
type BackupEngine struct {
	app        string
	client     services.JobClient
	vars       ConfigVarSource
	poller     *progress.Poller
	output     io.Writer
	logger     *log.Logger
	httpClient *http.Client
}

// NewBackupEngine creates a new BackupEngine from opts.
func NewBackupEngine(opts EngineOpts) *BackupEngine {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Vars == nil {
		opts.Vars = StaticVars{}
	}
	if opts.Poller == nil {
		opts.Poller = progress.NewPoller(progress.Options{Output: opts.Output, Logger: opts.Logger})
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &BackupEngine{
		app:        opts.App,
		client:     opts.Client,
		vars:       opts.Vars,
		poller:     opts.Poller,
		output:     opts.Output,
		logger:     opts.Logger,
		httpClient: opts.HTTPClient,
	}
}

// App returns the app the engine operates on.
func (e *BackupEngine) App() string { return e.app }

// Result is the outcome of a tracked transfer.
type Result struct {
	Transfer *models.Transfer // final snapshot
	Verdict  models.Verdict
}

// OK reports whether the transfer finished without error.
func (r *Result) OK() bool { return r.Verdict == models.Success }

// CaptureResult is the outcome of [BackupEngine.Capture].
type CaptureResult struct {
	Result
	Database DatabaseRef
	BackupID string // name of the new backup, derived from the transfer's destination
}

// RestoreRequest describes a restore.
type RestoreRequest struct {
	Source  string // backup name, http(s) URL, or empty for the latest backup
	DB      string // database identifier to overwrite
	Confirm string // app name re-typed by the user
	Force   bool   // skip confirmation
}

// RestoreResult is the outcome of [BackupEngine.Restore].
type RestoreResult struct {
	Result
	Database DatabaseRef
	Backup   *models.Transfer // nil when restoring from a URL
}

// sendProgress sends a progress update through the channel without blocking.
func (e *BackupEngine) sendProgress(updates chan<- ProgressUpdate, update ProgressUpdate) {
	if updates == nil {
		return
	}
	select {
	case updates <- update:
	default:
	}
}

func (e *BackupEngine) writef(format string, args ...any) {
	if _, err := fmt.Fprintf(e.output, format, args...); err != nil {
		e.logger.Warn("failed to write output", "error", err)
	}
}

// Capture backs up dbID (default DATABASE_URL) to a new backup, optionally named backupID.
//
// A failed job is reported through the verdict, not the error.
func (e *BackupEngine) Capture(ctx context.Context, dbID, backupID string, updates chan<- ProgressUpdate) (*CaptureResult, error) {
	db, note, err := e.ResolveDatabase(dbID, true)
	if err != nil {
		return nil, err
	}
	if note != "" {
		e.writef("%s\n", note)
	}
	e.sendProgress(updates, resolvedUpdate(db))

	var toURL string
	if backupID != "" {
		toURL = "backup://" + backupID
	}

	res, err := e.track(ctx, updates, db.URL, toURL, models.TransferOptions{FromName: db.Name, ToName: models.BackupName}, false)
	if err != nil {
		return nil, err
	}

	result := &CaptureResult{Result: *res, Database: db, BackupID: models.BackupID(res.Transfer.ToURL)}
	e.sendProgress(updates, completeUpdate(result))
	return result, nil
}

// Restore overwrites req.DB with a backup or an external dump.
//
// The request must carry the app name in Confirm unless Force is set.
func (e *BackupEngine) Restore(ctx context.Context, req RestoreRequest, updates chan<- ProgressUpdate) (*RestoreResult, error) {
	db, _, err := e.ResolveDatabase(req.DB, false)
	if err != nil {
		return nil, err
	}
	e.sendProgress(updates, resolvedUpdate(db))

	if !shared.Confirm(e.app, req.Confirm, req.Force) {
		return nil, fmt.Errorf("%w: this command will overwrite %s, re-run with --confirm %s", shared.ErrConfirmationRequired, db.Name, e.app)
	}

	result := &RestoreResult{Database: db}
	opts := models.TransferOptions{ToName: db.Name}
	var fromURL string

	if strings.HasPrefix(req.Source, "http://") || strings.HasPrefix(req.Source, "https://") {
		fromURL = req.Source
		opts.FromName = models.ExternalBackupName
	} else {
		backup, err := e.Backup(ctx, req.Source, updates)
		if err != nil {
			return nil, err
		}
		if req.Source != "" && backup.Destroyed() {
			return nil, fmt.Errorf("%w: %s", shared.ErrBackupDestroyed, req.Source)
		}
		result.Backup = backup
		fromURL = backup.ToURL
		opts.FromName = models.BackupName
	}

	e.writef("\n%s\n", shared.DisplayInfo("App", e.app))
	if result.Backup != nil {
		e.writef("%s\n", shared.DisplayInfo("Backup", fmt.Sprintf("Taken from %s at %s", result.Backup.FromName, result.Backup.CreatedAt)))
	}
	e.writef("%s\n", shared.DisplayInfo("Database", db.Name))
	if result.Backup != nil {
		e.writef("%s\n", shared.DisplayInfo("Size", result.Backup.Size.String()))
	}

	res, err := e.track(ctx, updates, fromURL, db.URL, opts, false)
	if err != nil {
		return nil, err
	}

	result.Result = *res
	e.sendProgress(updates, completeUpdate(result))
	return result, nil
}

// Transfer runs a raw transfer between two named endpoints, printing a Direction/URL/Type table and then every new
// job log line verbatim. An empty to creates a new backup.
func (e *BackupEngine) Transfer(ctx context.Context, from, to string, updates chan<- ProgressUpdate) (*Result, error) {
	if from == "" {
		return nil, fmt.Errorf("%w: --from", shared.ErrMissingArgument)
	}
	src, err := e.ResolveNamedURL(from)
	if err != nil {
		return nil, err
	}
	dst := Endpoint{Name: models.BackupName}
	if to != "" {
		if dst, err = e.ResolveNamedURL(to); err != nil {
			return nil, err
		}
	}

	res, err := e.track(ctx, updates, src.URL, dst.URL, models.TransferOptions{FromName: src.Name, ToName: dst.Name}, true)
	if err != nil {
		return nil, err
	}
	e.sendProgress(updates, completeUpdate(res))
	return res, nil
}

// track creates a transfer and polls it to a verdict. Validation errors returned by the service abort before polling.
func (e *BackupEngine) track(ctx context.Context, updates chan<- ProgressUpdate, fromURL, toURL string, opts models.TransferOptions, verbatim bool) (*Result, error) {
	e.sendProgress(updates, createTransferUpdate(opts.FromName, opts.ToName))
	e.logger.Debug("creating transfer", "from", opts.FromName, "to", opts.ToName)

	created, err := e.client.CreateTransfer(ctx, fromURL, toURL, opts)
	if err != nil {
		return nil, err
	}

	if verbatim {
		e.writef("%s\n", transferTable(created))
	}

	if msgs := created.ValidationErrors(); len(msgs) > 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrTransferRejected, strings.Join(msgs, "\n"))
	}

	e.sendProgress(updates, trackTransferUpdate(created.ID))

	poller := e.poller
	if verbatim {
		poller = progress.NewPoller(progress.Options{Interval: poller.Interval(), Output: e.output, Logger: e.logger, Verbatim: true})
	}

	verdict, final, err := poller.Poll(ctx, func(ctx context.Context) (*models.Transfer, error) {
		return e.client.GetTransfer(ctx, created.ID)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("transfer complete", "id", final.ID, "verdict", verdict)
	return &Result{Transfer: final, Verdict: verdict}, nil
}

func transferTable(t *models.Transfer) string {
	return formatter.Table{}.Render(
		[][]string{{"Direction", "URL", "Type"}},
		[][]string{
			{"From", t.FromURL, t.FromName},
			{"To", t.ToURL, t.ToName},
		},
	)
}
