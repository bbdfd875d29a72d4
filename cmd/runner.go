package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pgbackups/internal/progress"
	"github.com/desertthunder/pgbackups/internal/repositories"
	"github.com/desertthunder/pgbackups/internal/services"
	"github.com/desertthunder/pgbackups/internal/shared"
	"github.com/desertthunder/pgbackups/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	client       services.JobClient
	vars         tasks.ConfigVarSource
	httpClient   *http.Client
	logger       *log.Logger
	output       io.Writer
	pollInterval time.Duration
	db           *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config

	// Client talks to the backups service.
	// Default: a [services.Client] built from the configured service URL on first use
	Client services.JobClient

	// Vars supplies config vars for database resolution.
	// Default: the local store, or the config file's [config_vars] when the store cannot be opened
	Vars tasks.ConfigVarSource

	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	// PollInterval overrides the configured wait between status polls.
	PollInterval time.Duration
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = opts.Config.PollEvery()
	}

	return &Runner{
		config:       opts.Config,
		client:       opts.Client,
		vars:         opts.Vars,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
		output:       opts.Output,
		pollInterval: opts.PollInterval,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		captureCommand, restoreCommand, listCommand, infoCommand, backupURLCommand, downloadCommand,
		destroyCommand, transfersCommand, xferCommand, promoteCommand, configCommand, setupCommand,
		browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the local store, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// appName returns the --app flag, falling back to app.name from the config file.
func (r *Runner) appName(cmd *cli.Command) (string, error) {
	if app := cmd.String("app"); app != "" {
		return app, nil
	}
	if r.config.App.Name != "" {
		return r.config.App.Name, nil
	}
	return "", fmt.Errorf("%w: app name (set --app or app.name)", shared.ErrMissingConfig)
}

func (r *Runner) jobClient() (services.JobClient, error) {
	if r.client != nil {
		return r.client, nil
	}
	serviceURL, err := r.config.ServiceURL()
	if err != nil {
		return nil, err
	}
	client, err := services.NewClient(serviceURL, r.httpClient, r.logger)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}

// store opens the local config var store, running pending migrations.
func (r *Runner) store() (*repositories.ConfigVarRepository, error) {
	if r.db == nil {
		db, err := shared.OpenStore(r.config.Database)
		if err != nil {
			return nil, err
		}
		r.db = db
	}
	return repositories.NewConfigVarRepository(r.db), nil
}

func (r *Runner) configVars() tasks.ConfigVarSource {
	if r.vars != nil {
		return r.vars
	}
	repo, err := r.store()
	if err != nil {
		r.logger.Warn("local store unavailable, using config file vars", "error", err)
		r.vars = tasks.StaticVars(r.config.ConfigVars)
		return r.vars
	}
	r.vars = repo
	return r.vars
}

// engine builds a [tasks.BackupEngine] for the command's app writing terminal output to w.
func (r *Runner) engine(cmd *cli.Command, w io.Writer) (*tasks.BackupEngine, error) {
	app, err := r.appName(cmd)
	if err != nil {
		return nil, err
	}
	client, err := r.jobClient()
	if err != nil {
		return nil, err
	}

	logger := shared.WithLogger(r.logger, "app", app)
	return tasks.NewBackupEngine(tasks.EngineOpts{
		App:    app,
		Client: client,
		Vars:   r.configVars(),
		Poller: progress.NewPoller(progress.Options{
			Interval: r.pollInterval,
			Output:   w,
			Logger:   logger,
		}),
		Output:     w,
		Logger:     logger,
		HTTPClient: r.httpClient,
	}), nil
}

// watch returns a progress channel whose updates are logged at debug level. The returned func closes the channel
// and waits for the drain to finish.
func (r *Runner) watch() (chan tasks.ProgressUpdate, func()) {
	updates := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range updates {
			r.logger.Debug(update.Message, "phase", update.Phase)
		}
	}()
	return updates, func() {
		close(updates)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
