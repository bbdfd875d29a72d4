package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
	tu "github.com/desertthunder/pgbackups/internal/testing"
)

var testVars = StaticVars{
	"DATABASE_URL":               "postgres://u:p@red/db",
	"HEROKU_POSTGRESQL_RED_URL":  "postgres://u:p@red/db",
	"HEROKU_POSTGRESQL_BLUE_URL": "postgres://u:p@blue/db",
	"REDIS_URL":                  "redis://cache",
}

func newTestEngine(client *tu.MockJobClient, vars ConfigVarSource) (*BackupEngine, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewBackupEngine(EngineOpts{
		App:    "shiny-app",
		Client: client,
		Vars:   vars,
		Output: &buf,
		Logger: log.New(io.Discard),
	}), &buf
}

func finished(id, toURL, log string) *models.Transfer {
	return &models.Transfer{ID: id, ToURL: toURL, ToName: models.BackupName, Log: log, FinishedAt: "2024-01-01 00:00:00 +0000"}
}

func TestResolveDatabase(t *testing.T) {
	t.Run("Default Resolves To Addon", func(t *testing.T) {
		ref, note, err := resolveDatabase(testVars, "", true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ref.Name != "HEROKU_POSTGRESQL_RED_URL" || ref.URL != "postgres://u:p@red/db" {
			t.Errorf("unexpected ref %+v", ref)
		}
		if !strings.HasPrefix(note, "Backing up the default DB, DATABASE_URL.") {
			t.Errorf("unexpected note %q", note)
		}
		if !strings.Contains(note, "(Options are: DATABASE_URL, HEROKU_POSTGRESQL_BLUE_URL, HEROKU_POSTGRESQL_RED_URL)") {
			t.Errorf("expected options in note, got %q", note)
		}
	})

	t.Run("Unaliased DATABASE_URL", func(t *testing.T) {
		ref, note, err := resolveDatabase(map[string]string{"DATABASE_URL": "postgres://solo"}, "DATABASE_URL", false)
		if err != nil || ref.Name != "DATABASE_URL" || note != "" {
			t.Errorf("unexpected result %+v %q %v", ref, note, err)
		}
	})

	t.Run("Named Addon", func(t *testing.T) {
		ref, _, err := resolveDatabase(testVars, "HEROKU_POSTGRESQL_BLUE_URL", false)
		if err != nil || ref.URL != "postgres://u:p@blue/db" {
			t.Errorf("unexpected result %+v %v", ref, err)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, _, err := resolveDatabase(testVars, "HEROKU_POSTGRESQL_PINK_URL", false)
		if !errors.Is(err, shared.ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})

	t.Run("Non Postgres Var", func(t *testing.T) {
		_, _, err := resolveDatabase(testVars, "REDIS_URL", false)
		if !errors.Is(err, shared.ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})

	t.Run("Required", func(t *testing.T) {
		_, _, err := resolveDatabase(testVars, "", false)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestResolveNamedURL(t *testing.T) {
	tests := []struct {
		input   string
		want    Endpoint
		wantErr error
	}{
		{input: "DATABASE_URL", want: Endpoint{URL: "postgres://u:p@red/db", Name: "DATABASE_URL"}},
		{input: "MISSING_URL", wantErr: shared.ErrDatabaseNotFound},
		{input: "postgres://u:p@blue/db", want: Endpoint{URL: "postgres://u:p@blue/db", Name: "HEROKU_POSTGRESQL_BLUE_URL"}},
		{input: "postgres://elsewhere/db", wantErr: shared.ErrDatabaseNotFound},
		{input: "https://dumps.example.com/a.dump", want: Endpoint{URL: "https://dumps.example.com/a.dump", Name: "URL"}},
		{input: "b004", want: Endpoint{URL: "backup://b004", Name: "BACKUP"}},
		{input: "", wantErr: shared.ErrMissingArgument},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := resolveNamedURL(testVars, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestBackupEngine(t *testing.T) {
	t.Run("Capture", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			client := &tu.MockJobClient{
				Snapshots: []*models.Transfer{
					{ID: "1"},
					{ID: "1", Log: "capture_progress: 1.2MB"},
					finished("1", "s3://bucket/email/b003.dump", "capture_progress: 1.2MB\ncapture_progress: done"),
				},
			}
			engine, buf := newTestEngine(client, testVars)
			updates := make(chan ProgressUpdate, 10)

			result, err := engine.Capture(context.Background(), "", "", updates)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !result.OK() || result.BackupID != "b003" {
				t.Errorf("unexpected result %+v", result)
			}
			if result.Database.Name != "HEROKU_POSTGRESQL_RED_URL" {
				t.Errorf("expected resolved addon name, got %s", result.Database.Name)
			}

			if len(client.Created) != 1 {
				t.Fatalf("expected one transfer, got %d", len(client.Created))
			}
			call := client.Created[0]
			if call.FromURL != "postgres://u:p@red/db" || call.ToURL != "" || call.Opts.ToName != "BACKUP" {
				t.Errorf("unexpected create call %+v", call)
			}

			out := buf.String()
			if !strings.HasPrefix(out, "Backing up the default DB, DATABASE_URL.") {
				t.Errorf("expected default DB note, got %q", out)
			}
			if !strings.HasSuffix(out, "\r\x1b[0KPending ... /\r\x1b[0KCapture ... 1.2MB -\r\x1b[0KCapture ... 1.2MB, done\n") {
				t.Errorf("unexpected status output %q", out)
			}

			close(updates)
			var phases []Phase
			for u := range updates {
				phases = append(phases, u.Phase)
			}
			if len(phases) == 0 || phases[len(phases)-1] != Complete {
				t.Errorf("expected updates ending in Complete, got %v", phases)
			}
		})

		t.Run("Named Backup", func(t *testing.T) {
			client := &tu.MockJobClient{Snapshots: []*models.Transfer{finished("1", "s3://bucket/email/nightly.dump", "")}}
			engine, _ := newTestEngine(client, testVars)

			if _, err := engine.Capture(context.Background(), "HEROKU_POSTGRESQL_BLUE_URL", "nightly", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if client.Created[0].ToURL != "backup://nightly" {
				t.Errorf("expected backup:// destination, got %s", client.Created[0].ToURL)
			}
		})

		t.Run("Failed Job", func(t *testing.T) {
			client := &tu.MockJobClient{Snapshots: []*models.Transfer{{ID: "1", ErrorAt: "now", Log: "capture_progress: error"}}}
			engine, _ := newTestEngine(client, testVars)

			result, err := engine.Capture(context.Background(), "", "", nil)
			if err != nil {
				t.Fatalf("failed job should not be an error, got %v", err)
			}
			if result.OK() || result.Verdict != models.Failed {
				t.Errorf("expected failed verdict, got %v", result.Verdict)
			}
		})

		t.Run("Rejected", func(t *testing.T) {
			client := &tu.MockJobClient{CreateResult: &models.Transfer{Errors: map[string][]string{"from_url": {"is invalid"}}}}
			engine, _ := newTestEngine(client, testVars)

			_, err := engine.Capture(context.Background(), "", "", nil)
			if !errors.Is(err, shared.ErrTransferRejected) || !strings.Contains(err.Error(), "is invalid") {
				t.Errorf("expected ErrTransferRejected, got %v", err)
			}
			if client.Fetches != 0 {
				t.Errorf("expected no polling after rejection, got %d fetches", client.Fetches)
			}
		})

		t.Run("Fetch Error", func(t *testing.T) {
			client := &tu.MockJobClient{GetTransferErr: shared.ErrTransport}
			engine, _ := newTestEngine(client, testVars)

			if _, err := engine.Capture(context.Background(), "", "", nil); !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})

		t.Run("Unknown Database", func(t *testing.T) {
			engine, _ := newTestEngine(&tu.MockJobClient{}, StaticVars{})

			if _, err := engine.Capture(context.Background(), "", "", nil); !errors.Is(err, shared.ErrDatabaseNotFound) {
				t.Errorf("expected ErrDatabaseNotFound, got %v", err)
			}
		})
	})

	t.Run("Restore", func(t *testing.T) {
		backup := &models.Transfer{
			ID: "5", FromName: "HEROKU_POSTGRESQL_RED_URL", ToName: "BACKUP",
			ToURL: "s3://bucket/email/b005.dump", CreatedAt: "2024-01-01", Size: "3KB",
		}

		t.Run("Requires Confirmation", func(t *testing.T) {
			client := &tu.MockJobClient{Latest: backup}
			engine, _ := newTestEngine(client, testVars)

			_, err := engine.Restore(context.Background(), RestoreRequest{DB: "DATABASE_URL", Confirm: "wrong-app"}, nil)
			if !errors.Is(err, shared.ErrConfirmationRequired) {
				t.Errorf("expected ErrConfirmationRequired, got %v", err)
			}
			if len(client.Created) != 0 {
				t.Error("expected no transfer without confirmation")
			}
		})

		t.Run("Requires Database", func(t *testing.T) {
			engine, _ := newTestEngine(&tu.MockJobClient{}, testVars)

			_, err := engine.Restore(context.Background(), RestoreRequest{Force: true}, nil)
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("Latest Backup", func(t *testing.T) {
			client := &tu.MockJobClient{
				Latest:    backup,
				Snapshots: []*models.Transfer{{ID: "6", Log: "restore_progress: 3KB\nrestore_progress: done", FinishedAt: "now"}},
			}
			engine, buf := newTestEngine(client, testVars)

			result, err := engine.Restore(context.Background(), RestoreRequest{DB: "HEROKU_POSTGRESQL_BLUE_URL", Confirm: "shiny-app"}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !result.OK() || result.Backup != backup {
				t.Errorf("unexpected result %+v", result)
			}

			call := client.Created[0]
			if call.FromURL != backup.ToURL || call.ToURL != "postgres://u:p@blue/db" || call.Opts.FromName != "BACKUP" {
				t.Errorf("unexpected create call %+v", call)
			}

			out := buf.String()
			for _, want := range []string{
				"App          shiny-app\n",
				"Backup       Taken from HEROKU_POSTGRESQL_RED_URL at 2024-01-01\n",
				"Database     HEROKU_POSTGRESQL_BLUE_URL\n",
				"Size         3KB\n",
				"Restore ... 3KB, done\n",
			} {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in output %q", want, out)
				}
			}
		})

		t.Run("External URL", func(t *testing.T) {
			client := &tu.MockJobClient{Snapshots: []*models.Transfer{{ID: "6", FinishedAt: "now"}}}
			engine, buf := newTestEngine(client, testVars)

			result, err := engine.Restore(context.Background(), RestoreRequest{Source: "https://dumps.example.com/x.dump", DB: "DATABASE_URL", Force: true}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Backup != nil {
				t.Error("expected no backup for URL restore")
			}
			if client.Created[0].Opts.FromName != models.ExternalBackupName {
				t.Errorf("expected EXTERNAL_BACKUP source, got %s", client.Created[0].Opts.FromName)
			}
			if strings.Contains(buf.String(), "Size") {
				t.Errorf("expected no backup rows for URL restore, got %q", buf.String())
			}
		})

		t.Run("Destroyed Backup", func(t *testing.T) {
			gone := *backup
			gone.DestroyedAt = "yesterday"
			client := &tu.MockJobClient{Backups: map[string]*models.Transfer{"b005": &gone}}
			engine, _ := newTestEngine(client, testVars)

			_, err := engine.Restore(context.Background(), RestoreRequest{Source: "b005", DB: "DATABASE_URL", Force: true}, nil)
			if !errors.Is(err, shared.ErrBackupDestroyed) {
				t.Errorf("expected ErrBackupDestroyed, got %v", err)
			}
		})
	})

	t.Run("Transfer", func(t *testing.T) {
		t.Run("Streams Log Verbatim", func(t *testing.T) {
			client := &tu.MockJobClient{
				CreateResult: &models.Transfer{ID: "9", FromURL: "postgres://u:p@red/db", FromName: "DATABASE_URL", ToURL: "backup://b9", ToName: "BACKUP"},
				Snapshots: []*models.Transfer{
					{ID: "9", Log: "starting"},
					{ID: "9", Log: "starting\ncapture_progress: 1KB\nstarting", FinishedAt: "now"},
				},
			}
			engine, buf := newTestEngine(client, testVars)

			result, err := engine.Transfer(context.Background(), "DATABASE_URL", "b9", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !result.OK() {
				t.Errorf("expected success, got %v", result.Verdict)
			}

			want := "Direction | URL                   | Type        \n" +
				"----------+-----------------------+-------------\n" +
				"From      | postgres://u:p@red/db | DATABASE_URL\n" +
				"To        | backup://b9           | BACKUP      \n" +
				"\n" +
				"starting\ncapture_progress: 1KB\n"
			if got := buf.String(); got != want {
				t.Errorf("unexpected output\nwant %q\n got %q", want, got)
			}
			if client.Created[0].ToURL != "backup://b9" {
				t.Errorf("expected backup destination, got %+v", client.Created[0])
			}
		})

		t.Run("Default Destination", func(t *testing.T) {
			client := &tu.MockJobClient{Snapshots: []*models.Transfer{{ID: "1", FinishedAt: "now"}}}
			engine, _ := newTestEngine(client, testVars)

			if _, err := engine.Transfer(context.Background(), "DATABASE_URL", "", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if call := client.Created[0]; call.ToURL != "" || call.Opts.ToName != "BACKUP" {
				t.Errorf("expected server-assigned backup, got %+v", call)
			}
		})

		t.Run("Missing From", func(t *testing.T) {
			engine, _ := newTestEngine(&tu.MockJobClient{}, testVars)
			if _, err := engine.Transfer(context.Background(), "", "x", nil); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("ListBackups", func(t *testing.T) {
		client := &tu.MockJobClient{Transfers: []*models.Transfer{
			{ID: "1", ToName: "BACKUP"},
			{ID: "2", ToName: "BACKUP", ErrorAt: "now"},
			{ID: "3", ToName: "HEROKU_POSTGRESQL_RED_URL"},
			{ID: "4", ToName: "BACKUP"},
		}}
		engine, _ := newTestEngine(client, testVars)

		backups, err := engine.ListBackups(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(backups) != 2 || backups[0].ID != "1" || backups[1].ID != "4" {
			t.Errorf("unexpected backups %+v", backups)
		}

		empty, _ := newTestEngine(&tu.MockJobClient{}, testVars)
		if _, err := empty.ListBackups(context.Background()); !errors.Is(err, shared.ErrNoBackups) {
			t.Errorf("expected ErrNoBackups, got %v", err)
		}
	})

	t.Run("Destroy", func(t *testing.T) {
		live := &models.Transfer{ID: "1", ToURL: "s3://bucket/email/b001.dump"}
		gone := &models.Transfer{ID: "2", DestroyedAt: "yesterday"}

		t.Run("Deletes", func(t *testing.T) {
			client := &tu.MockJobClient{Backups: map[string]*models.Transfer{"b001": live}, DeleteResult: true}
			engine, _ := newTestEngine(client, testVars)

			if err := engine.Destroy(context.Background(), "b001", "shiny-app", false, nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(client.Deleted) != 1 || client.Deleted[0] != "b001" {
				t.Errorf("expected b001 deleted, got %v", client.Deleted)
			}
		})

		t.Run("Already Destroyed", func(t *testing.T) {
			client := &tu.MockJobClient{Backups: map[string]*models.Transfer{"b002": gone}}
			engine, _ := newTestEngine(client, testVars)

			if err := engine.Destroy(context.Background(), "b002", "", true, nil); !errors.Is(err, shared.ErrBackupDestroyed) {
				t.Errorf("expected ErrBackupDestroyed, got %v", err)
			}
		})

		t.Run("Unconfirmed", func(t *testing.T) {
			client := &tu.MockJobClient{Backups: map[string]*models.Transfer{"b001": live}}
			engine, _ := newTestEngine(client, testVars)

			if err := engine.Destroy(context.Background(), "b001", "", false, nil); !errors.Is(err, shared.ErrConfirmationRequired) {
				t.Errorf("expected ErrConfirmationRequired, got %v", err)
			}
			if len(client.Deleted) != 0 {
				t.Error("expected nothing deleted")
			}
		})

		t.Run("Not Deleted", func(t *testing.T) {
			client := &tu.MockJobClient{Backups: map[string]*models.Transfer{"b001": live}, DeleteResult: false}
			engine, _ := newTestEngine(client, testVars)

			if err := engine.Destroy(context.Background(), "b001", "", true, nil); err == nil {
				t.Error("expected error when service reports nothing deleted")
			}
		})

		t.Run("Name Required", func(t *testing.T) {
			engine, _ := newTestEngine(&tu.MockJobClient{}, testVars)
			if err := engine.Destroy(context.Background(), "", "", true, nil); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})
}
