package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Transfer is a point-in-time snapshot of a remote backup job.
//
// Captures, restores and raw transfers are all transfers; a backup is a transfer whose destination is named BACKUP.
// Timestamps are kept as the server formats them and are empty when absent.
type Transfer struct {
	ID          string              `json:"id"`
	FromURL     string              `json:"from_url"`
	FromName    string              `json:"from_name"`
	ToURL       string              `json:"to_url"`
	ToName      string              `json:"to_name"`
	Log         string              `json:"log,omitempty"`
	CreatedAt   string              `json:"created_at,omitempty"`
	StartedAt   string              `json:"started_at,omitempty"`
	FinishedAt  string              `json:"finished_at,omitempty"`
	ErrorAt     string              `json:"error_at,omitempty"`
	DestroyedAt string              `json:"destroyed_at,omitempty"`
	Size        Size                `json:"size,omitempty"`
	Progress    string              `json:"progress,omitempty"`
	PublicURL   string              `json:"public_url,omitempty"`
	Errors      map[string][]string `json:"errors,omitempty"`
}

// Finished reports whether the job has reached its successful terminal state.
func (t *Transfer) Finished() bool { return t.FinishedAt != "" }

// Failed reports whether the job has reached its failed terminal state.
func (t *Transfer) Failed() bool { return t.ErrorAt != "" }

// Terminal reports whether the job will make no further progress.
func (t *Transfer) Terminal() bool { return t.Finished() || t.Failed() }

// HasLog reports whether the job has started emitting its progress log.
func (t *Transfer) HasLog() bool { return t.Log != "" }

// Destroyed reports whether the backup behind this transfer has been deleted.
func (t *Transfer) Destroyed() bool { return t.DestroyedAt != "" }

// IsBackup reports whether the transfer captured a backup.
func (t *Transfer) IsBackup() bool { return t.ToName == BackupName }

// ValidationErrors flattens the server-side validation errors returned on create.
func (t *Transfer) ValidationErrors() []string {
	var msgs []string
	for _, v := range t.Errors {
		msgs = append(msgs, v...)
	}
	return msgs
}

// BackupID derives the short backup name from a backup destination URL.
//
// s3://bucket/email/foo/bar.dump becomes foo/bar; other URLs fall back to the basename without extension.
func BackupID(toURL string) string {
	parts := strings.Split(toURL, "/")
	if strings.HasPrefix(toURL, "s3://") && len(parts) > 4 {
		return strings.TrimSuffix(strings.Join(parts[4:], "/"), ".dump")
	}
	base := path.Base(toURL)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Names the server uses for transfer endpoints.
const (
	BackupName         = "BACKUP"
	ExternalBackupName = "EXTERNAL_BACKUP"
	URLName            = "URL"
)

// Size holds a job size that the server reports either as a string ("12.3MB") or as a number of bytes.
type Size string

// UnmarshalJSON accepts JSON strings, numbers and null.
func (s *Size) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Size(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid size %s: %w", data, err)
	}
	*s = Size(n.String())
	return nil
}

func (s Size) String() string { return string(s) }

// TransferOptions are optional create parameters naming each end of a transfer.
type TransferOptions struct {
	FromName string
	ToName   string
}
