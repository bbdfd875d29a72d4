// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
)

// CreateCall records one CreateTransfer invocation on [MockJobClient].
type CreateCall struct {
	FromURL string
	ToURL   string
	Opts    models.TransferOptions
}

// MockJobClient is a test double for [services.JobClient].
//
// GetTransfer walks Snapshots in order and keeps returning the last one once they run out.
type MockJobClient struct {
	mu sync.Mutex

	CreateResult *models.Transfer
	CreateErr    error
	Created      []CreateCall

	Snapshots      []*models.Transfer
	GetTransferErr error
	Fetches        int

	Transfers    []*models.Transfer
	TransfersErr error

	Backups   map[string]*models.Transfer
	Latest    *models.Transfer
	BackupErr error

	DeleteResult bool
	DeleteErr    error
	Deleted      []string
}

func (m *MockJobClient) CreateTransfer(ctx context.Context, fromURL, toURL string, opts models.TransferOptions) (*models.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Created = append(m.Created, CreateCall{FromURL: fromURL, ToURL: toURL, Opts: opts})
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.CreateResult != nil {
		return m.CreateResult, nil
	}
	return &models.Transfer{ID: "1", FromURL: fromURL, ToURL: toURL, FromName: opts.FromName, ToName: opts.ToName}, nil
}

func (m *MockJobClient) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.Fetches
	m.Fetches++
	if m.GetTransferErr != nil {
		return nil, m.GetTransferErr
	}
	if len(m.Snapshots) == 0 {
		return nil, fmt.Errorf("%w: transfer %s", shared.ErrBackupNotFound, id)
	}
	if i >= len(m.Snapshots) {
		i = len(m.Snapshots) - 1
	}
	return m.Snapshots[i], nil
}

func (m *MockJobClient) GetTransfers(ctx context.Context) ([]*models.Transfer, error) {
	return m.Transfers, m.TransfersErr
}

func (m *MockJobClient) GetBackup(ctx context.Context, name string) (*models.Transfer, error) {
	if m.BackupErr != nil {
		return nil, m.BackupErr
	}
	if b, ok := m.Backups[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrBackupNotFound, name)
}

func (m *MockJobClient) GetLatestBackup(ctx context.Context) (*models.Transfer, error) {
	if m.BackupErr != nil {
		return nil, m.BackupErr
	}
	if m.Latest == nil {
		return nil, fmt.Errorf("%w: latest", shared.ErrBackupNotFound)
	}
	return m.Latest, nil
}

func (m *MockJobClient) DeleteBackup(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deleted = append(m.Deleted, name)
	return m.DeleteResult, m.DeleteErr
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
