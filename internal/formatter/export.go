package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
)

// Format selects how a backup listing is rendered.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat validates a --format flag value. An empty value selects [FormatTable].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatMarkdown, FormatText:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

var backupHeader = []string{"ID", "Backup Time", "Size", "Database"}

// BackupRows builds one row per backup: ID, backup time, size, source database.
func BackupRows(backups []*models.Transfer) [][]string {
	rows := make([][]string, 0, len(backups))
	for _, b := range backups {
		rows = append(rows, []string{models.BackupID(b.ToURL), b.CreatedAt, b.Size.String(), b.FromName})
	}
	return rows
}

// BackupTable renders the backup listing with a header row.
func BackupTable(backups []*models.Transfer) string {
	return Table{}.Render([][]string{backupHeader}, BackupRows(backups))
}

// TransferRows builds one row per transfer: ID, source, destination, status.
func TransferRows(transfers []*models.Transfer) [][]string {
	rows := make([][]string, 0, len(transfers))
	for _, t := range transfers {
		rows = append(rows, []string{t.ID, t.FromName, t.ToName, TransferStatus(t)})
	}
	return rows
}

// TransferTable renders the raw transfer listing with a header row.
func TransferTable(transfers []*models.Transfer) string {
	return Table{}.Render([][]string{{"ID", "From", "To", "Status"}}, TransferRows(transfers))
}

// TransferStatus summarizes where a transfer is in its lifecycle.
func TransferStatus(t *models.Transfer) string {
	switch {
	case t.Failed():
		return "failed " + t.ErrorAt
	case t.Destroyed():
		return "destroyed " + t.DestroyedAt
	case t.Finished():
		return "finished " + t.FinishedAt
	case t.StartedAt != "":
		return "running"
	default:
		return "pending"
	}
}

// BackupInfo renders the labelled detail block shown by info.
func BackupInfo(b *models.Transfer) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=== Backup %s\n", models.BackupID(b.ToURL))
	fmt.Fprintln(&buf, shared.DisplayInfo("Backup Time", b.CreatedAt))
	fmt.Fprintln(&buf, shared.DisplayInfo("Database", b.FromName))
	fmt.Fprintln(&buf, shared.DisplayInfo("Size", b.Size.String()))
	fmt.Fprintln(&buf, shared.DisplayInfo("URL", b.PublicURL))
	return buf.String()
}

// ExportToCSV converts a backup listing to CSV with columns: ID, Backup Time, Size, Database
func ExportToCSV(backups []*models.Transfer) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(backupHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(BackupRows(backups)); err != nil {
		return nil, fmt.Errorf("failed to write CSV records: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts a backup listing to a Markdown document titled with the app name.
func ExportToMarkdown(app string, backups []*models.Transfer) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Backups for %s\n\n", app)
	fmt.Fprintf(&buf, "**Backups**: %d\n\n", len(backups))

	fmt.Fprintf(&buf, "| %s |\n", strings.Join(backupHeader, " | "))
	fmt.Fprintf(&buf, "|%s\n", strings.Repeat(" --- |", len(backupHeader)))
	for _, row := range BackupRows(backups) {
		for i := range row {
			row[i] = strings.ReplaceAll(row[i], "|", `\|`)
		}
		fmt.Fprintf(&buf, "| %s |\n", strings.Join(row, " | "))
	}
	return buf.Bytes(), nil
}

// ExportToText converts a backup listing to numbered plain text lines.
func ExportToText(backups []*models.Transfer) ([]byte, error) {
	var buf bytes.Buffer
	for i, b := range backups {
		fmt.Fprintf(&buf, "%d. %s (%s) from %s at %s\n", i+1, models.BackupID(b.ToURL), b.Size, b.FromName, b.CreatedAt)
	}
	return buf.Bytes(), nil
}

// Export renders backups in the given format. [FormatTable] yields the same output as [BackupTable].
func Export(app string, backups []*models.Transfer, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(backups)
	case FormatMarkdown:
		return ExportToMarkdown(app, backups)
	case FormatText:
		return ExportToText(backups)
	case FormatTable, "":
		return []byte(BackupTable(backups)), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport writes an export to path, refusing to overwrite an existing file.
func WriteExport(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", shared.ErrFileExists, path)
		}
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
