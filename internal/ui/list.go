package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
)

var _ list.Item = backupItem{}

// backupItem wraps a backup [models.Transfer] to implement [list.Item].
type backupItem struct {
	backup *models.Transfer
}

func (i backupItem) FilterValue() string { return models.BackupID(i.backup.ToURL) }
func (i backupItem) Title() string       { return models.BackupID(i.backup.ToURL) }
func (i backupItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.backup.FromName, shared.TimeAgo(i.backup.CreatedAt))
	if size := i.backup.Size.String(); size != "" {
		desc = fmt.Sprintf("%s • %s", desc, size)
	}
	return desc
}

func backupItems(backups []*models.Transfer) []list.Item {
	items := make([]list.Item, len(backups))
	for i, b := range backups {
		items[i] = backupItem{backup: b}
	}
	return items
}
