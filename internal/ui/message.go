package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pgbackups/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgBackupsFetched MsgKind = iota
	MsgBackupDestroyed
	MsgURLOpened
)

type backupsResult struct {
	backups []*models.Transfer
	err     error
}

type actionResult struct {
	name string
	err  error
}

// backupsFetchedMsg is the constructor for [MsgBackupsFetched]
func backupsFetchedMsg(backups []*models.Transfer, err error) Msg {
	return Msg{kind: MsgBackupsFetched, data: backupsResult{backups, err}}
}

// backupDestroyedMsg is the constructor for [MsgBackupDestroyed]
func backupDestroyedMsg(name string, err error) Msg {
	return Msg{kind: MsgBackupDestroyed, data: actionResult{name, err}}
}

// urlOpenedMsg is the constructor for [MsgURLOpened]
func urlOpenedMsg(name string, err error) Msg {
	return Msg{kind: MsgURLOpened, data: actionResult{name, err}}
}
