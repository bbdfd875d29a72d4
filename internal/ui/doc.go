// Package ui implements an interactive backup browser using bubbletea's Elm architecture.
//
// The TUI provides a small workflow over the app's backups:
//  1. [BackupListView] : Browse backups, newest last, filterable by name
//  2. [DetailView] : Inspect one backup and open its download URL
//  3. [ConfirmView] : Confirm permanent deletion
//  4. [WorkingView] : Spinner while a request is in flight
//  5. [ResultView] : Outcome of the last action
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Remote calls run as tea.Cmds through the same tasks.BackupEngine the CLI uses.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
