package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/pgbackups/internal/formatter"
	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/progress"
	"github.com/desertthunder/pgbackups/internal/shared"
	"github.com/desertthunder/pgbackups/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BackupListView ViewState = iota
	DetailView
	ConfirmView
	WorkingView
	ResultView
)

// BackupSource is the subset of [tasks.BackupEngine] the browser needs.
type BackupSource interface {
	App() string
	ListBackups(ctx context.Context) ([]*models.Transfer, error)
	Destroy(ctx context.Context, name, confirm string, force bool, updates chan<- tasks.ProgressUpdate) error
}

var _ BackupSource = (*tasks.BackupEngine)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	source   BackupSource
	opener   func(url string) error
	width    int
	height   int
	list     list.Model
	backups  []*models.Transfer
	selected *models.Transfer
	spinner  spinner.Model
	job      *destroyJob
	progress tasks.ProgressUpdate
	result   string
	err      error
	help     help.Model
	keys     keyMap
}

// destroyJob carries one in-flight deletion. err is written before updates is closed.
type destroyJob struct {
	name    string
	updates chan tasks.ProgressUpdate
	err     error
}

type progressUpdateMsg tasks.ProgressUpdate

// NewModel creates a new TUI model browsing the backups of source's app.
func NewModel(ctx context.Context, source BackupSource) *Model {
	return &Model{
		ctx:     ctx,
		view:    BackupListView,
		source:  source,
		opener:  shared.OpenBrowser,
		list:    newBackupList(source.App(), nil),
		spinner: spinner.New(spinner.WithSpinner(progress.Slash), spinner.WithStyle(styles.warn)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

func newBackupList(app string, backups []*models.Transfer) list.Model {
	l := list.New(backupItems(backups), list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("Backups for %s", app)
	return l
}

// Init fetches the backup list.
func (m *Model) Init() tea.Cmd {
	return m.fetchBackups()
}

// Err is the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && !m.filtering() {
			return m, tea.Quit
		}
		switch m.view {
		case BackupListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case spinner.TickMsg:
		if m.view != WorkingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgBackupsFetched:
		res := msg.data.(backupsResult)
		m.backups = res.backups
		m.list = newBackupList(m.source.App(), res.backups)
		m.list.SetSize(m.width-4, m.height-8)
		m.view = BackupListView
		if res.err != nil {
			m.err = res.err
			m.result = ""
			m.view = ResultView
		}
		return m, nil

	case MsgBackupDestroyed:
		res := msg.data.(actionResult)
		m.job = nil
		m.err = res.err
		m.result = ""
		if res.err == nil {
			m.result = fmt.Sprintf("Deleted backup %s", res.name)
		}
		m.view = ResultView
		return m, nil

	case MsgURLOpened:
		res := msg.data.(actionResult)
		m.err = res.err
		if res.err == nil {
			m.result = fmt.Sprintf("Opened download URL for %s", res.name)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) filtering() bool {
	return m.view == BackupListView && m.list.FilterState() == list.Filtering
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.list.SelectedItem().(backupItem); ok {
				m.selected = item.backup
				m.result = ""
				m.err = nil
				m.view = DetailView
			}
			return m, nil
		case key.Matches(msg, m.keys.refresh):
			return m, m.fetchBackups()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = BackupListView
		m.selected = nil
		m.result = ""
		m.err = nil
	case key.Matches(msg, m.keys.destroy):
		m.view = ConfirmView
	case key.Matches(msg, m.keys.open):
		return m, m.openURL()
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = WorkingView
		return m, tea.Batch(m.spinner.Tick, m.startDestroy())
	case key.Matches(msg, m.keys.no):
		m.view = DetailView
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.refresh) || key.Matches(msg, m.keys.back) {
		m.selected = nil
		m.result = ""
		m.err = nil
		return m, m.fetchBackups()
	}
	return m, nil
}

func (m *Model) fetchBackups() tea.Cmd {
	return func() tea.Msg {
		backups, err := m.source.ListBackups(m.ctx)
		return backupsFetchedMsg(backups, err)
	}
}

func (m *Model) openURL() tea.Cmd {
	b := m.selected
	return func() tea.Msg {
		name := models.BackupID(b.ToURL)
		if b.PublicURL == "" {
			return urlOpenedMsg(name, fmt.Errorf("%w: backup %s has no public URL", shared.ErrBackupNotFound, name))
		}
		return urlOpenedMsg(name, m.opener(b.PublicURL))
	}
}

// startDestroy deletes the selected backup in the background, streaming its progress updates back to the model.
// Confirmation already happened in [ConfirmView], so the engine is asked to force.
func (m *Model) startDestroy() tea.Cmd {
	job := &destroyJob{
		name:    models.BackupID(m.selected.ToURL),
		updates: make(chan tasks.ProgressUpdate, 10),
	}
	m.job = job

	go func() {
		job.err = m.source.Destroy(m.ctx, job.name, "", true, job.updates)
		close(job.updates)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	job := m.job
	return func() tea.Msg {
		if job == nil {
			return nil
		}
		update, ok := <-job.updates
		if !ok {
			return backupDestroyedMsg(job.name, job.err)
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case BackupListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	case WorkingView:
		return m.renderWorking()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.list.View(), helpView)
}

func (m *Model) renderDetail() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(models.BackupID(m.selected.ToURL)))
	b.WriteString("\n")
	b.WriteString(formatter.BackupInfo(m.selected))
	b.WriteString("\n")
	b.WriteString(styles.label.Render("Status:") + " " + statusStyle(m.selected).Render(formatter.TransferStatus(m.selected)))
	b.WriteString("\n")
	if created := shared.TimeAgo(m.selected.CreatedAt); created != "" {
		b.WriteString(styles.label.Render("Created:") + " " + created + "\n")
	}
	switch {
	case m.err != nil:
		b.WriteString("\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	case m.result != "":
		b.WriteString("\n" + styles.ok.Render(m.result) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.open, m.keys.destroy, m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderConfirm() string {
	name := models.BackupID(m.selected.ToURL)
	title := styles.title.Render(fmt.Sprintf("Destroy backup %s?", name))
	warning := styles.warn.Render(fmt.Sprintf("%s on %s will be permanently deleted.", name, m.source.App()))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n\n%s", title, warning, helpView)
}

func (m *Model) renderWorking() string {
	msg := "Working"
	if m.progress.Message != "" {
		msg = m.progress.Message
	}
	return fmt.Sprintf("%s %s ...", m.spinner.View(), msg)
}

func (m *Model) renderResult() string {
	var body string
	if m.err != nil {
		body = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	} else {
		body = styles.ok.Render(m.result)
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.refresh, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func statusStyle(b *models.Transfer) lipgloss.Style {
	switch {
	case b.Failed():
		return styles.err
	case b.Finished():
		return styles.ok
	default:
		return styles.warn
	}
}
