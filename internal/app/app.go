package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/nhle/mailshelf/internal/export"
	"github.com/nhle/mailshelf/internal/importer"
	"github.com/nhle/mailshelf/internal/keys"
	"github.com/nhle/mailshelf/internal/model"
	"github.com/nhle/mailshelf/internal/query"
	"github.com/nhle/mailshelf/internal/store"
	"github.com/nhle/mailshelf/internal/theme"
	"github.com/nhle/mailshelf/internal/ui"
	"github.com/nhle/mailshelf/internal/ui/command"
	"github.com/nhle/mailshelf/internal/ui/conflict"
	"github.com/nhle/mailshelf/internal/ui/detail"
	helpview "github.com/nhle/mailshelf/internal/ui/help"
	"github.com/nhle/mailshelf/internal/ui/messagelist"
)

var errImportRunning = errors.New("an import is already running")

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewConflict
)

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        store.Store
	cfg          *model.AppConfig
	logger       *slog.Logger
	keys         *keys.KeyMap
	policy       importer.State
	fs           afero.Fs
	exporter     *export.Exporter

	messageList  messagelist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	conflictView conflict.Model
	bridge       *conflict.Bridge

	ready     bool
	status    string
	statusErr bool
}

// New creates the root application model. The initial conflict policy
// comes from cfg.Import.OnConflict.
func New(s store.Store, cfg *model.AppConfig, logger *slog.Logger) (Model, error) {
	policy, err := importer.StateFromPolicy(cfg.Import.OnConflict)
	if err != nil {
		return Model{}, err
	}

	k := keys.DefaultKeyMap()
	b := conflict.NewBridge()
	fs := afero.NewOsFs()

	return Model{
		currentView:  ViewList,
		store:        s,
		cfg:          cfg,
		logger:       logger,
		keys:         k,
		policy:       policy,
		fs:           fs,
		exporter:     &export.Exporter{Fs: fs},
		messageList:  messagelist.New(s, k, 80, 24),
		detail:       detail.New(k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		conflictView: conflict.New(b, 80, 24),
		bridge:       b,
	}, nil
}

// Init returns the initial command that loads the listing.
func (m Model) Init() tea.Cmd {
	return m.messageList.Init()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.messageList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.conflictView.SetSize(w, h)
		return m, nil

	case messagelist.SelectedMessageMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.loadDetail(msg.MessageID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.ExportRequestMsg:
		m.setStatus("Exporting...", false)
		return m, m.exportMessage(msg.MessageID, m.cfg.Export.Dir)

	case exportDoneMsg:
		switch {
		case msg.err != nil:
			m.setStatus("Export failed: "+msg.err.Error(), true)
		case len(msg.report.Failures) > 0:
			m.setStatus(fmt.Sprintf("Exported %d of %d to %s: %v",
				len(msg.report.Written),
				len(msg.report.Written)+len(msg.report.Failures),
				msg.dir, msg.report.Failures[0]), true)
		default:
			m.setStatus(fmt.Sprintf("Exported %d attachment(s) to %s",
				len(msg.report.Written), msg.dir), false)
		}
		return m, nil

	case messagelist.DeletedMsg:
		if msg.Err != nil {
			m.setStatus("Delete failed: "+msg.Err.Error(), true)
			return m, nil
		}
		m.logger.Info("deleted message", "subject", msg.Subject)
		m.setStatus(fmt.Sprintf("Deleted %q", msg.Subject), false)
		return m, m.messageList.LoadMessages()

	case messagelist.StatusMsg:
		if msg.Err != nil {
			m.setStatus(msg.Err.Error(), true)
		} else {
			m.setStatus(msg.Text, false)
		}
		return m, nil

	case statusMsg:
		m.setStatus(msg.text, msg.isErr)
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		if msg.Err != nil {
			m.setStatus(msg.Err.Error(), true)
			return m, nil
		}
		return m, m.executeCommand(msg.Command)

	case conflict.PromptMsg:
		m.enterConflictView()
		return m, m.conflictView.Ask(msg.Subject)

	case conflict.ApplyAllPromptMsg:
		m.enterConflictView()
		return m, m.conflictView.AskApplyAll()

	case conflict.ResolvedMsg:
		m.currentView = m.previousView
		return m, m.bridge.WaitForNext()

	case conflict.ProgressMsg:
		evt := msg.Event
		m.setStatus(fmt.Sprintf("Importing %d/%d: %s (%s)",
			evt.Index+1, evt.Total, evt.Path, evt.Outcome), false)
		return m, m.bridge.WaitForNext()

	case conflict.DoneMsg:
		if m.currentView == ViewConflict {
			m.currentView = m.previousView
		}
		m.setStatus(reportImport(msg))
		return m, m.messageList.LoadMessages()

	case tea.KeyMsg:
		if !m.bridge.Active() {
			m.status = ""
		}
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work across views. Keys are left to
// the active view while it has a text input or form focused.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.bridge.Cancel()
		return tea.Quit, true
	}

	if m.currentView == ViewConflict ||
		(m.currentView == ViewList && (m.messageList.Searching() || m.messageList.ConfirmingDelete())) {
		return nil, false
	}

	switch {
	case m.currentView == ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false

	case key.Matches(msg, m.keys.Quit) && m.currentView == ViewList:
		m.bridge.Cancel()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.Back) && m.currentView == ViewHelp:
		m.currentView = m.previousView
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true
	}

	return nil, false
}

// enterConflictView switches to the conflict form, remembering the view
// to return to.
func (m *Model) enterConflictView() {
	switch m.currentView {
	case ViewConflict:
	case ViewHelp, ViewCommand:
		m.previousView = ViewList
	default:
		m.previousView = m.currentView
	}
	m.currentView = ViewConflict
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.messageList, cmd = m.messageList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewConflict:
		m.conflictView, cmd = m.conflictView.Update(msg)
	}

	// Results of a list search may arrive while another view is active.
	if _, ok := msg.(messagelist.MessagesLoadedMsg); ok && m.currentView != ViewList {
		var listCmd tea.Cmd
		m.messageList, listCmd = m.messageList.Update(msg)
		cmd = tea.Batch(cmd, listCmd)
	}

	return m, cmd
}

// executeCommand runs a parsed palette command.
func (m *Model) executeCommand(cmd command.Command) tea.Cmd {
	switch cmd.Name {
	case command.Import:
		return m.startImport(cmd.Args)

	case command.Export:
		id, ok := m.selectedID()
		if !ok {
			return statusErr(errors.New("no email selected"))
		}
		dir := m.cfg.Export.Dir
		if len(cmd.Args) == 1 {
			dir = cmd.Args[0]
		}
		return m.exportMessage(id, dir)

	case command.Delete:
		m.currentView = ViewList
		return m.messageList.DeleteSelected()

	case command.Sort:
		f, err := query.ParseField(cmd.Args[0])
		if err != nil {
			return statusErr(err)
		}
		return m.messageList.SortBy(f)

	case command.Scope:
		return m.messageList.ToggleScope()

	case command.Reload:
		return m.messageList.LoadMessages()

	case command.Cancel:
		if !m.bridge.Active() {
			return statusErr(errors.New("no import is running"))
		}
		m.bridge.Cancel()
		return nil

	case command.Quit:
		m.bridge.Cancel()
		return tea.Quit
	}
	return nil
}

// selectedID returns the message shown in the detail view, or else the one
// highlighted in the list.
func (m Model) selectedID() (int64, bool) {
	if m.currentView == ViewDetail {
		if cur := m.detail.Current(); cur != nil {
			return cur.ID, true
		}
	}
	sel, ok := m.messageList.Selected()
	return sel.ID, ok
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Mailshelf", m.bridge.Status())
	statusBar := m.layout.RenderStatusBar(m.statusLeft(), m.messageList.Summary())

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.messageList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewConflict:
		return m.conflictView.View()
	default:
		return ""
	}
}

// statusLeft returns the latest status message, or key hints for the
// active view.
func (m Model) statusLeft() string {
	if m.status != "" {
		if m.statusErr {
			return theme.ErrorStyle.Render(m.status)
		}
		return m.status
	}
	return m.keyHints()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | e export attachments | j/k scroll"
	case ViewConflict:
		return "enter confirm | esc abort import"
	default:
		return "q quit | ? help | : command | / search | s sort | d delete"
	}
}
