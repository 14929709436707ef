package messagelist

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailshelf/internal/keys"
	"github.com/nhle/mailshelf/internal/model"
	"github.com/nhle/mailshelf/internal/prompt"
	"github.com/nhle/mailshelf/internal/query"
	"github.com/nhle/mailshelf/internal/store"
	"github.com/nhle/mailshelf/internal/theme"
)

// MessagesLoadedMsg is sent when a search against the store returns.
type MessagesLoadedMsg struct {
	Messages []model.Message
	Err      error
}

// SelectedMessageMsg is sent when a user opens a message.
type SelectedMessageMsg struct {
	MessageID int64
}

// DeletedMsg is sent after a delete was attempted.
type DeletedMsg struct {
	Subject string
	Err     error
}

// StatusMsg carries transient feedback for the status bar.
type StatusMsg struct {
	Text string
	Err  error
}

var errNoSelection = errors.New("no email selected")

// Model is the message list view: search, column sort, copy and delete.
type Model struct {
	list        list.Model
	store       store.Store
	keys        *keys.KeyMap
	messages    []model.Message
	scope       query.Scope
	query       string
	sorter      *query.Sorter
	searchMode  bool
	searchInput textinput.Model

	confirmDelete *huh.Form
	deleteConfirm *bool
	deleteTarget  model.Message

	width  int
	height int
}

// New creates a new message list model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Emails"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search emails..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		sorter:      query.NewSorter(query.FieldDate, query.Descending),
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial listing.
func (m Model) Init() tea.Cmd {
	return m.LoadMessages()
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmDelete != nil {
		return m.updateConfirmDelete(msg)
	}

	switch msg := msg.(type) {
	case MessagesLoadedMsg:
		if msg.Err != nil {
			return m, statusCmd("", msg.Err)
		}
		m.messages = msg.Messages
		return m, m.refreshItems()

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while the search bar has focus.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		return m, m.LoadMessages()

	case key.Matches(msg, m.keys.Back):
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.LoadMessages()

	case key.Matches(msg, m.keys.ToggleScope):
		m.scope = m.scope.Toggle()
		m.searchInput.Placeholder = "search " + m.scope.String() + "..."
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		sel, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedMessageMsg{MessageID: sel.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.ToggleScope):
		m.scope = m.scope.Toggle()
		return m, m.LoadMessages()

	case key.Matches(msg, m.keys.CycleSort):
		m.sorter.Toggle(nextField(m.sorter.Field()))
		return m, m.refreshItems()

	case key.Matches(msg, m.keys.ToggleSortDir):
		field := m.sorter.Field()
		if field == "" {
			field = query.FieldDate
		}
		m.sorter.Toggle(field)
		return m, m.refreshItems()

	case key.Matches(msg, m.keys.CopySubject):
		if sel, ok := m.Selected(); ok {
			return m, copyCmd("subject", sel.Subject)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopySender):
		if sel, ok := m.Selected(); ok {
			return m, copyCmd("sender", sel.Sender)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		sel, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, m.startDelete(sel)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.LoadMessages()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// nextField returns the sort field after f in query.Fields.
func nextField(f query.Field) query.Field {
	i := slices.Index(query.Fields, f)
	return query.Fields[(i+1)%len(query.Fields)]
}

// refreshItems re-sorts the current result set without querying the store.
func (m *Model) refreshItems() tea.Cmd {
	sorted := m.sorter.Apply(m.messages)
	items := make([]list.Item, len(sorted))
	for i, msg := range sorted {
		items[i] = MessageItem{Message: msg}
	}
	return m.list.SetItems(items)
}

// --- Delete confirmation ---

func (m *Model) startDelete(target model.Message) tea.Cmd {
	confirm := false
	m.deleteConfirm = &confirm
	m.deleteTarget = target
	m.confirmDelete = prompt.DeleteForm(target.Subject, m.deleteConfirm).
		WithTheme(theme.Form()).
		WithWidth(min(max(m.width-4, 20), 80))
	return m.confirmDelete.Init()
}

func (m Model) updateConfirmDelete(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.confirmDelete.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmDelete = f
	}

	switch m.confirmDelete.State {
	case huh.StateCompleted:
		m.confirmDelete = nil
		if *m.deleteConfirm {
			return m, m.deleteMessage(m.deleteTarget)
		}
		return m, nil
	case huh.StateAborted:
		m.confirmDelete = nil
		return m, nil
	}

	return m, cmd
}

func (m Model) deleteMessage(target model.Message) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.DeleteMessage(context.Background(), target.ID)
		return DeletedMsg{Subject: target.Subject, Err: err}
	}
}

// --- View ---

// View renders the list view.
func (m Model) View() string {
	if m.confirmDelete != nil {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Width(m.width).
			Height(m.height).
			Render(m.confirmDelete.View())
	}

	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] %s", m.scope, m.searchInput.View()))
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when there is nothing to list.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render("No matching emails.\nPress / to change the search.")
	}

	return style.Render(
		"No emails yet.\n\n" +
			"Press : then type 'import <file.eml>...' to add some.",
	)
}

// Summary returns the result count, search filter and sort for the status
// bar.
func (m Model) Summary() string {
	return query.Describe(m.scope, m.query, len(m.messages)) + " | Sort: " + m.sorter.Label()
}

// Selected returns the highlighted message.
func (m Model) Selected() (model.Message, bool) {
	item, ok := m.list.SelectedItem().(MessageItem)
	if !ok {
		return model.Message{}, false
	}
	return item.Message, true
}

// ConfirmingDelete reports whether the delete form has focus.
func (m Model) ConfirmingDelete() bool {
	return m.confirmDelete != nil
}

// Searching reports whether the search bar has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SortBy sorts the listing by f. Picking the current field again flips
// the direction.
func (m *Model) SortBy(f query.Field) tea.Cmd {
	m.sorter.Toggle(f)
	return m.refreshItems()
}

// ToggleScope switches between subject and subject+body search and reruns
// the query.
func (m *Model) ToggleScope() tea.Cmd {
	m.scope = m.scope.Toggle()
	return m.LoadMessages()
}

// DeleteSelected opens the delete confirmation for the highlighted message.
func (m *Model) DeleteSelected() tea.Cmd {
	sel, ok := m.Selected()
	if !ok {
		return statusCmd("", errNoSelection)
	}
	return m.startDelete(sel)
}

// LoadMessages returns a tea.Cmd that runs the current search.
func (m Model) LoadMessages() tea.Cmd {
	s := m.store
	scope, q := m.scope, m.query
	return func() tea.Msg {
		msgs, err := query.Search(context.Background(), s, scope, q)
		return MessagesLoadedMsg{Messages: msgs, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

func copyCmd(label, text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return StatusMsg{Err: fmt.Errorf("copying %s: %w", label, err)}
		}
		return StatusMsg{Text: "Copied " + label + " to clipboard"}
	}
}

func statusCmd(text string, err error) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Text: text, Err: err}
	}
}
