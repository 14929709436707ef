package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/mailshelf/internal/keys"
	"github.com/nhle/mailshelf/internal/model"
	"github.com/nhle/mailshelf/internal/render"
	"github.com/nhle/mailshelf/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// DetailLoadedMsg carries the loaded message, attachments included.
type DetailLoadedMsg struct {
	Message *model.Message
	Err     error
}

// ExportRequestMsg asks the parent to export the attachments of a message.
type ExportRequestMsg struct {
	MessageID int64
}

// Model is the message detail view component.
type Model struct {
	message  *model.Message
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
	err      error
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.message = msg.Message
		m.err = msg.Err
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Export):
			if m.message != nil && len(m.message.Attachments) > 0 {
				id := m.message.ID
				return m, func() tea.Msg {
					return ExportRequestMsg{MessageID: id}
				}
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	centered := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return centered.Render("Loading email...")
	case m.err != nil:
		return centered.Foreground(theme.ColorRed).Render(m.err.Error())
	case m.message == nil:
		return centered.Render("No email selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.message == nil {
		return ""
	}

	msg := m.message
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(msg.Subject), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections,
		fmt.Sprintf("%s  %s", metaStyle.Render("From:"), valStyle.Render(msg.Sender)),
		fmt.Sprintf("%s  %s", metaStyle.Render("Date:"), valStyle.Render(render.Date(msg.Date))),
		fmt.Sprintf("%s    %s", metaStyle.Render("ID:"), valStyle.Render(fmt.Sprint(msg.ID))),
	)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))

	if len(msg.Attachments) > 0 {
		sections = append(sections, "", separator, "")
		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
		sections = append(sections, headerStyle.Render(
			fmt.Sprintf("Attachments (%d, %s)", len(msg.Attachments),
				humanize.Bytes(uint64(msg.TotalAttachmentBytes()))),
		))
		for _, a := range msg.Attachments {
			sections = append(sections, fmt.Sprintf("  %s %s %s",
				theme.AttachmentBadgeStyle.Render(fmt.Sprintf("#%d", a.ID)),
				valStyle.Render(a.FileName),
				metaStyle.Render(fmt.Sprintf("%s, %s", a.ContentType, humanize.Bytes(uint64(a.Size)))),
			))
		}
	}

	sections = append(sections, "", separator, "")

	body := render.Body(*msg)
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No body")
	}
	sections = append(sections, lipgloss.NewStyle().Width(max(m.width-2, 20)).Render(body))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Current returns the displayed message, if any.
func (m Model) Current() *model.Message {
	return m.message
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
