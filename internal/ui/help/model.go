package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailshelf/internal/keys"
	"github.com/nhle/mailshelf/internal/theme"
	"github.com/nhle/mailshelf/internal/ui/command"
)

// Model is the help overlay: key bindings plus palette commands.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	keysTitle := titleStyle.Render("Keyboard Shortcuts")
	keysText := m.help.View(m.keys)

	cmdTitle := titleStyle.MarginTop(1).Render("Commands (press :)")
	var lines []string
	for _, u := range command.Usage {
		lines = append(lines,
			lipgloss.NewStyle().Foreground(theme.ColorBlue).Render(u.Syntax)+"  "+lipgloss.NewStyle().Foreground(theme.ColorGray).Render(u.Summary))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		keysTitle, keysText, cmdTitle, strings.Join(lines, "\n"))

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
