package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailshelf/internal/query"
	"github.com/nhle/mailshelf/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	Import Name = "import"
	Export Name = "export"
	Delete Name = "delete"
	Sort   Name = "sort"
	Scope  Name = "scope"
	Reload Name = "reload"
	Cancel Name = "cancel"
	Quit   Name = "quit"
)

// ErrUnknown is returned by Parse for an unrecognised command name.
var ErrUnknown = errors.New("unknown command")

// Command is a parsed palette line.
type Command struct {
	Name Name
	Args []string
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Command Command
	Err     error
}

// UsageLine documents one palette command.
type UsageLine struct {
	Syntax  string
	Summary string
}

// Usage lists the palette commands in the order shown by the help view.
var Usage = []UsageLine{
	{"import <file|dir|glob>...", "import .eml files"},
	{"export [dir]", "write the selected email's attachments"},
	{"delete", "delete the selected email"},
	{"sort <field>", "sort by " + fieldNames()},
	{"scope", "toggle subject / subject+body search"},
	{"reload", "re-run the current search"},
	{"cancel", "stop a running import"},
	{"quit", "exit"},
}

var aliases = map[string]Name{
	"import":  Import,
	"i":       Import,
	"export":  Export,
	"delete":  Delete,
	"rm":      Delete,
	"sort":    Sort,
	"scope":   Scope,
	"reload":  Reload,
	"refresh": Reload,
	"cancel":  Cancel,
	"quit":    Quit,
	"q":       Quit,
}

// Parse splits a palette line into a command and its arguments and checks
// the argument count.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty input", ErrUnknown)
	}

	name, ok := aliases[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknown, fields[0])
	}
	cmd := Command{Name: name, Args: fields[1:]}

	switch name {
	case Import:
		if len(cmd.Args) == 0 {
			return Command{}, errors.New("import needs at least one path")
		}
	case Export:
		if len(cmd.Args) > 1 {
			return Command{}, errors.New("export takes at most one directory")
		}
	case Sort:
		if len(cmd.Args) != 1 {
			return Command{}, fmt.Errorf("sort needs one of %s", fieldNames())
		}
		if _, err := query.ParseField(cmd.Args[0]); err != nil {
			return Command{}, err
		}
	default:
		if len(cmd.Args) > 0 {
			return Command{}, fmt.Errorf("%s takes no arguments", name)
		}
	}
	return cmd, nil
}

func fieldNames() string {
	names := make([]string, len(query.Fields))
	for i, f := range query.Fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "import ~/Mail/*.eml"
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, nil
			}
			cmd, err := Parse(line)
			return m, func() tea.Msg {
				return CommandMsg{Command: cmd, Err: err}
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()

	content := lipgloss.JoinVertical(lipgloss.Left, title, input)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}
