package conflict

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailshelf/internal/importer"
	"github.com/nhle/mailshelf/internal/prompt"
	"github.com/nhle/mailshelf/internal/theme"
)

// ResolvedMsg is emitted after the user answered or dismissed a prompt.
type ResolvedMsg struct{}

// errDismissed is sent to the importer when the user closes a prompt.
var errDismissed = errors.New("conflict prompt dismissed")

type mode int

const (
	modeNone mode = iota
	modeConflict
	modeApplyAll
)

// Model shows the collision forms of a running import.
type Model struct {
	bridge *Bridge
	form   *huh.Form
	mode   mode

	// Form values live on the heap so copies of Model share them.
	answer       *importer.Answer
	overwriteAll *bool

	width, height int
}

// New creates a conflict view answering on b.
func New(b *Bridge, width, height int) Model {
	return Model{bridge: b, width: width, height: height}
}

// Ask shows the collision form for subject.
func (m *Model) Ask(subject string) tea.Cmd {
	m.mode = modeConflict
	answer := importer.AnswerOverwrite
	m.answer = &answer
	m.form = prompt.ConflictForm(subject, m.answer).
		WithTheme(theme.Form()).
		WithWidth(m.formWidth())
	return m.form.Init()
}

// AskApplyAll shows the overwrite-all / skip-all form.
func (m *Model) AskApplyAll() tea.Cmd {
	m.mode = modeApplyAll
	overwriteAll := false
	m.overwriteAll = &overwriteAll
	m.form = prompt.ApplyAllForm(m.overwriteAll).
		WithTheme(theme.Form()).
		WithWidth(m.formWidth())
	return m.form.Init()
}

// Update forwards input to the active form and replies on the bridge once
// the form completes.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		switch m.mode {
		case modeConflict:
			m.bridge.Answer(*m.answer)
		case modeApplyAll:
			m.bridge.AnswerApplyAll(*m.overwriteAll)
		}
		return m.reset(), resolved

	case huh.StateAborted:
		m.bridge.Abort(errDismissed)
		return m.reset(), resolved
	}

	return m, cmd
}

func resolved() tea.Msg { return ResolvedMsg{} }

func (m Model) reset() Model {
	m.form = nil
	m.mode = modeNone
	return m
}

// View renders the active form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(m.form.View())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 20), 80)
}
