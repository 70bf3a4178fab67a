package confirm

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Levi-Ojukwu/todo-ui/internal/keys"
	"github.com/Levi-Ojukwu/todo-ui/internal/theme"
)

// AnsweredMsg is sent once the user answers the dialog.
type AnsweredMsg struct {
	// Tag identifies which question was answered.
	Tag string
	Yes bool
}

// Model is a yes/no modal.
type Model struct {
	keys   *keys.KeyMap
	tag    string
	title  string
	body   string
	width  int
	height int
}

// New creates an empty dialog.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// Ask sets the question shown by the dialog.
func (m *Model) Ask(tag, title, body string) {
	m.tag = tag
	m.title = title
	m.body = body
}

// Tag returns the tag of the current question.
func (m Model) Tag() string {
	return m.tag
}

// Update answers the dialog on the confirm and cancel keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	tag := m.tag
	switch {
	case key.Matches(kmsg, m.keys.Confirm):
		return m, func() tea.Msg { return AnsweredMsg{Tag: tag, Yes: true} }
	case key.Matches(kmsg, m.keys.Cancel):
		return m, func() tea.Msg { return AnsweredMsg{Tag: tag, Yes: false} }
	}
	return m, nil
}

// View renders the dialog centered in the content area.
func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorOrange).Render(m.title)
	hint := theme.HelpStyle.Render("y confirm · n cancel")

	parts := []string{title, ""}
	if m.body != "" {
		parts = append(parts, m.body, "")
	}
	parts = append(parts, hint)

	box := theme.ModalStyle.
		Width(min(max(m.width/2, 40), m.width)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates the dialog dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
