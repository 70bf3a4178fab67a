package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Levi-Ojukwu/todo-ui/internal/keys"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg signals the parent to execute an action on the current todo.
type ActionMsg struct {
	Action string
	TodoID string
}

// Actions carried by ActionMsg.
const (
	ActionEdit     = "edit"
	ActionComplete = "complete"
	ActionDelete   = "delete"
)

// Model is the todo detail view component.
type Model struct {
	todo     *model.Todo
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Edit):
			return m, m.action(ActionEdit)
		case key.Matches(msg, m.keys.Complete):
			return m, m.action(ActionComplete)
		case key.Matches(msg, m.keys.Delete):
			return m, m.action(ActionDelete)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	if m.todo == nil {
		return nil
	}
	id := m.todo.ID
	return func() tea.Msg { return ActionMsg{Action: name, TodoID: id} }
}

// View renders the detail view.
func (m Model) View() string {
	if m.todo == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No todo selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.todo == nil {
		return ""
	}

	t := m.todo
	now := m.now()
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, theme.StatusMark(t.IsCompleted())+" "+titleStyle.Render(t.Title))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
	}

	status := valStyle.Render("Active")
	switch {
	case t.IsCompleted():
		status = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("Completed")
	case t.IsOverdue(now):
		status = theme.OverdueStyle.Render("Overdue")
	}
	sections = append(sections, row("Status", status))

	if !t.Deadline.IsZero() {
		sections = append(sections, row("Deadline", valStyle.Render(t.DeadlineString())))
	}
	if t.CompletedAt != nil && !t.CompletedAt.IsZero() {
		sections = append(sections, row("Done", valStyle.Render(
			t.CompletedAt.Local().Format("2006-01-02 15:04")+" ("+humanize.Time(*t.CompletedAt)+")",
		)))
	}
	if len(t.Tags) > 0 {
		badges := make([]string, len(t.Tags))
		for i, tag := range t.Tags {
			badges[i] = theme.TagStyle.Render("#" + tag)
		}
		sections = append(sections, row("Tags", strings.Join(badges, " ")))
	}
	sections = append(sections, row("ID", metaStyle.Render(t.ID)))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	descHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sections = append(sections, descHeaderStyle.Render("Description"))

	body := t.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, lipgloss.NewStyle().Width(max(m.width-2, 10)).Render(body))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTodo updates the todo being displayed and re-renders the content.
func (m *Model) SetTodo(t model.Todo) {
	c := t.Clone()
	m.todo = &c
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Clear drops the displayed todo.
func (m *Model) Clear() {
	m.todo = nil
	m.viewport.SetContent("")
}

// TodoID returns the id of the displayed todo, or "".
func (m Model) TodoID() string {
	if m.todo == nil {
		return ""
	}
	return m.todo.ID
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.todo != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
