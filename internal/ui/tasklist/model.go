package tasklist

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Levi-Ojukwu/todo-ui/internal/keys"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/theme"
)

// FilterChangedMsg is sent when the user switches filter tabs.
type FilterChangedMsg struct {
	Filter model.Filter
}

// Model is the todo list view: filter tabs above a bubbles list.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	filter  model.Filter
	loading bool
	width   int
	height  int
}

// New creates a new todo list model.
func New(k *keys.KeyMap, width, height int) Model {
	return newWithClock(k, width, height, nil)
}

func newWithClock(k *keys.KeyMap, width, height int, now func() time.Time) Model {
	l := list.New([]list.Item{}, ItemDelegate{now: now}, width, height-2)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return Model{
		list:   l,
		keys:   k,
		filter: model.FilterAll,
		width:  width,
		height: height,
	}
}

// SetTodos replaces the displayed items. The caller passes the already
// filtered view for the current tab; the cursor stays on the same todo
// when it is still present.
func (m *Model) SetTodos(todos []model.Todo) tea.Cmd {
	selected, _ := m.SelectedTodo()

	items := make([]list.Item, len(todos))
	cursor := 0
	for i, t := range todos {
		items[i] = TodoItem{Todo: t}
		if t.ID == selected.ID {
			cursor = i
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// SetLoading toggles the loading placeholder.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Filter returns the active filter tab.
func (m Model) Filter() model.Filter {
	return m.filter
}

// SelectedTodo returns the todo under the cursor.
func (m Model) SelectedTodo() (model.Todo, bool) {
	item, ok := m.list.SelectedItem().(TodoItem)
	if !ok {
		return model.Todo{}, false
	}
	return item.Todo, true
}

// Update handles messages for the todo list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.FilterAll):
			return m.setFilter(model.FilterAll)
		case key.Matches(msg, m.keys.FilterActive):
			return m.setFilter(model.FilterActive)
		case key.Matches(msg, m.keys.FilterCompleted):
			return m.setFilter(model.FilterCompleted)
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) setFilter(f model.Filter) (Model, tea.Cmd) {
	if m.filter == f {
		return m, nil
	}
	m.filter = f
	m.list.Select(0)
	return m, func() tea.Msg { return FilterChangedMsg{Filter: f} }
}

// View renders the tabs and the list.
func (m Model) View() string {
	tabs := m.renderTabs()

	if m.loading && len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, tabs, m.renderPlaceholder("Loading todos..."))
	}
	if len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, tabs, m.renderPlaceholder(m.filter.EmptyMessage()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabs, "", m.list.View())
}

func (m Model) renderTabs() string {
	labels := map[model.Filter]string{
		model.FilterAll:       "1 All",
		model.FilterActive:    "2 Active",
		model.FilterCompleted: "3 Completed",
	}
	parts := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		parts = append(parts, theme.TabStyle(f == m.filter).Render(labels[f]))
	}
	return strings.Join(parts, " ")
}

// renderPlaceholder shows guidance text when the list is empty.
func (m Model) renderPlaceholder(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text + "\n\nPress n to add a todo.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
