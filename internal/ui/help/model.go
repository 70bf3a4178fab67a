package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/Levi-Ojukwu/todo-ui/internal/keys"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/theme"
)

// Model is the help overlay: the key bindings plus a short account and
// collection summary.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	account string
	filter  model.Filter
	stats   model.Stats
	width   int
	height  int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		filter: model.FilterAll,
		width:  width,
		height: height,
	}
}

// SetContext sets the summary shown under the bindings.
func (m *Model) SetContext(account string, filter model.Filter, stats model.Stats) {
	m.account = account
	m.filter = filter
	m.stats = stats
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	label := lipgloss.NewStyle().Foreground(theme.ColorGray)
	var summary []string
	if m.account != "" {
		summary = append(summary, label.Render("Account: ")+m.account)
	}
	summary = append(summary, label.Render("Showing: ")+fmt.Sprintf(
		"%s (%d of %d)", m.filter, m.visible(), m.stats.Total,
	))

	footer := theme.HelpStyle.Render(
		"Deleting asks for confirmation. Completing a todo cannot be undone.",
	)

	parts := []string{title, helpText, ""}
	parts = append(parts, summary...)
	parts = append(parts, "", footer)
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

func (m Model) visible() int {
	switch m.filter {
	case model.FilterActive:
		return m.stats.Active
	case model.FilterCompleted:
		return m.stats.Completed
	default:
		return m.stats.Total
	}
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
