package avatar

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Levi-Ojukwu/todo-ui/internal/keys"
	"github.com/Levi-Ojukwu/todo-ui/internal/theme"
	"github.com/Levi-Ojukwu/todo-ui/internal/upload"
)

// PathSubmittedMsg is emitted when the user enters a file path.
type PathSubmittedMsg struct {
	Path string
}

// ConfirmMsg asks the parent to start the upload.
type ConfirmMsg struct{}

// RetryMsg asks the parent to go back to confirmation after a failure.
type RetryMsg struct{}

// CancelMsg asks the parent to drop the selection and close the view.
type CancelMsg struct{}

// Model is the avatar upload view. It asks for a path while the flow is
// idle and otherwise renders the flow's snapshot.
type Model struct {
	input   textinput.Model
	spinner spinner.Model
	keys    *keys.KeyMap
	snap    upload.Snapshot
	width   int
	height  int
}

// New creates a new avatar upload model.
func New(k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "path to an image, e.g. ~/Pictures/me.png"
	ti.Prompt = "> "
	ti.Width = width - 6

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		input:   ti,
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Start resets the path prompt and focuses it.
func (m *Model) Start() tea.Cmd {
	m.snap = upload.Snapshot{}
	m.input.Reset()
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

// SetSnapshot updates the rendered flow state.
func (m *Model) SetSnapshot(s upload.Snapshot) tea.Cmd {
	m.snap = s
	if s.State == upload.StateUploading {
		return m.spinner.Tick
	}
	return nil
}

// Update handles messages for the avatar view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.snap.State != upload.StateUploading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.snap.State {
		case upload.StateIdle:
			switch msg.String() {
			case "enter":
				path := strings.TrimSpace(m.input.Value())
				if path == "" {
					return m, nil
				}
				return m, func() tea.Msg { return PathSubmittedMsg{Path: path} }
			case "esc":
				return m, func() tea.Msg { return CancelMsg{} }
			}
		case upload.StateConfirming:
			switch {
			case key.Matches(msg, m.keys.Confirm):
				return m, func() tea.Msg { return ConfirmMsg{} }
			case key.Matches(msg, m.keys.Cancel):
				return m, func() tea.Msg { return CancelMsg{} }
			}
			return m, nil
		case upload.StateFailed:
			switch {
			case key.Matches(msg, m.keys.Refresh):
				return m, func() tea.Msg { return RetryMsg{} }
			case key.Matches(msg, m.keys.Cancel):
				return m, func() tea.Msg { return CancelMsg{} }
			}
			return m, nil
		default:
			return m, nil
		}
	}

	if m.snap.State != upload.StateIdle {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the avatar view.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Upload profile image")

	var body string
	switch m.snap.State {
	case upload.StateIdle:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.input.View(),
			"",
			theme.HelpStyle.Render("enter select · esc cancel"),
		)
	case upload.StateConfirming:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.fileInfo(),
			"",
			theme.HelpStyle.Render("y upload · n cancel"),
		)
	case upload.StateUploading:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.fileInfo(),
			"",
			m.spinner.View()+" Uploading...",
		)
	case upload.StateFailed:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.fileInfo(),
			"",
			theme.OverdueStyle.Render(m.snap.ErrorMsg),
			"",
			theme.HelpStyle.Render("r try again · esc cancel"),
		)
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func (m Model) fileInfo() string {
	if m.snap.File == nil {
		return ""
	}
	f := m.snap.File
	label := lipgloss.NewStyle().Foreground(theme.ColorGray)
	lines := []string{
		label.Render("File:    ") + f.Name,
		label.Render("Type:    ") + f.ContentType,
		label.Render("Size:    ") + humanize.Bytes(uint64(f.Size)),
	}
	if m.snap.Preview != "" {
		lines = append(lines, label.Render("Preview: ")+m.snap.Preview)
	}
	return strings.Join(lines, "\n")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}
