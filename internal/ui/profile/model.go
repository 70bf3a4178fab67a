package profile

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/theme"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui"
)

// SubmitMsg is dispatched when the profile form is submitted.
type SubmitMsg struct {
	Change model.ProfileChange
}

// CancelMsg is dispatched when the user leaves the form.
type CancelMsg struct{}

type formBindings struct {
	name     string
	password string
	confirm  string
}

// Model is the profile settings view: account summary above a huh form
// for the display name and password.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	session model.Session
	width   int
	height  int
}

// New creates a new profile view model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form from the current session.
func (m *Model) Start(s model.Session) tea.Cmd {
	m.session = s
	*m.fb = formBindings{name: s.User.Name}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the profile form.
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
		change := model.ProfileChange{
			NewPassword:     m.fb.password,
			ConfirmPassword: m.fb.confirm,
		}
		// Only send the name when it changed.
		if name := strings.TrimSpace(m.fb.name); name != m.session.User.Name {
			change.Name = name
		}
		if change.Name == "" && change.NewPassword == "" {
			return m, func() tea.Msg { return CancelMsg{} }
		}
		return m, func() tea.Msg { return SubmitMsg{Change: change} }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the account summary and the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Profile")

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		Summary(m.session, time.Now()),
		"",
		m.form.View(),
	)
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// Summary renders the signed-in account as labelled lines.
func Summary(s model.Session, now time.Time) string {
	label := lipgloss.NewStyle().Foreground(theme.ColorGray)
	row := func(k, v string) string {
		return label.Render(fmt.Sprintf("%-9s", k+":")) + " " + v
	}

	lines := []string{
		row("Name", s.User.Name),
		row("Email", s.User.Email),
	}
	if s.User.AvatarURL != "" {
		lines = append(lines, row("Avatar", s.User.AvatarURL))
	} else {
		lines = append(lines, row("Avatar", theme.DimmedStyle.Render("none")))
	}
	if s.ExpiresAt != nil {
		exp := humanize.RelTime(*s.ExpiresAt, now, "ago", "from now")
		if s.ExpiresAt.Before(now) {
			lines = append(lines, row("Session", theme.OverdueStyle.Render("expired "+exp)))
		} else {
			lines = append(lines, row("Session", "expires "+exp))
		}
	}
	return strings.Join(lines, "\n")
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errs.Validation("Name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("New password").
				Description("Leave blank to keep the current one.").
				EchoMode(huh.EchoModePassword).
				Value(&fb.password),
			huh.NewInput().
				Title("Confirm new password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.confirm).
				Validate(func(s string) error {
					if s != fb.password {
						return errs.Validation("New passwords do not match")
					}
					return nil
				}),
		),
	).WithWidth(min(max(m.width-4, 40), 80)).WithKeyMap(ui.FormKeyMap())
}
