package authform

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/theme"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui"
)

// Form modes.
const (
	ModeLogin    = "login"
	ModeRegister = "register"
)

// LoginSubmitMsg is dispatched when the sign-in form is submitted.
type LoginSubmitMsg struct {
	Email    string
	Password string
}

// RegisterSubmitMsg is dispatched when the sign-up form is submitted.
type RegisterSubmitMsg struct {
	Registration model.Registration
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

type formBindings struct {
	mode     string
	name     string
	email    string
	password string
	confirm  string
}

// Model is the sign-in / sign-up form shown while no session exists.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new auth form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{mode: ModeLogin},
		width:  width,
		height: height,
	}
}

// Start (re)builds the form. The email and mode of a previous attempt
// are kept; passwords are cleared.
func (m *Model) Start() tea.Cmd {
	m.fb.password = ""
	m.fb.confirm = ""
	if m.fb.mode == "" {
		m.fb.mode = ModeLogin
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Mode returns the selected mode.
func (m Model) Mode() string {
	return m.fb.mode
}

// Update handles messages for the auth form.
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
		return m, m.handleSubmit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the auth form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Welcome to todo-ui")

	panel := theme.PanelStyle.
		Width(m.formWidth() + 4).
		Render(title + "\n" + m.form.View())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	registering := func() bool { return fb.mode == ModeRegister }

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(
					huh.NewOption("Log in", ModeLogin),
					huh.NewOption("Create an account", ModeRegister),
				).
				Value(&fb.mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&fb.email).
				Validate(required("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.password).
				Validate(required("Password")),
		).WithHideFunc(registering),
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fb.name).
				Validate(required("Name")),
			huh.NewInput().
				Title("Email").
				Value(&fb.email).
				Validate(required("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.password).
				Validate(required("Password")),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.confirm).
				Validate(func(s string) error {
					if s != fb.password {
						return errs.Validation("Passwords do not match")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return !registering() }),
	).WithWidth(m.formWidth()).WithShowHelp(true).WithKeyMap(ui.FormKeyMap())
}

func (m Model) handleSubmit() tea.Cmd {
	fb := *m.fb
	email := strings.TrimSpace(fb.email)

	if fb.mode == ModeRegister {
		reg := model.Registration{
			Name:            strings.TrimSpace(fb.name),
			Email:           email,
			Password:        fb.password,
			ConfirmPassword: fb.confirm,
		}
		return func() tea.Msg { return RegisterSubmitMsg{Registration: reg} }
	}
	return func() tea.Msg { return LoginSubmitMsg{Email: email, Password: fb.password} }
}

func (m Model) formWidth() int {
	return min(max(m.width-10, 40), 60)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errs.Validation("%s is required", field)
		}
		return nil
	}
}
