package todoform

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

// TodoCreatedMsg is dispatched when the create form is submitted.
type TodoCreatedMsg struct {
	Fields model.TodoFields
}

// TodoUpdatedMsg is dispatched when the edit form is submitted. Patch
// only carries the fields the user changed.
type TodoUpdatedMsg struct {
	ID    string
	Patch model.TodoPatch
}

// TodoFormCancelMsg is dispatched when the user cancels the form.
type TodoFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	deadline    string
	tags        string
}

// Model is the Bubble Tea model for the todo create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	original model.Todo
	width    int
	height   int
}

// New creates a new todo form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for creating a new todo.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.original = model.Todo{}
	*m.fb = formBindings{}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing todo.
func (m *Model) StartEdit(todo model.Todo) tea.Cmd {
	m.editMode = true
	m.original = todo.Clone()
	*m.fb = formBindings{
		title:       todo.Title,
		description: todo.Description,
		deadline:    todo.DeadlineString(),
		tags:        strings.Join(todo.Tags, ", "),
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the todo form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return TodoFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the todo form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Todo"
	if m.editMode {
		titleText = "Edit Todo"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("Details...").
				Value(&m.fb.description).
				Validate(validateRequired("Description")),
			huh.NewInput().
				Title("Deadline").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.deadline).
				Validate(validateDate),
			huh.NewInput().
				Title("Tags").
				Placeholder("comma separated, optional").
				Value(&m.fb.tags),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight()).WithKeyMap(ui.FormKeyMap())
}

func (m Model) handleSubmit() tea.Cmd {
	// Validated by the form; a parse error here cannot happen.
	deadline, _ := model.ParseDate(m.fb.deadline)
	tags := SplitTags(m.fb.tags)

	if !m.editMode {
		fields := model.TodoFields{
			Title:       strings.TrimSpace(m.fb.title),
			Description: strings.TrimSpace(m.fb.description),
			Deadline:    deadline,
			Tags:        tags,
		}
		return func() tea.Msg { return TodoCreatedMsg{Fields: fields} }
	}

	patch := Diff(m.original, model.TodoFields{
		Title:       strings.TrimSpace(m.fb.title),
		Description: strings.TrimSpace(m.fb.description),
		Deadline:    deadline,
		Tags:        tags,
	})
	id := m.original.ID
	if patch.IsEmpty() {
		return func() tea.Msg { return TodoFormCancelMsg{} }
	}
	return func() tea.Msg { return TodoUpdatedMsg{ID: id, Patch: patch} }
}

// Diff returns a patch holding only the fields of edited that differ
// from original.
func Diff(original model.Todo, edited model.TodoFields) model.TodoPatch {
	var p model.TodoPatch
	if edited.Title != original.Title {
		title := edited.Title
		p.Title = &title
	}
	if edited.Description != original.Description {
		desc := edited.Description
		p.Description = &desc
	}
	if !edited.Deadline.Equal(original.Deadline) {
		d := edited.Deadline
		p.Deadline = &d
	}
	if !equalTags(model.NormalizeTags(edited.Tags), original.Tags) {
		p.Tags = model.NormalizeTags(edited.Tags)
	}
	return p
}

// SplitTags parses a comma separated tag list.
func SplitTags(s string) []string {
	return model.NormalizeTags(strings.Split(s, ","))
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errs.Validation("%s is required", fieldName)
		}
		return nil
	}
}

func validateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return errs.Validation("Deadline is required")
	}
	_, err := model.ParseDate(s)
	return err
}
