package app

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
	"github.com/Levi-Ojukwu/todo-ui/internal/keys"
	"github.com/Levi-Ojukwu/todo-ui/internal/session"
	appsync "github.com/Levi-Ojukwu/todo-ui/internal/sync"
	"github.com/Levi-Ojukwu/todo-ui/internal/todos"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/authform"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/avatar"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/confirm"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/detail"
	helpview "github.com/Levi-Ojukwu/todo-ui/internal/ui/help"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/profile"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/stats"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/tasklist"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/todoform"
	"github.com/Levi-Ojukwu/todo-ui/internal/upload"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewList
	ViewDetail
	ViewHelp
	ViewTodoCreate
	ViewTodoEdit
	ViewConfirmDelete
	ViewProfile
	ViewAvatar
)

// confirmDeleteTag tags the delete question in the confirm dialog.
const confirmDeleteTag = "delete"

// startedMsg is the first message the program receives.
type startedMsg struct{}

// Deps are the long-lived components the dashboard drives. Poller may
// be nil, which disables background profile refreshes.
type Deps struct {
	Client  *api.Client
	Session *session.Store
	Todos   *todos.Manager
	Upload  *upload.Flow
	Poller  *appsync.Poller
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the signed-in session.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	client  *api.Client
	session *session.Store
	todos   *todos.Manager
	flow    *upload.Flow
	poller  *appsync.Poller

	authForm    authform.Model
	taskList    tasklist.Model
	detail      detail.Model
	helpView    helpview.Model
	todoForm    todoform.Model
	confirmView confirm.Model
	profileView profile.Model
	avatarView  avatar.Model

	ready bool

	// errMsg and notice feed the one-line banner under the header.
	errMsg string
	notice string
}

// New creates the root model. The session must already be initialized.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewLogin,
		keys:        k,
		client:      d.Client,
		session:     d.Session,
		todos:       d.Todos,
		flow:        d.Upload,
		poller:      d.Poller,
		authForm:    authform.New(80, 24),
		taskList:    tasklist.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		todoForm:    todoform.New(80, 24),
		confirmView: confirm.New(k, 80, 24),
		profileView: profile.New(80, 24),
		avatarView:  avatar.New(k, 80, 24),
	}
}

// Init sets the window title and routes to the login form or the
// dashboard depending on the restored session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("todo-ui"),
		func() tea.Msg { return startedMsg{} },
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case startedMsg:
		if m.session.State() == session.StateAuthenticated {
			return m, m.enterDashboard()
		}
		return m, m.enterLogin()

	// Session

	case authform.LoginSubmitMsg:
		return m, m.login(msg.Email, msg.Password)

	case authform.RegisterSubmitMsg:
		if err := msg.Registration.Validate(); err != nil {
			m.errMsg = errs.Message(err)
			return m, m.authForm.Start()
		}
		return m, m.register(msg.Registration)

	case authform.CancelMsg:
		return m, m.quit()

	case authResultMsg:
		if msg.err != nil {
			m.notice = ""
			m.errMsg = errs.Message(msg.err)
			return m, m.authForm.Start()
		}
		m.errMsg = ""
		m.notice = "Welcome, " + msg.name
		return m, m.enterDashboard()

	case appsync.RefreshResultMsg:
		wait := m.waitForRefresh()
		switch {
		case msg.AuthError != nil:
			if m.session.State() == session.StateAuthenticated {
				return m, tea.Batch(wait, m.logout(msg.AuthError.Message))
			}
		case msg.Error != nil && !errors.Is(msg.Error, session.ErrAnonymous):
			log.Debug().Err(msg.Error).Msg("background profile refresh")
		}
		return m, wait

	// Todos

	case todosLoadedMsg:
		m.taskList.SetLoading(false)
		if msg.err != nil {
			return m, m.handleError(msg.err)
		}
		return m, m.refreshList()

	case todoform.TodoCreatedMsg:
		m.currentView = ViewList
		return m, m.createTodo(msg.Fields)

	case todoform.TodoUpdatedMsg:
		m.currentView = m.previousView
		return m, m.updateTodo(msg.ID, msg.Patch)

	case todoform.TodoFormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case todoResultMsg:
		if msg.err != nil {
			return m, m.handleError(msg.err)
		}
		m.errMsg = ""
		m.notice = msg.notice
		if m.detail.TodoID() == msg.todo.ID && msg.todo.ID != "" {
			m.detail.SetTodo(msg.todo)
		}
		return m, m.refreshList()

	case todoDeletedMsg:
		if msg.err != nil {
			return m, m.handleError(msg.err)
		}
		m.errMsg = ""
		m.notice = "Todo deleted"
		if m.detail.TodoID() == msg.id {
			m.detail.Clear()
		}
		return m, m.refreshList()

	case tasklist.FilterChangedMsg:
		return m, m.refreshList()

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		return m, m.todoAction(msg.Action, msg.TodoID)

	case confirm.AnsweredMsg:
		m.currentView = m.previousView
		if msg.Tag != confirmDeleteTag {
			return m, nil
		}
		if !msg.Yes {
			m.todos.CancelDelete()
			return m, nil
		}
		if m.currentView == ViewDetail {
			m.currentView = ViewList
		}
		return m, m.confirmDelete()

	// Profile

	case profile.SubmitMsg:
		m.currentView = ViewList
		if err := msg.Change.Validate(); err != nil {
			m.errMsg = errs.Message(err)
			return m, nil
		}
		return m, m.updateProfile(msg.Change)

	case profile.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case profileUpdatedMsg:
		if msg.err != nil {
			return m, m.handleError(msg.err)
		}
		m.errMsg = ""
		m.notice = "Profile updated successfully"
		return m, nil

	case avatar.PathSubmittedMsg:
		return m, m.selectAvatar(msg.Path)

	case avatarSelectedMsg:
		if msg.err != nil {
			m.errMsg = errs.Message(msg.err)
			return m, nil
		}
		m.errMsg = ""
		return m, m.avatarView.SetSnapshot(m.flow.Snapshot())

	case avatar.ConfirmMsg:
		snap := m.flow.Snapshot()
		snap.State = upload.StateUploading
		return m, tea.Batch(m.avatarView.SetSnapshot(snap), m.uploadAvatar())

	case avatar.RetryMsg:
		if err := m.flow.Retry(); err != nil {
			log.Warn().Err(err).Msg("retrying upload")
		}
		return m, m.avatarView.SetSnapshot(m.flow.Snapshot())

	case avatar.CancelMsg:
		if m.flow.State() != upload.StateIdle {
			if err := m.flow.Cancel(); err != nil {
				log.Warn().Err(err).Msg("cancelling upload")
			}
		}
		m.currentView = ViewList
		return m, nil

	case avatarUploadedMsg:
		snap := m.flow.Snapshot()
		if snap.State == upload.StateIdle {
			m.currentView = ViewList
			if msg.err != nil {
				return m, m.handleError(msg.err)
			}
			m.errMsg = ""
			m.notice = "Profile image updated"
			return m, nil
		}
		cmd := m.avatarView.SetSnapshot(snap)
		if errs.IsAuth(msg.err) {
			return m, tea.Batch(cmd, m.handleError(msg.err))
		}
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.currentView == ViewList {
			m.errMsg = ""
			m.notice = ""
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleKey processes the global and list-level keys. It reports false
// when the key belongs to the active sub-view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil, true

	case ViewDetail:
		if key.Matches(msg, m.keys.Help) {
			m.openHelp()
			return m, nil, true
		}
		return m, nil, false

	case ViewList:
	default:
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit(), true

	case key.Matches(msg, m.keys.Help):
		m.openHelp()
		return m, nil, true

	case key.Matches(msg, m.keys.Refresh):
		if m.poller != nil {
			m.poller.Trigger()
		}
		m.taskList.SetLoading(true)
		return m, m.loadTodos(), true

	case key.Matches(msg, m.keys.New):
		m.previousView = ViewList
		m.currentView = ViewTodoCreate
		return m, m.todoForm.StartCreate(), true

	case key.Matches(msg, m.keys.Open):
		if t, ok := m.taskList.SelectedTodo(); ok {
			m.detail.SetTodo(t)
			m.currentView = ViewDetail
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Edit):
		t, ok := m.taskList.SelectedTodo()
		if !ok {
			return m, nil, true
		}
		return m, m.todoAction(detail.ActionEdit, t.ID), true

	case key.Matches(msg, m.keys.Complete):
		t, ok := m.taskList.SelectedTodo()
		if !ok {
			return m, nil, true
		}
		return m, m.todoAction(detail.ActionComplete, t.ID), true

	case key.Matches(msg, m.keys.Delete):
		t, ok := m.taskList.SelectedTodo()
		if !ok {
			return m, nil, true
		}
		return m, m.todoAction(detail.ActionDelete, t.ID), true

	case key.Matches(msg, m.keys.Profile):
		sess, ok := m.session.Current()
		if !ok {
			return m, nil, true
		}
		m.currentView = ViewProfile
		return m, m.profileView.Start(sess), true

	case key.Matches(msg, m.keys.Avatar):
		m.currentView = ViewAvatar
		return m, m.avatarView.Start(), true

	case key.Matches(msg, m.keys.Logout):
		cmd := m.logout("")
		m.notice = "Logged out"
		return m, cmd, true
	}

	return m, nil, false
}

// todoAction starts an edit, completion or delete of the todo with id.
func (m *Model) todoAction(action, id string) tea.Cmd {
	t, ok := m.todos.Get(id)
	if !ok {
		return nil
	}

	switch action {
	case detail.ActionEdit:
		m.previousView = m.currentView
		m.currentView = ViewTodoEdit
		return m.todoForm.StartEdit(t)

	case detail.ActionComplete:
		if t.IsCompleted() {
			m.notice = "Already completed"
			return nil
		}
		return m.completeTodo(id)

	case detail.ActionDelete:
		if err := m.todos.RequestDelete(id); err != nil {
			m.errMsg = errs.Message(err)
			return nil
		}
		m.confirmView.Ask(confirmDeleteTag, "Delete todo?", t.Title+"\n\nThis cannot be undone.")
		m.previousView = m.currentView
		m.currentView = ViewConfirmDelete
		return nil
	}
	return nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.authForm, cmd = m.authForm.Update(msg)
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewTodoCreate, ViewTodoEdit:
		m.todoForm, cmd = m.todoForm.Update(msg)
	case ViewConfirmDelete:
		m.confirmView, cmd = m.confirmView.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case ViewAvatar:
		m.avatarView, cmd = m.avatarView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("todo-ui", m.accountLabel())
	banner := m.layout.RenderBanner(m.errMsg, m.notice)
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, banner, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.authForm.View()
	case ViewList:
		return lipgloss.JoinVertical(lipgloss.Left,
			stats.Render(m.todos.Statistics(), m.layout.ContentWidth()),
			m.taskList.View(),
		)
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewTodoCreate, ViewTodoEdit:
		return m.todoForm.View()
	case ViewConfirmDelete:
		return m.confirmView.View()
	case ViewProfile:
		return m.profileView.View()
	case ViewAvatar:
		return m.avatarView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter next | esc quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | e edit | x complete | d delete | j/k scroll"
	case ViewTodoCreate, ViewTodoEdit, ViewProfile:
		return "enter submit | esc cancel"
	case ViewConfirmDelete:
		return "y delete | n cancel"
	case ViewAvatar:
		return "esc cancel"
	default:
		return "q quit | ? help | n new | e edit | x complete | d delete | 1/2/3 filter | p profile"
	}
}

func (m *Model) resize() {
	w := m.layout.ContentWidth()
	h := m.layout.ContentHeight()
	m.authForm.SetSize(w, h)
	m.taskList.SetSize(w, max(h-stats.Height(w), 0))
	m.detail.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.todoForm.SetSize(w, h)
	m.confirmView.SetSize(w, h)
	m.profileView.SetSize(w, h)
	m.avatarView.SetSize(w, h)
}

func (m *Model) openHelp() {
	m.helpView.SetContext(m.accountLabel(), m.taskList.Filter(), m.todos.Statistics())
	m.previousView = m.currentView
	m.currentView = ViewHelp
}

// enterLogin shows the auth form.
func (m *Model) enterLogin() tea.Cmd {
	m.currentView = ViewLogin
	return m.authForm.Start()
}

// enterDashboard shows the todo list and starts loading it.
func (m *Model) enterDashboard() tea.Cmd {
	m.currentView = ViewList
	m.taskList.SetLoading(true)

	cmds := []tea.Cmd{m.loadTodos()}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
		m.poller.Trigger()
	}
	return tea.Batch(cmds...)
}

// logout clears the session and the local collection and returns to the
// login form, showing reason in the banner when given.
func (m *Model) logout(reason string) tea.Cmd {
	m.session.Logout()
	m.todos.Reset()
	if m.flow.State() != upload.StateIdle {
		_ = m.flow.Cancel()
	}
	m.detail.Clear()
	m.notice = ""
	m.errMsg = reason
	return tea.Batch(m.taskList.SetTodos(nil), m.enterLogin())
}

// handleError shows err in the banner. An AuthError outside the login
// form ends the session.
func (m *Model) handleError(err error) tea.Cmd {
	if errors.Is(err, todos.ErrReset) || errors.Is(err, todos.ErrClosed) || errors.Is(err, upload.ErrClosed) {
		return nil
	}
	log.Warn().Err(err).Msg("dashboard operation failed")

	m.notice = ""
	m.errMsg = errs.Message(err)
	if errs.IsAuth(err) && m.currentView != ViewLogin {
		return m.logout(m.errMsg)
	}
	return nil
}

// refreshList copies the current filter's view into the list.
func (m *Model) refreshList() tea.Cmd {
	return m.taskList.SetTodos(m.todos.FilteredView(m.taskList.Filter()))
}

func (m *Model) waitForRefresh() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	return m.poller.WaitForNextResult()
}

func (m *Model) quit() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
	}
	return tea.Quit
}
