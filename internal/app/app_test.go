package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/session"
	appsync "github.com/Levi-Ojukwu/todo-ui/internal/sync"
	"github.com/Levi-Ojukwu/todo-ui/internal/todos"
	"github.com/Levi-Ojukwu/todo-ui/internal/upload"
)

const todoListBody = `[
	{"_id":"t1","title":"Write report","description":"Q3","deadline":"2030-01-02","tags":["work"],"completedAt":null},
	{"_id":"t2","title":"Buy milk","description":"2L","deadline":"2030-01-03","completedAt":"2029-12-30T10:00:00Z"}
]`

type backend struct {
	listStatus int
	listBody   string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		_, _ = w.Write([]byte(`{"user":{"_id":"u1","name":"Ada","email":"ada@example.com"},"token":"tok"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/todo":
		status := b.listStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(b.listBody))
	case r.Method == http.MethodDelete && r.URL.Path == "/todo/t1":
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}
}

func newTestModel(t *testing.T, b *backend) Model {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL)
	store := session.New(session.NewMemoryStorage(), client, srv.URL)
	store.Initialize()
	mgr := todos.NewManager(client, store)
	flow := upload.NewFlow(client, store, upload.TempPreviewer{Dir: t.TempDir()})
	t.Cleanup(flow.Close)

	m := New(Deps{Client: client, Session: store, Todos: mgr, Upload: flow})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return update(t, m, startedMsg{})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// updateCmd returns the command produced for msg alongside the model.
func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func signedIn(t *testing.T, b *backend) Model {
	t.Helper()
	m := newTestModel(t, b)
	m = update(t, m, m.login("ada@example.com", "pw")())
	require.Equal(t, ViewList, m.currentView)
	return update(t, m, m.loadTodos()())
}

func TestStartsAtLoginWithoutSession(t *testing.T) {
	m := newTestModel(t, &backend{listBody: `[]`})
	assert.Equal(t, ViewLogin, m.currentView)
	assert.Equal(t, "not signed in", m.accountLabel())
}

func TestLoginEntersDashboard(t *testing.T) {
	m := newTestModel(t, &backend{listBody: todoListBody})

	m = update(t, m, m.login("ada@example.com", "pw")())
	assert.Equal(t, ViewList, m.currentView)
	assert.Equal(t, "Welcome, Ada", m.notice)
	assert.Equal(t, session.StateAuthenticated, m.session.State())
	assert.Contains(t, m.accountLabel(), "Ada")

	m = update(t, m, m.loadTodos()())
	assert.Len(t, m.todos.Items(), 2)
	selected, ok := m.taskList.SelectedTodo()
	require.True(t, ok)
	assert.Equal(t, "t1", selected.ID)
}

func TestAuthErrorWhileLoadingLogsOut(t *testing.T) {
	b := &backend{listBody: todoListBody}
	m := signedIn(t, b)

	b.listStatus = http.StatusUnauthorized
	b.listBody = `{"message":"Token expired"}`
	m = update(t, m, m.loadTodos()())

	assert.Equal(t, ViewLogin, m.currentView)
	assert.Equal(t, "Token expired", m.errMsg)
	assert.Equal(t, session.StateAnonymous, m.session.State())
	assert.Empty(t, m.todos.Items())
}

func TestLoadFailureKeepsListAndShowsBanner(t *testing.T) {
	b := &backend{listBody: todoListBody}
	m := signedIn(t, b)

	b.listBody = `<html>oops</html>`
	m = update(t, m, m.loadTodos()())

	assert.Equal(t, ViewList, m.currentView)
	assert.Equal(t, "Invalid JSON returned from server", m.errMsg)
	assert.Len(t, m.todos.Items(), 2)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m := signedIn(t, &backend{listBody: todoListBody})

	m = update(t, m, keyPress("d"))
	assert.Equal(t, ViewConfirmDelete, m.currentView)
	id, pending := m.todos.PendingDelete()
	require.True(t, pending)
	assert.Equal(t, "t1", id)

	m, cmd := updateCmd(t, m, keyPress("y"))
	require.NotNil(t, cmd)
	m, cmd = updateCmd(t, m, cmd())
	assert.Equal(t, ViewList, m.currentView)
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	assert.Equal(t, "Todo deleted", m.notice)
	_, ok := m.todos.Get("t1")
	assert.False(t, ok)
	assert.Len(t, m.todos.Items(), 1)
}

func TestDeclinedDeleteKeepsTodo(t *testing.T) {
	m := signedIn(t, &backend{listBody: todoListBody})

	m = update(t, m, keyPress("d"))
	m, cmd := updateCmd(t, m, keyPress("n"))
	require.NotNil(t, cmd)
	m = update(t, m, cmd())

	assert.Equal(t, ViewList, m.currentView)
	_, pending := m.todos.PendingDelete()
	assert.False(t, pending)
	assert.Len(t, m.todos.Items(), 2)
}

func TestFilterTabsSwitchView(t *testing.T) {
	m := signedIn(t, &backend{listBody: todoListBody})

	m, cmd := updateCmd(t, m, keyPress("3"))
	require.NotNil(t, cmd)
	m = update(t, m, cmd())

	selected, ok := m.taskList.SelectedTodo()
	require.True(t, ok)
	assert.Equal(t, "t2", selected.ID)
}

func TestBackgroundRefreshAuthErrorLogsOut(t *testing.T) {
	m := signedIn(t, &backend{listBody: todoListBody})

	m = update(t, m, appsync.RefreshResultMsg{
		AuthError: &appsync.AuthErrorMsg{Message: "Your session has expired. Please log in again."},
	})

	assert.Equal(t, ViewLogin, m.currentView)
	assert.Equal(t, session.StateAnonymous, m.session.State())
	assert.Equal(t, "Your session has expired. Please log in again.", m.errMsg)
}

func TestLogoutKey(t *testing.T) {
	m := signedIn(t, &backend{listBody: todoListBody})

	m = update(t, m, keyPress("L"))
	assert.Equal(t, ViewLogin, m.currentView)
	assert.Equal(t, "Logged out", m.notice)
	assert.Equal(t, session.StateAnonymous, m.session.State())
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/tmp/x.png", expandHome("/tmp/x.png"))
	assert.NotContains(t, expandHome("~/x.png"), "~")
}
