package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

// fakeBackend is an in-memory todo server.
type fakeBackend struct {
	mu       sync.Mutex
	name     string
	todos    []map[string]any
	nextID   int
	requests []string
	lastBody map[string]any

	// listStatus overrides the GET /todo response status.
	listStatus int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		name:   "Ada",
		nextID: 3,
		todos: []map[string]any{
			{"_id": "t1", "title": "Write report", "description": "Q3", "deadline": "2030-01-02", "tags": []string{"work"}, "completedAt": nil},
			{"_id": "t2", "title": "Buy milk", "description": "2L", "deadline": "2030-01-03", "completedAt": "2029-12-30T10:00:00Z"},
		},
	}
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	b.lastBody = nil
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &b.lastBody)
	}

	w.Header().Set("Content-Type", "application/json")
	send := func(status int, v any) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	user := func() map[string]any {
		return map[string]any{"_id": "u1", "name": b.name, "email": "ada@example.com"}
	}

	if !strings.HasPrefix(r.URL.Path, "/auth/log") && !strings.HasPrefix(r.URL.Path, "/auth/reg") &&
		r.Header.Get("Authorization") != "Bearer tok" {
		send(http.StatusUnauthorized, map[string]string{"message": "Missing token"})
		return
	}

	switch {
	case r.Method == http.MethodPost && (r.URL.Path == "/auth/login" || r.URL.Path == "/auth/register"):
		send(http.StatusOK, map[string]any{"user": user(), "token": "tok"})
	case r.Method == http.MethodGet && r.URL.Path == "/auth/profile":
		send(http.StatusOK, user())
	case r.Method == http.MethodPatch && r.URL.Path == "/auth/profile":
		if name, ok := b.lastBody["name"].(string); ok {
			b.name = name
		}
		send(http.StatusOK, user())
	case r.Method == http.MethodGet && r.URL.Path == "/todo":
		if b.listStatus != 0 {
			send(b.listStatus, map[string]string{"message": "Token expired"})
			return
		}
		send(http.StatusOK, b.todos)
	case r.Method == http.MethodPost && r.URL.Path == "/todo":
		todo := map[string]any{"_id": "t" + string(rune('0'+b.nextID)), "completedAt": nil}
		for k, v := range b.lastBody {
			todo[k] = v
		}
		b.nextID++
		b.todos = append(b.todos, todo)
		send(http.StatusCreated, map[string]any{"todo": todo})
	case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/complete"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/todo/"), "/complete")
		for _, t := range b.todos {
			if t["_id"] == id {
				t["completedAt"] = "2030-01-01T09:00:00Z"
				send(http.StatusOK, t)
				return
			}
		}
		send(http.StatusNotFound, map[string]string{"message": "Todo not found"})
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/todo/"):
		id := strings.TrimPrefix(r.URL.Path, "/todo/")
		for _, t := range b.todos {
			if t["_id"] == id {
				for k, v := range b.lastBody {
					t[k] = v
				}
				send(http.StatusOK, t)
				return
			}
		}
		send(http.StatusNotFound, map[string]string{"message": "Todo not found"})
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/todo/"):
		id := strings.TrimPrefix(r.URL.Path, "/todo/")
		for i, t := range b.todos {
			if t["_id"] == id {
				b.todos = append(b.todos[:i], b.todos[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		send(http.StatusNotFound, map[string]string{"message": "Todo not found"})
	default:
		send(http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (b *fakeBackend) count(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// setup writes a config pointing at a fake backend with SQLite session
// storage in a temp dir.
func setup(t *testing.T) (*fakeBackend, string) {
	t.Helper()
	b := newFakeBackend()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, model.SaveConfig(path, &model.AppConfig{
		API:     model.APIConfig{BaseURL: srv.URL, TimeoutSec: 5},
		Storage: model.StorageConfig{Backend: model.StorageSQLite, Path: filepath.Join(dir, "data", "session.db")},
		Log:     model.LogConfig{Level: "debug", File: filepath.Join(dir, "debug.log")},
	}))
	return b, path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, configPath, args...)
	require.NoError(t, err, "todo-ui %v\n%s", args, out)
	return out
}

func login(t *testing.T, configPath string) {
	t.Helper()
	out := mustRun(t, configPath, "login", "--email", "ada@example.com", "--password", "pw")
	require.Contains(t, out, "Welcome, Ada")
}

func TestLoginPersistsSessionAcrossRuns(t *testing.T) {
	_, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "whoami", "--json")
	var user model.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestWhoamiWithoutSession(t *testing.T) {
	_, cfg := setup(t)

	_, err := runCLI(t, cfg, "whoami")
	require.Error(t, err)
	assert.Equal(t, "You are not logged in. Please log in to continue.", err.Error())
}

func TestRegisterRejectsMismatchedPasswordsLocally(t *testing.T) {
	b, cfg := setup(t)

	_, err := runCLI(t, cfg, "register",
		"--name", "Ada", "--email", "ada@example.com", "--password", "a", "--confirm", "b")
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match", err.Error())
	assert.Zero(t, b.count("POST /auth/register"))
}

func TestTodoListShowsItemsAndStats(t *testing.T) {
	_, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "todo", "list")
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "id: t1")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "2 total · 1 active · 1 completed · 50% done")
}

func TestTodoListFilterJSON(t *testing.T) {
	_, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "todo", "list", "--filter", "completed", "--json")
	var items []model.Todo
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "t2", items[0].ID)
	assert.True(t, items[0].IsCompleted())
}

func TestTodoListRejectsUnknownFilter(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	_, err := runCLI(t, cfg, "todo", "list", "--filter", "someday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown filter")
	assert.Zero(t, b.count("GET /todo"))
}

func TestTodoAddSendsNormalizedTags(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "todo", "add",
		"--title", "Plan trip", "--description", "Flights", "--deadline", "2030-02-01",
		"--tag", " travel ", "--tag", "travel", "--tag", "")
	assert.Contains(t, out, "Created Plan trip (t3)")

	b.mu.Lock()
	body := b.lastBody
	b.mu.Unlock()
	assert.Equal(t, "2030-02-01", body["deadline"])
	assert.Equal(t, []any{"travel"}, body["tags"])
}

func TestTodoAddInvalidDeadlineNeverCallsServer(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	_, err := runCLI(t, cfg, "todo", "add",
		"--title", "Plan trip", "--description", "Flights", "--deadline", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
	assert.Zero(t, b.count("POST /todo"))
}

func TestTodoEditOnlySendsChangedFields(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "todo", "edit", "t1", "--title", "Write Q3 report")
	assert.Contains(t, out, "Updated Write Q3 report")

	b.mu.Lock()
	body := b.lastBody
	b.mu.Unlock()
	assert.Equal(t, map[string]any{"title": "Write Q3 report"}, body)
}

func TestTodoEditUnknownID(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	_, err := runCLI(t, cfg, "todo", "edit", "nope", "--title", "x")
	require.Error(t, err)
	assert.Zero(t, b.count("PATCH /todo/nope"))
}

func TestTodoDoneThenAlreadyCompleted(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "todo", "done", "t1")
	assert.Contains(t, out, "Completed Write report")

	out = mustRun(t, cfg, "todo", "done", "t1")
	assert.Contains(t, out, "already completed")
	assert.Equal(t, 1, b.count("PATCH /todo/t1/complete"))
}

func TestTodoRmWithYes(t *testing.T) {
	_, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "todo", "rm", "t1", "--yes")
	assert.Contains(t, out, "Deleted Write report")

	out = mustRun(t, cfg, "todo", "list", "--json")
	var items []model.Todo
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "t2", items[0].ID)
}

func TestTodoStatsJSON(t *testing.T) {
	_, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "todo", "stats", "--json")
	var s model.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, model.Stats{Total: 2, Active: 1, Completed: 1, CompletionRate: 50}, s)
}

func TestAuthErrorForgetsSession(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	b.mu.Lock()
	b.listStatus = http.StatusUnauthorized
	b.mu.Unlock()

	_, err := runCLI(t, cfg, "todo", "list")
	require.Error(t, err)
	assert.Equal(t, "Token expired", err.Error())

	_, err = runCLI(t, cfg, "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestProfileUpdateRefreshesSession(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "profile", "update", "--name", "Ada Lovelace")
	assert.Contains(t, out, "Profile updated successfully")
	assert.Equal(t, 1, b.count("GET /auth/profile"))

	out = mustRun(t, cfg, "whoami", "--json")
	var user model.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "Ada Lovelace", user.Name)
}

func TestProfileUpdateRejectsMismatchedPasswords(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	_, err := runCLI(t, cfg, "profile", "update", "--password", "a", "--confirm-password", "b")
	require.Error(t, err)
	assert.Equal(t, "New passwords do not match", err.Error())
	assert.Zero(t, b.count("PATCH /auth/profile"))
}

func TestProfileAvatarUploadsMultipart(t *testing.T) {
	b, cfg := setup(t)
	login(t, cfg)

	img := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))

	out := mustRun(t, cfg, "profile", "avatar", img, "--yes")
	assert.Contains(t, out, "me.png")
	assert.Contains(t, out, "Profile image updated")
	assert.Equal(t, 1, b.count("PATCH /auth/profile"))
}

func TestLogout(t *testing.T) {
	_, cfg := setup(t)
	login(t, cfg)

	out := mustRun(t, cfg, "logout")
	assert.Contains(t, out, "Logged out")

	_, err := runCLI(t, cfg, "todo", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	_, cfg := setup(t)

	_, err := runCLI(t, cfg, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out := mustRun(t, cfg, "config", "init", "--force", "--api-url", "https://todo.example.com/api")
	assert.Contains(t, out, "Wrote")

	out = mustRun(t, cfg, "config", "show")
	assert.Contains(t, out, "base_url: https://todo.example.com/api")
	assert.Contains(t, out, "backend: sqlite")
}
