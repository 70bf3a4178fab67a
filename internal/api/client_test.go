package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL + "/api/")
}

func TestLoginSendsCredentialsAndDecodesSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		_, _ = io.WriteString(w, `{"token":"tok-1","user":{"_id":"u1","name":"Ada","email":"ada@example.com"}}`)
	})

	resp, err := c.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, "u1", resp.User.UserID())
	assert.Equal(t, "Ada", resp.User.Name)
}

func TestLoginErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		message string
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"message":"Invalid credentials"}`,
			check:   errs.IsAuth,
			message: "Invalid credentials",
		},
		{
			name:    "bad request",
			status:  http.StatusBadRequest,
			body:    `{"message":"Email is invalid"}`,
			check:   errs.IsValidation,
			message: "Email is invalid",
		},
		{
			name:   "server error without message",
			status: http.StatusInternalServerError,
			body:   `{}`,
			check: func(err error) bool {
				var se *errs.ServerError
				return errors.As(err, &se)
			},
			message: "Login failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Login(context.Background(), "a@b.c", "x")
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type %T", err)
			assert.Equal(t, tt.message, errs.Message(err))
		})
	}
}

func TestRegisterPostsName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body["name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"token":"t","user":{"id":"u1","name":"Ada","email":"a@b.c"}}`)
	})

	resp, err := c.Register(context.Background(), "Ada", "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.UserID())
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := api.NewClient(url, api.WithTimeout(time.Second))
	_, err := c.FetchProfile(context.Background(), "tok")
	require.Error(t, err)

	var ne *errs.NetworkError
	assert.True(t, errors.As(err, &ne))
}

func TestFetchProfileSendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":"u1","name":"Ada","email":"a@b.c","imageUrl":"https://cdn/x.png"}`)
	})

	p, err := c.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/x.png", p.ImageURL)
}

func TestFetchProfileExpired(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FetchProfile(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
	assert.Equal(t, "Your session has expired. Please log in again.", errs.Message(err))
}

func TestUpdateProfileJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "Grace"}, body)

		_, _ = io.WriteString(w, `{"id":"u1","name":"Grace","email":"a@b.c"}`)
	})

	p, err := c.UpdateProfile(context.Background(), "tok", api.ProfileUpdate{Name: "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", p.Name)
}

func TestUpdateProfileMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Grace", r.FormValue("name"))
		assert.Empty(t, r.FormValue("password"))

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "me.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		assert.Equal(t, []byte("png-bytes"), data)

		_, _ = io.WriteString(w, `{"id":"u1","name":"Grace","email":"a@b.c","profile_image":"uploads/me.png"}`)
	})

	p, err := c.UpdateProfile(context.Background(), "tok", api.ProfileUpdate{
		Name: "Grace",
		Image: &model.File{
			Name:        "me.png",
			ContentType: "image/png",
			Size:        9,
			Data:        []byte("png-bytes"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "uploads/me.png", p.ProfileImage)
}

func TestListTodos(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/todo", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"_id":"a","title":"One","description":"d","deadline":"2025-01-01T00:00:00.000Z","tags":["x"],"completedAt":null},
			{"_id":"b","title":"Two","description":"d","deadline":"2025-02-01","completedAt":"2025-01-15T10:00:00Z"}
		]`)
	})

	dtos, err := c.ListTodos(context.Background(), "tok")
	require.NoError(t, err)
	todos := api.ToTodos(dtos)
	require.Len(t, todos, 2)

	assert.Equal(t, "a", todos[0].ID)
	assert.False(t, todos[0].IsCompleted())
	assert.Equal(t, "2025-01-01", todos[0].DeadlineString())
	assert.Equal(t, []string{"x"}, todos[0].Tags)

	assert.True(t, todos[1].IsCompleted())
	assert.NotNil(t, todos[1].Tags)
	assert.Empty(t, todos[1].Tags)
}

func TestListTodosNonJSONIsMalformedRegardlessOfStatus(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusInternalServerError} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, "<html>Internal Server Error</html>")
		})

		_, err := c.ListTodos(context.Background(), "tok")
		require.Error(t, err)

		var me *errs.MalformedResponseError
		assert.True(t, errors.As(err, &me), "status %d: got %T", status, err)
		assert.Equal(t, "Invalid JSON returned from server", errs.Message(err))
	}
}

func TestListTodosServerErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.ListTodos(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch todos", errs.Message(err))
}

func TestCreateTodoUnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Buy milk", body["title"])
		assert.Equal(t, "2025-01-01", body["deadline"])
		assert.Equal(t, []interface{}{"errand"}, body["tags"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"todo":{"_id":"abc123","title":"Buy milk","description":"2%","deadline":"2025-01-01","tags":["errand"]}}`)
	})

	deadline, err := model.ParseDate("2025-01-01")
	require.NoError(t, err)

	dto, err := c.CreateTodo(context.Background(), "tok", model.TodoFields{
		Title:       "Buy milk",
		Description: "2%",
		Deadline:    deadline,
		Tags:        []string{"errand"},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", dto.ToTodo().ID)
}

func TestUpdateTodoSendsOnlyPatchedFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/todo/abc", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{
			"title": "New",
			"tags":  []interface{}{},
		}, body)

		_, _ = io.WriteString(w, `{"_id":"abc","title":"New","description":"d","deadline":"2025-01-01","tags":[]}`)
	})

	title := "New"
	dto, err := c.UpdateTodo(context.Background(), "tok", "abc", model.TodoPatch{
		Title: &title,
		Tags:  []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", dto.Title)
}

func TestCompleteTodo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/todo/abc/complete", r.URL.Path)
		_, _ = io.WriteString(w, `{"todo":{"_id":"abc","completedAt":"2025-01-02T03:04:05Z"}}`)
	})

	dto, err := c.CompleteTodo(context.Background(), "tok", "abc")
	require.NoError(t, err)
	todo := dto.ToTodo()
	require.NotNil(t, todo.CompletedAt)
	assert.Equal(t, 2025, todo.CompletedAt.Year())
}

func TestDeleteTodo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/todo/abc", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"message":"Todo deleted"}`)
	})

	require.NoError(t, c.DeleteTodo(context.Background(), "tok", "abc"))
}

func TestDeleteTodoNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Todo not found"}`)
	})

	err := c.DeleteTodo(context.Background(), "tok", "abc")
	require.Error(t, err)

	var se *errs.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "Todo not found", errs.Message(err))
}
