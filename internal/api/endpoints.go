package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

// Register creates an account via POST /auth/register.
func (c *Client) Register(
	ctx context.Context,
	name, email, password string,
) (*AuthResponse, error) {
	body, err := jsonBody(map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	err = c.do(ctx, request{
		op:           "register",
		method:       http.MethodPost,
		path:         "/auth/register",
		body:         body,
		contentType:  "application/json",
		fallback:     "Registration failed",
		clientErrors: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token via POST /auth/login.
func (c *Client) Login(
	ctx context.Context,
	email, password string,
) (*AuthResponse, error) {
	body, err := jsonBody(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	err = c.do(ctx, request{
		op:           "login",
		method:       http.MethodPost,
		path:         "/auth/login",
		body:         body,
		contentType:  "application/json",
		fallback:     "Login failed",
		clientErrors: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &errs.MalformedResponseError{
			Op:         "login",
			StatusCode: http.StatusOK,
			Err:        errors.New("response carries no token"),
		}
	}
	return &out, nil
}

// FetchProfile returns the signed-in user's profile via GET /auth/profile.
func (c *Client) FetchProfile(ctx context.Context, token string) (*ProfileDTO, error) {
	var out ProfileDTO
	err := c.do(ctx, request{
		op:       "fetch profile",
		method:   http.MethodGet,
		path:     "/auth/profile",
		token:    token,
		fallback: "Failed to load profile",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes name, password and/or avatar via PATCH
// /auth/profile. The backend only accepts image bytes in a multipart
// body, so an Image switches the encoding; otherwise JSON is sent.
func (c *Client) UpdateProfile(
	ctx context.Context,
	token string,
	upd ProfileUpdate,
) (*ProfileDTO, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)
	if upd.Image != nil {
		body, contentType, err = multipartProfileBody(upd)
	} else {
		fields := map[string]string{}
		if upd.Name != "" {
			fields["name"] = upd.Name
		}
		if upd.Password != "" {
			fields["password"] = upd.Password
		}
		body, err = jsonBody(fields)
		contentType = "application/json"
	}
	if err != nil {
		return nil, err
	}

	var out ProfileDTO
	err = c.do(ctx, request{
		op:          "update profile",
		method:      http.MethodPatch,
		path:        "/auth/profile",
		token:       token,
		body:        body,
		contentType: contentType,
		fallback:    "Failed to update profile",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// multipartProfileBody encodes the profile update as multipart/form-data.
func multipartProfileBody(upd ProfileUpdate) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if upd.Name != "" {
		if err := w.WriteField("name", upd.Name); err != nil {
			return nil, "", fmt.Errorf("writing name field: %w", err)
		}
	}
	if upd.Password != "" {
		if err := w.WriteField("password", upd.Password); err != nil {
			return nil, "", fmt.Errorf("writing password field: %w", err)
		}
	}

	contentType := upd.Image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name="image"; filename=%q`, upd.Image.Name,
	))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating image part: %w", err)
	}
	if _, err := part.Write(upd.Image.Data); err != nil {
		return nil, "", fmt.Errorf("writing image part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// ListTodos returns every todo of the signed-in user via GET /todo.
// The body is read as text and parsed before the status is inspected:
// the backend has returned HTML error pages on failure paths, and those
// surface as MalformedResponseError.
func (c *Client) ListTodos(ctx context.Context, token string) ([]TodoDTO, error) {
	r := request{
		op:       "list todos",
		method:   http.MethodGet,
		path:     "/todo",
		token:    token,
		fallback: "Failed to fetch todos",
	}

	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := json.Unmarshal(resp.body, &raw); err != nil {
		return nil, &errs.MalformedResponseError{
			Op:         r.op,
			StatusCode: resp.status,
			Body:       truncate(string(resp.body), 512),
			Err:        err,
		}
	}

	if err := statusError(r, resp); err != nil {
		return nil, err
	}

	var todos []TodoDTO
	if err := json.Unmarshal(raw, &todos); err != nil {
		return nil, &errs.MalformedResponseError{
			Op:         r.op,
			StatusCode: resp.status,
			Body:       truncate(string(resp.body), 512),
			Err:        err,
		}
	}
	return todos, nil
}

// CreateTodo creates a todo via POST /todo. The response is {todo: {...}}.
func (c *Client) CreateTodo(
	ctx context.Context,
	token string,
	fields model.TodoFields,
) (*TodoDTO, error) {
	tags := fields.Tags
	if tags == nil {
		tags = []string{}
	}
	body, err := jsonBody(todoRequest{
		Title:       fields.Title,
		Description: fields.Description,
		Deadline:    fields.Deadline.Format(model.DateLayout),
		Tags:        tags,
	})
	if err != nil {
		return nil, err
	}

	return c.doTodo(ctx, request{
		op:          "create todo",
		method:      http.MethodPost,
		path:        "/todo",
		token:       token,
		body:        body,
		contentType: "application/json",
		fallback:    "Failed to save todo",
	})
}

// UpdateTodo applies a partial update via PATCH /todo/:id.
func (c *Client) UpdateTodo(
	ctx context.Context,
	token string,
	id string,
	patch model.TodoPatch,
) (*TodoDTO, error) {
	body, err := jsonBody(newTodoPatchRequest(patch))
	if err != nil {
		return nil, err
	}

	return c.doTodo(ctx, request{
		op:          "update todo",
		method:      http.MethodPatch,
		path:        "/todo/" + url.PathEscape(id),
		token:       token,
		body:        body,
		contentType: "application/json",
		fallback:    "Failed to save todo",
	})
}

// CompleteTodo marks a todo completed via PATCH /todo/:id/complete.
func (c *Client) CompleteTodo(ctx context.Context, token, id string) (*TodoDTO, error) {
	return c.doTodo(ctx, request{
		op:       "complete todo",
		method:   http.MethodPatch,
		path:     "/todo/" + url.PathEscape(id) + "/complete",
		token:    token,
		fallback: "Failed to update todo",
	})
}

// DeleteTodo removes a todo via DELETE /todo/:id. Any 2xx body is ignored.
func (c *Client) DeleteTodo(ctx context.Context, token, id string) error {
	return c.do(ctx, request{
		op:       "delete todo",
		method:   http.MethodDelete,
		path:     "/todo/" + url.PathEscape(id),
		token:    token,
		fallback: "Failed to delete todo",
	}, nil)
}

// doTodo runs a request whose success body is a todo, bare or wrapped.
// An empty success body yields an empty DTO rather than an error.
func (c *Client) doTodo(ctx context.Context, r request) (*TodoDTO, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := statusError(r, resp); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return &TodoDTO{}, nil
	}

	var env todoEnvelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return nil, &errs.MalformedResponseError{
			Op:         r.op,
			StatusCode: resp.status,
			Body:       truncate(string(resp.body), 512),
			Err:        err,
		}
	}
	dto := env.dto()
	return &dto, nil
}
