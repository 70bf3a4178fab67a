package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

// AuthResponse is the response from POST /auth/login and /auth/register.
type AuthResponse struct {
	User  ProfileDTO `json:"user"`
	Token string     `json:"token"`
}

// ProfileDTO is the wire shape of a user profile. The backend is not
// consistent about its id key or how it reports the avatar, so every
// variant is captured here and resolved by the session layer.
type ProfileDTO struct {
	ID           string `json:"id"`
	MongoID      string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ImageURL     string `json:"imageUrl,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// UserID returns the profile id, preferring "id" over "_id".
func (p ProfileDTO) UserID() string {
	if p.ID != "" {
		return p.ID
	}
	return p.MongoID
}

// TodoDTO is the wire shape of a todo as returned by /todo endpoints.
type TodoDTO struct {
	MongoID     string          `json:"_id"`
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Deadline    string          `json:"deadline"`
	Tags        []string        `json:"tags"`
	CompletedAt json.RawMessage `json:"completedAt"`
}

// ToTodo maps the DTO onto the local Todo shape. The mapping is total:
// missing tags become an empty set, an unparseable deadline becomes the
// zero date, and any non-null completedAt marks the todo completed.
func (d TodoDTO) ToTodo() model.Todo {
	id := d.MongoID
	if id == "" {
		id = d.ID
	}

	return model.Todo{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Deadline:    parseDeadline(d.Deadline),
		Tags:        model.NormalizeTags(d.Tags),
		CompletedAt: parseCompletedAt(d.CompletedAt),
	}
}

// ToTodos maps a list of DTOs, preserving server order.
func ToTodos(dtos []TodoDTO) []model.Todo {
	todos := make([]model.Todo, 0, len(dtos))
	for _, d := range dtos {
		todos = append(todos, d.ToTodo())
	}
	return todos
}

// parseDeadline accepts a bare date or an RFC 3339 timestamp and keeps
// only the calendar date.
func parseDeadline(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return d
}

// parseCompletedAt returns nil for an absent or null value. A present
// value that is not a timestamp still counts as completed and maps to
// the zero time.
func parseCompletedAt(raw json.RawMessage) *time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if at, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return &at
		}
	}

	zero := time.Time{}
	return &zero
}

// todoEnvelope matches both {"todo": {...}} and a bare todo object.
type todoEnvelope struct {
	Todo *TodoDTO `json:"todo"`
	TodoDTO
}

func (e todoEnvelope) dto() TodoDTO {
	if e.Todo != nil {
		return *e.Todo
	}
	return e.TodoDTO
}

// todoRequest is the JSON body for POST /todo.
type todoRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    string   `json:"deadline"`
	Tags        []string `json:"tags"`
}

// todoPatchRequest is the JSON body for PATCH /todo/:id.
type todoPatchRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Deadline    *string   `json:"deadline,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

func newTodoPatchRequest(p model.TodoPatch) todoPatchRequest {
	req := todoPatchRequest{
		Title:       p.Title,
		Description: p.Description,
	}
	if p.Deadline != nil {
		d := p.Deadline.Format(model.DateLayout)
		req.Deadline = &d
	}
	if p.Tags != nil {
		// A pointer keeps an explicit empty tag list in the body.
		tags := p.Tags
		req.Tags = &tags
	}
	return req
}

// ProfileUpdate is the input for PATCH /auth/profile. Empty fields are
// not sent; a non-nil Image switches the request to multipart.
type ProfileUpdate struct {
	Name     string
	Password string
	Image    *model.File
}

// errorResponse is the backend's error body.
type errorResponse struct {
	Message string `json:"message"`
}
