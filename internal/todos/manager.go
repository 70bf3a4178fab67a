// Package todos keeps the signed-in user's todo collection in sync with
// the backend. Every mutation is applied locally only after the server
// confirms it.
package todos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

// ErrClosed is returned for operations whose result arrived after Close.
var ErrClosed = errors.New("todo collection closed")

// ErrReset is returned for operations whose result arrived after Reset.
var ErrReset = errors.New("todo collection reset")

// Backend is the subset of the API client the manager needs.
type Backend interface {
	ListTodos(ctx context.Context, token string) ([]api.TodoDTO, error)
	CreateTodo(ctx context.Context, token string, fields model.TodoFields) (*api.TodoDTO, error)
	UpdateTodo(ctx context.Context, token, id string, patch model.TodoPatch) (*api.TodoDTO, error)
	CompleteTodo(ctx context.Context, token, id string) (*api.TodoDTO, error)
	DeleteTodo(ctx context.Context, token, id string) error
}

// Credentials supplies the bearer token for each call.
type Credentials interface {
	Credential() (string, bool)
}

// Manager is the local todo collection. The lock is never held across a
// network call; concurrent mutations of the same todo are applied in the
// order their responses arrive.
type Manager struct {
	backend Backend
	creds   Credentials
	now     func() time.Time

	mu      sync.RWMutex
	items   []model.Todo
	loaded  bool
	loading bool
	pending string
	closed  bool

	// generation changes on Reset so in-flight results from a
	// previous session are dropped.
	generation uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for local completion stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager returns an empty collection.
func NewManager(backend Backend, creds Credentials, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		creds:   creds,
		now:     time.Now,
		items:   []model.Todo{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) token() (string, error) {
	token, ok := m.creds.Credential()
	if !ok {
		return "", errs.NotLoggedIn()
	}
	return token, nil
}

// Load fetches every todo and replaces the collection. On failure the
// previous collection is kept.
func (m *Manager) Load(ctx context.Context) error {
	token, err := m.token()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.loading = true
	gen := m.generation
	m.mu.Unlock()

	dtos, err := m.backend.ListTodos(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false

	if m.closed {
		return ErrClosed
	}
	if m.generation != gen {
		return ErrReset
	}
	if err != nil {
		log.Warn().Err(err).Msg("loading todos")
		return err
	}

	m.items = api.ToTodos(dtos)
	m.loaded = true
	log.Debug().Int("count", len(m.items)).Msg("todos loaded")
	return nil
}

// Create validates fields, creates the todo on the server and appends
// the server's version.
func (m *Manager) Create(ctx context.Context, fields model.TodoFields) (model.Todo, error) {
	if err := fields.Validate(); err != nil {
		return model.Todo{}, err
	}
	token, err := m.token()
	if err != nil {
		return model.Todo{}, err
	}

	gen := m.currentGeneration()

	dto, err := m.backend.CreateTodo(ctx, token, fields)
	if err != nil {
		log.Warn().Err(err).Msg("creating todo")
		return model.Todo{}, err
	}

	todo := dto.ToTodo()
	if todo.ID == "" {
		return model.Todo{}, &errs.MalformedResponseError{
			Op:  "create todo",
			Err: errors.New("response carries no id"),
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return model.Todo{}, ErrClosed
	}
	if m.generation != gen {
		return model.Todo{}, ErrReset
	}
	// A reload that finished during the request may already hold it.
	if i := m.indexOf(todo.ID); i >= 0 {
		m.items[i] = todo
	} else {
		m.items = append(m.items, todo)
	}
	return todo.Clone(), nil
}

// Update sends patch to the server and, once accepted, applies the same
// patch to the local todo.
func (m *Manager) Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	if err := patch.Validate(); err != nil {
		return model.Todo{}, err
	}
	if _, ok := m.Get(id); !ok {
		return model.Todo{}, notFound(id)
	}
	token, err := m.token()
	if err != nil {
		return model.Todo{}, err
	}
	gen := m.currentGeneration()

	if _, err := m.backend.UpdateTodo(ctx, token, id, patch); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("updating todo")
		return model.Todo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return model.Todo{}, ErrClosed
	}
	if m.generation != gen {
		return model.Todo{}, ErrReset
	}
	i := m.indexOf(id)
	if i < 0 {
		// Removed by a reload while the request was in flight.
		return model.Todo{}, notFound(id)
	}
	m.items[i] = patch.Apply(m.items[i])
	return m.items[i].Clone(), nil
}

// ToggleComplete marks the todo completed. There is no way back to
// active; completing an already completed todo asks the server again.
func (m *Manager) ToggleComplete(ctx context.Context, id string) (model.Todo, error) {
	if _, ok := m.Get(id); !ok {
		return model.Todo{}, notFound(id)
	}
	token, err := m.token()
	if err != nil {
		return model.Todo{}, err
	}
	gen := m.currentGeneration()

	dto, err := m.backend.CompleteTodo(ctx, token, id)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("completing todo")
		return model.Todo{}, err
	}

	completedAt := m.now()
	if dto != nil {
		if at := dto.ToTodo().CompletedAt; at != nil && !at.IsZero() {
			completedAt = *at
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return model.Todo{}, ErrClosed
	}
	if m.generation != gen {
		return model.Todo{}, ErrReset
	}
	i := m.indexOf(id)
	if i < 0 {
		return model.Todo{}, notFound(id)
	}
	m.items[i].CompletedAt = &completedAt
	return m.items[i].Clone(), nil
}

// RequestDelete marks id as awaiting confirmation, replacing any earlier
// request.
func (m *Manager) RequestDelete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(id) < 0 {
		return notFound(id)
	}
	m.pending = id
	return nil
}

// PendingDelete returns the todo awaiting delete confirmation.
func (m *Manager) PendingDelete() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending, m.pending != ""
}

// CancelDelete clears the pending delete without touching the server.
func (m *Manager) CancelDelete() {
	m.mu.Lock()
	m.pending = ""
	m.mu.Unlock()
}

// ConfirmDelete deletes the pending todo on the server and removes it
// locally on success. The pending state is cleared either way.
func (m *Manager) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	id := m.pending
	m.pending = ""
	gen := m.generation
	m.mu.Unlock()

	if id == "" {
		return errs.Validation("No todo selected for deletion")
	}
	token, err := m.token()
	if err != nil {
		return err
	}

	if err := m.backend.DeleteTodo(ctx, token, id); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("deleting todo")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.generation != gen {
		return ErrReset
	}
	if i := m.indexOf(id); i >= 0 {
		m.items = append(m.items[:i], m.items[i+1:]...)
	}
	return nil
}

// Items returns a copy of the collection in server order.
func (m *Manager) Items() []model.Todo {
	return m.FilteredView(model.FilterAll)
}

// FilteredView returns the todos matching f, in collection order.
func (m *Manager) FilteredView(f model.Filter) []model.Todo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Todo, 0, len(m.items))
	for _, t := range m.items {
		if f.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Statistics summarizes the whole collection.
func (m *Manager) Statistics() model.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.ComputeStats(m.items)
}

// Get returns the todo with the given id.
func (m *Manager) Get(id string) (model.Todo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(id); i >= 0 {
		return m.items[i].Clone(), true
	}
	return model.Todo{}, false
}

// Loading reports whether a Load is in flight.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Loaded reports whether a Load has succeeded at least once.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Reset empties the collection, typically on logout. Loads and creates
// still in flight are discarded when they complete.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.items = []model.Todo{}
	m.loaded = false
	m.pending = ""
	m.generation++
	m.mu.Unlock()
}

// Close detaches the manager. Results of calls still in flight are
// discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.pending = ""
	m.mu.Unlock()
}

func (m *Manager) currentGeneration() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// indexOf must be called with mu held.
func (m *Manager) indexOf(id string) int {
	for i := range m.items {
		if m.items[i].ID == id {
			return i
		}
	}
	return -1
}

func notFound(id string) error {
	return errs.Validation("Todo %s not found", id)
}
