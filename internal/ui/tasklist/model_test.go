package tasklist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Levi-Ojukwu/todo-ui/internal/keys"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

var fixedNow = time.Date(2030, 1, 5, 12, 0, 0, 0, time.UTC)

func todo(id, title, deadline string, done bool) model.Todo {
	d, _ := time.Parse(model.DateLayout, deadline)
	t := model.Todo{ID: id, Title: title, Description: "desc " + id, Deadline: d, Tags: []string{}}
	if done {
		at := fixedNow.Add(-time.Hour)
		t.CompletedAt = &at
	}
	return t
}

func TestSetTodosKeepsCursorOnSameTodo(t *testing.T) {
	m := newWithClock(keys.DefaultKeyMap(), 80, 20, func() time.Time { return fixedNow })
	m.SetTodos([]model.Todo{todo("a", "A", "2030-01-10", false), todo("b", "B", "2030-01-10", false)})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	sel, ok := m.SelectedTodo()
	require.True(t, ok)
	require.Equal(t, "b", sel.ID)

	m.SetTodos([]model.Todo{todo("z", "Z", "2030-01-10", false), todo("a", "A", "2030-01-10", false), todo("b", "B", "2030-01-10", false)})
	sel, _ = m.SelectedTodo()
	assert.Equal(t, "b", sel.ID)
}

func TestFilterKeyEmitsChange(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	require.NotNil(t, cmd)
	assert.Equal(t, FilterChangedMsg{Filter: model.FilterActive}, cmd())
	assert.Equal(t, model.FilterActive, m.Filter())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	assert.Nil(t, cmd)
}

func TestEmptyViewShowsFilterHint(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	assert.Contains(t, m.View(), model.FilterAll.EmptyMessage())

	m.SetLoading(true)
	assert.Contains(t, m.View(), "Loading todos...")
}

func TestRenderTodoFlagsOverdue(t *testing.T) {
	out := RenderTodo(todo("a", "Pay rent", "2030-01-01", false), false, 80, fixedNow)
	assert.Contains(t, out, "Pay rent")
	assert.Contains(t, out, "overdue")

	out = RenderTodo(todo("b", "Call mom", "2030-01-06", false), false, 80, fixedNow)
	assert.Contains(t, out, "tomorrow")

	out = RenderTodo(todo("c", "Old", "2030-01-01", true), false, 80, fixedNow)
	assert.NotContains(t, out, "overdue")
}
