package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

// todosLoadedMsg is sent after the collection has been (re)loaded.
type todosLoadedMsg struct{ err error }

// todoResultMsg is sent after a create, update or completion.
type todoResultMsg struct {
	todo   model.Todo
	notice string
	err    error
}

// todoDeletedMsg is sent after a confirmed delete.
type todoDeletedMsg struct {
	id  string
	err error
}

// loadTodos fetches the collection from the backend.
func (m *Model) loadTodos() tea.Cmd {
	mgr := m.todos
	return func() tea.Msg {
		return todosLoadedMsg{err: mgr.Load(context.Background())}
	}
}

// createTodo creates a todo from the submitted form.
func (m *Model) createTodo(fields model.TodoFields) tea.Cmd {
	mgr := m.todos
	return func() tea.Msg {
		todo, err := mgr.Create(context.Background(), fields)
		return todoResultMsg{todo: todo, notice: "Todo created", err: err}
	}
}

// updateTodo applies an edit.
func (m *Model) updateTodo(id string, patch model.TodoPatch) tea.Cmd {
	mgr := m.todos
	return func() tea.Msg {
		todo, err := mgr.Update(context.Background(), id, patch)
		return todoResultMsg{todo: todo, notice: "Todo updated", err: err}
	}
}

// completeTodo marks a todo completed.
func (m *Model) completeTodo(id string) tea.Cmd {
	mgr := m.todos
	return func() tea.Msg {
		todo, err := mgr.ToggleComplete(context.Background(), id)
		return todoResultMsg{todo: todo, notice: "Todo completed", err: err}
	}
}

// confirmDelete deletes the todo awaiting confirmation.
func (m *Model) confirmDelete() tea.Cmd {
	mgr := m.todos
	id, _ := mgr.PendingDelete()
	return func() tea.Msg {
		return todoDeletedMsg{id: id, err: mgr.ConfirmDelete(context.Background())}
	}
}
