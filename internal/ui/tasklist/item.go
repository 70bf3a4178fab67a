package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/theme"
)

// maxTags is the number of tag badges shown before eliding the rest.
const maxTags = 3

// TodoItem wraps a model.Todo so it can be used in a bubbles/list.
type TodoItem struct {
	Todo model.Todo
}

// FilterValue returns the string used for fuzzy filtering.
func (i TodoItem) FilterValue() string { return i.Todo.Title }

// Title returns the todo title for the list.
func (i TodoItem) Title() string { return i.Todo.Title }

// Description returns the todo's description line.
func (i TodoItem) Description() string { return i.Todo.Description }

// ItemDelegate implements list.ItemDelegate for rendering todos.
type ItemDelegate struct {
	// now is the reference time for overdue and relative deadlines.
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a todo as a title line and a detail line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TodoItem)
	if !ok {
		return
	}

	now := time.Now()
	if d.now != nil {
		now = d.now()
	}

	fmt.Fprint(w, RenderTodo(ti.Todo, index == m.Index(), m.Width(), now))
}

// RenderTodo renders a todo the way the list shows it. It is exported so
// the CLI prints todos with the same layout.
func RenderTodo(t model.Todo, selected bool, width int, now time.Time) string {
	title := t.Title
	if t.IsCompleted() {
		title = theme.CompletedStyle.Render(title)
	}
	head := fmt.Sprintf("%s %s%s", theme.StatusMark(t.IsCompleted()), title, tagBadges(t.Tags))

	var details []string
	if dl := deadlineLabel(t, now); dl != "" {
		details = append(details, dl)
	}
	if t.Description != "" {
		details = append(details, theme.DimmedStyle.Render(firstLine(t.Description, width-20)))
	}
	if t.IsCompleted() && !t.CompletedAt.IsZero() {
		details = append(details, theme.DimmedStyle.Render("done "+humanize.Time(*t.CompletedAt)))
	}
	sub := "  " + strings.Join(details, theme.DimmedStyle.Render(" · "))

	line := head + "\n" + sub
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// deadlineLabel renders the deadline with a relative hint, flagging it
// when overdue.
func deadlineLabel(t model.Todo, now time.Time) string {
	if t.Deadline.IsZero() {
		return ""
	}
	label := t.DeadlineString()
	if t.IsOverdue(now) {
		return theme.OverdueStyle.Render(label + " overdue")
	}
	if t.IsCompleted() {
		return theme.DimmedStyle.Render(label)
	}
	return theme.DeadlineStyle.Render(label + " (" + dueHint(t.Deadline, now) + ")")
}

// dueHint describes the deadline relative to today.
func dueHint(deadline, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch days := int(deadline.Sub(today).Hours() / 24); days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return humanize.RelTime(deadline, today, "ago", "from now")
	}
}

func tagBadges(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	shown := tags
	more := ""
	if len(shown) > maxTags {
		shown = shown[:maxTags]
		more = theme.DimmedStyle.Render(fmt.Sprintf(" +%d", len(tags)-maxTags))
	}
	var b strings.Builder
	for _, tag := range shown {
		b.WriteString(" ")
		b.WriteString(theme.TagStyle.Render("#" + tag))
	}
	return b.String() + more
}

func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if max < 10 {
		max = 10
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
