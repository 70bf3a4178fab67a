package model

import (
	"math"
	"strings"
	"time"

	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
)

// DateLayout is the wire and display format of a todo deadline.
const DateLayout = "2006-01-02"

// Todo is a task item owned by the signed-in user. The ID is assigned
// by the server and never fabricated locally.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    time.Time  `json:"deadline"`
	Tags        []string   `json:"tags"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsCompleted reports whether the todo carries a completion timestamp.
func (t Todo) IsCompleted() bool {
	return t.CompletedAt != nil
}

// IsOverdue reports whether the deadline day has passed and the todo is
// still open. A todo with no deadline is never overdue.
func (t Todo) IsOverdue(now time.Time) bool {
	if t.Deadline.IsZero() || t.IsCompleted() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return t.Deadline.Before(today)
}

// DeadlineString returns the deadline as YYYY-MM-DD, or "" when unset.
func (t Todo) DeadlineString() string {
	if t.Deadline.IsZero() {
		return ""
	}
	return t.Deadline.Format(DateLayout)
}

// Clone returns a deep copy so callers can't alias collection state.
func (t Todo) Clone() Todo {
	c := t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return c
}

// TodoFields is the input for creating a todo.
type TodoFields struct {
	Title       string
	Description string
	Deadline    time.Time
	Tags        []string
}

// Validate checks the required fields and normalizes tags in place.
func (f *TodoFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" ||
		strings.TrimSpace(f.Description) == "" ||
		f.Deadline.IsZero() {
		return errs.Validation("All fields are required")
	}
	f.Tags = NormalizeTags(f.Tags)
	return nil
}

// TodoPatch is a partial update. Nil fields are left unchanged; a non-nil
// Tags slice (even empty) replaces the tag set.
type TodoPatch struct {
	Title       *string
	Description *string
	Deadline    *time.Time
	Tags        []string
}

// IsEmpty reports whether the patch changes nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Deadline == nil && p.Tags == nil
}

// Validate rejects patches that would blank a required field.
func (p *TodoPatch) Validate() error {
	if p.IsEmpty() {
		return errs.Validation("Nothing to update")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return errs.Validation("Title is required")
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return errs.Validation("Description is required")
	}
	if p.Deadline != nil && p.Deadline.IsZero() {
		return errs.Validation("Deadline is required")
	}
	if p.Tags != nil {
		p.Tags = NormalizeTags(p.Tags)
	}
	return nil
}

// Apply returns t with the patch's fields applied.
func (p TodoPatch) Apply(t Todo) Todo {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Deadline != nil {
		out.Deadline = *p.Deadline
	}
	if p.Tags != nil {
		out.Tags = append([]string{}, p.Tags...)
	}
	return out
}

// NormalizeTags trims tags, drops blanks and removes duplicates while
// keeping first-seen order. It never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// ParseDate parses a YYYY-MM-DD deadline.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errs.Validation("invalid date %q, use YYYY-MM-DD", s)
	}
	return d, nil
}

// Filter selects a view over the collection.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the views in tab order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter maps a user-supplied name onto a Filter.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterCompleted:
		return FilterCompleted, nil
	}
	return "", errs.Validation("unknown filter %q (use all, active or completed)", s)
}

// Matches reports whether t belongs to the view.
func (f Filter) Matches(t Todo) bool {
	switch f {
	case FilterActive:
		return !t.IsCompleted()
	case FilterCompleted:
		return t.IsCompleted()
	default:
		return true
	}
}

// EmptyMessage is the hint shown when the view has no items.
func (f Filter) EmptyMessage() string {
	switch f {
	case FilterActive:
		return "No active tasks. Great job!"
	case FilterCompleted:
		return "No completed tasks yet."
	default:
		return "No tasks yet. Create one to get started!"
	}
}

// Stats aggregates a todo collection.
type Stats struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completion_rate"`
}

// ComputeStats derives the aggregate for todos. CompletionRate is the
// rounded percentage of completed items, 0 for an empty collection.
func ComputeStats(todos []Todo) Stats {
	s := Stats{Total: len(todos)}
	for _, t := range todos {
		if t.IsCompleted() {
			s.Completed++
		}
	}
	s.Active = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}
