package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/todos"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/stats"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/tasklist"
)

// listWidth is the layout width of todos printed by the CLI.
const listWidth = 80

func newTodoCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Manage todos",
	}

	cmd.AddCommand(newTodoListCmd(a))
	cmd.AddCommand(newTodoAddCmd(a))
	cmd.AddCommand(newTodoEditCmd(a))
	cmd.AddCommand(newTodoDoneCmd(a))
	cmd.AddCommand(newTodoRmCmd(a))
	cmd.AddCommand(newTodoStatsCmd(a))

	return cmd
}

// withTodos loads the collection and hands it to fn.
func (a *App) withTodos(cmd *cobra.Command, fn func(ctx context.Context, mgr *todos.Manager) error) error {
	return a.run(cmd, func(ctx context.Context) error {
		mgr := todos.NewManager(a.client, a.session)
		defer mgr.Close()

		if err := mgr.Load(ctx); err != nil {
			return err
		}
		return fn(ctx, mgr)
	})
}

func newTodoListCmd(a *App) *cobra.Command {
	var filter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return &displayError{err: err}
			}
			return a.withTodos(cmd, func(_ context.Context, mgr *todos.Manager) error {
				items := mgr.FilteredView(f)
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, items)
				}
				printTodos(out, items, f, a.now())
				fmt.Fprintln(out)
				fmt.Fprintln(out, stats.Line(mgr.Statistics()))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Filter: all, active or completed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print todos as JSON")

	return cmd
}

func newTodoAddCmd(a *App) *cobra.Command {
	var title, description, deadline string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a todo",
		Example: strings.TrimSpace(`
  todo-ui todo add --title "Write report" --description "Q3 numbers" --deadline 2025-10-01 --tag work
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				if err := promptTodo(&title, &description, &deadline); err != nil {
					return err
				}
				fields := model.TodoFields{
					Title:       strings.TrimSpace(title),
					Description: strings.TrimSpace(description),
					Tags:        tags,
				}
				if strings.TrimSpace(deadline) != "" {
					d, err := model.ParseDate(deadline)
					if err != nil {
						return err
					}
					fields.Deadline = d
				}

				mgr := todos.NewManager(a.client, a.session)
				defer mgr.Close()

				todo, err := mgr.Create(ctx, fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", todo.Title, todo.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")

	return cmd
}

func newTodoEditCmd(a *App) *cobra.Command {
	var title, description, deadline string
	var tags []string
	var clearTags bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.TodoPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("deadline") {
				d, err := model.ParseDate(deadline)
				if err != nil {
					return &displayError{err: err}
				}
				patch.Deadline = &d
			}
			switch {
			case clearTags:
				patch.Tags = []string{}
			case flags.Changed("tag"):
				patch.Tags = tags
			}

			return a.withTodos(cmd, func(ctx context.Context, mgr *todos.Manager) error {
				todo, err := mgr.Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", todo.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "New deadline (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Replace tags (repeatable)")
	cmd.Flags().BoolVar(&clearTags, "clear-tags", false, "Remove every tag")

	return cmd
}

func newTodoDoneCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a todo completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTodos(cmd, func(ctx context.Context, mgr *todos.Manager) error {
				if t, ok := mgr.Get(args[0]); ok && t.IsCompleted() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already completed\n", t.Title)
					return nil
				}
				todo, err := mgr.ToggleComplete(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", todo.Title)
				return nil
			})
		},
	}
}

func newTodoRmCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTodos(cmd, func(ctx context.Context, mgr *todos.Manager) error {
				if err := mgr.RequestDelete(args[0]); err != nil {
					return err
				}
				todo, _ := mgr.Get(args[0])

				if !yes {
					ok, err := confirmPrompt(fmt.Sprintf("Delete %q? This cannot be undone.", todo.Title))
					if err != nil {
						mgr.CancelDelete()
						return err
					}
					if !ok {
						mgr.CancelDelete()
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
						return nil
					}
				}

				if err := mgr.ConfirmDelete(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", todo.Title)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")

	return cmd
}

func newTodoStatsCmd(a *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTodos(cmd, func(_ context.Context, mgr *todos.Manager) error {
				s := mgr.Statistics()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), s)
				}
				fmt.Fprintln(cmd.OutOrStdout(), stats.Render(s, listWidth))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print statistics as JSON")

	return cmd
}

func printTodos(w io.Writer, items []model.Todo, f model.Filter, now time.Time) {
	if len(items) == 0 {
		fmt.Fprintln(w, f.EmptyMessage())
		return
	}
	for _, t := range items {
		fmt.Fprintln(w, tasklist.RenderTodo(t, false, listWidth, now))
		fmt.Fprintf(w, "  id: %s\n", t.ID)
	}
}

// promptTodo asks for the required fields that were not given as flags.
func promptTodo(title, description, deadline *string) error {
	var fields []huh.Field
	if strings.TrimSpace(*title) == "" {
		fields = append(fields, huh.NewInput().Title("Title").Value(title))
	}
	if strings.TrimSpace(*description) == "" {
		fields = append(fields, huh.NewText().Title("Description").Value(description))
	}
	if strings.TrimSpace(*deadline) == "" {
		fields = append(fields, huh.NewInput().
			Title("Deadline").
			Placeholder(model.DateLayout).
			Value(deadline).
			Validate(func(s string) error {
				_, err := model.ParseDate(s)
				return err
			}))
	}
	return runPrompt(fields)
}
