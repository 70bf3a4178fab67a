package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
	"github.com/Levi-Ojukwu/todo-ui/internal/session"
)

// displayError is returned from commands so cobra prints the banner
// message instead of the wrapped error chain.
type displayError struct {
	err error
}

func (e *displayError) Error() string {
	return errs.Message(e.err)
}

func (e *displayError) Unwrap() error {
	return e.err
}

// run opens the session around fn. A credential the backend rejected is
// forgotten so the next command starts signed out.
func (a *App) run(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	return a.withSession(func() error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, session.ErrAnonymous) {
			err = errs.NotLoggedIn()
		}

		log.Error().Err(err).Str("command", cmd.CommandPath()).Msg("command failed")
		if errs.IsAuth(err) && a.session.State() == session.StateAuthenticated {
			a.session.Logout()
		}
		return &displayError{err: err}
	})
}

func (a *App) now() time.Time {
	return time.Now()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
