// Package upload drives the profile image change: pick a file, preview
// it, confirm, upload, then refresh the session.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

// ErrInvalidTransition is returned when an operation is not allowed in
// the current state.
var ErrInvalidTransition = errors.New("invalid upload state transition")

// ErrClosed is returned for operations on a closed Flow.
var ErrClosed = errors.New("upload flow closed")

// Uploader sends the profile update.
type Uploader interface {
	UpdateProfile(ctx context.Context, token string, upd api.ProfileUpdate) (*api.ProfileDTO, error)
}

// Session is what the flow needs from the session store.
type Session interface {
	Credential() (string, bool)
	Refresh(ctx context.Context) error
}

// State of the flow.
type State int

const (
	StateIdle State = iota
	StateConfirming
	StateUploading
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConfirming:
		return "confirming"
	case StateUploading:
		return "uploading"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a read-only view of the flow for rendering.
type Snapshot struct {
	State    State
	File     *model.File
	Preview  string
	ErrorMsg string
}

// Flow is the upload state machine. The preview created for a selection
// is released exactly once, when the flow returns to Idle or the
// selection is replaced.
type Flow struct {
	uploader  Uploader
	session   Session
	previewer Previewer

	mu      sync.Mutex
	state   State
	file    *model.File
	preview Preview
	err     error
	closed  bool
}

// NewFlow returns an idle Flow.
func NewFlow(uploader Uploader, session Session, previewer Previewer) *Flow {
	return &Flow{
		uploader:  uploader,
		session:   session,
		previewer: previewer,
		state:     StateIdle,
	}
}

// SelectFile picks file for upload and creates its preview. Allowed from
// Idle, or from Confirming to replace the current selection. The file is
// not validated here; the backend decides what it accepts.
func (f *Flow) SelectFile(file model.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if f.state != StateIdle && f.state != StateConfirming {
		return f.invalid("select file")
	}

	preview, err := f.previewer.Create(file)
	if err != nil {
		return fmt.Errorf("creating preview for %s: %w", file.Name, err)
	}

	f.releasePreview()
	f.file = &file
	f.preview = preview
	f.err = nil
	f.state = StateConfirming
	return nil
}

// Confirm uploads the selected file. On success the session is refreshed
// and the flow returns to Idle; a refresh failure is returned but does
// not undo the upload. On failure the flow moves to Failed and keeps the
// selection for Retry.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state != StateConfirming {
		err := f.invalid("confirm")
		f.mu.Unlock()
		return err
	}
	token, ok := f.session.Credential()
	if !ok {
		f.mu.Unlock()
		return errs.NotLoggedIn()
	}
	file := *f.file
	f.state = StateUploading
	f.err = nil
	f.mu.Unlock()

	_, err := f.uploader.UpdateProfile(ctx, token, api.ProfileUpdate{Image: &file})

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		f.state = StateFailed
		f.err = err
		f.mu.Unlock()
		log.Warn().Err(err).Str("file", file.Name).Msg("profile image upload failed")
		return err
	}
	f.reset()
	f.mu.Unlock()

	log.Info().Str("file", file.Name).Int64("size", file.Size).Msg("profile image uploaded")

	if err := f.session.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing profile after upload: %w", err)
	}
	return nil
}

// Retry returns a failed upload to Confirming with the same selection.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if f.state != StateFailed {
		return f.invalid("retry")
	}
	f.state = StateConfirming
	f.err = nil
	return nil
}

// Cancel drops the selection. Allowed from Confirming or Failed.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if f.state != StateConfirming && f.state != StateFailed {
		return f.invalid("cancel")
	}
	f.reset()
	return nil
}

// Close releases any preview. An upload still in flight completes on
// the server but its result is ignored.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.reset()
	f.closed = true
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot returns the flow's current state for display.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{State: f.state}
	if f.file != nil {
		file := *f.file
		s.File = &file
	}
	if f.preview != nil {
		s.Preview = f.preview.Location()
	}
	if f.err != nil {
		s.ErrorMsg = errs.Message(f.err)
	}
	return s
}

// reset returns to Idle. Must be called with mu held.
func (f *Flow) reset() {
	f.releasePreview()
	f.file = nil
	f.err = nil
	f.state = StateIdle
}

// releasePreview must be called with mu held.
func (f *Flow) releasePreview() {
	if f.preview == nil {
		return
	}
	if err := f.preview.Release(); err != nil {
		log.Warn().Err(err).Str("preview", f.preview.Location()).Msg("releasing preview")
	}
	f.preview = nil
}

func (f *Flow) invalid(op string) error {
	return fmt.Errorf("%s while %s: %w", op, f.state, ErrInvalidTransition)
}
