package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/session"
	"github.com/Levi-Ojukwu/todo-ui/internal/upload"
)

// authResultMsg is sent after a login or registration attempt.
type authResultMsg struct {
	name string
	err  error
}

// profileUpdatedMsg is sent after the profile form was saved.
type profileUpdatedMsg struct{ err error }

// avatarSelectedMsg is sent once the chosen image is read and previewed.
type avatarSelectedMsg struct{ err error }

// avatarUploadedMsg is sent when the upload flow's Confirm returns.
type avatarUploadedMsg struct{ err error }

// login exchanges credentials for a session.
func (m *Model) login(email, password string) tea.Cmd {
	client, store := m.client, m.session
	return func() tea.Msg {
		resp, err := client.Login(context.Background(), email, password)
		if err != nil {
			return authResultMsg{err: err}
		}
		return startSession(store, resp)
	}
}

// register creates an account and signs in with it.
func (m *Model) register(r model.Registration) tea.Cmd {
	client, store := m.client, m.session
	return func() tea.Msg {
		resp, err := client.Register(context.Background(), r.Name, r.Email, r.Password)
		if err != nil {
			return authResultMsg{err: err}
		}
		return startSession(store, resp)
	}
}

func startSession(store *session.Store, resp *api.AuthResponse) authResultMsg {
	user := session.UserFromAuth(resp, store.AssetBase())
	if err := store.Login(user, resp.Token); err != nil {
		return authResultMsg{err: err}
	}
	return authResultMsg{name: displayName(user)}
}

// updateProfile saves the profile form and re-reads the profile.
func (m *Model) updateProfile(change model.ProfileChange) tea.Cmd {
	client, store := m.client, m.session
	return func() tea.Msg {
		return profileUpdatedMsg{err: saveProfile(context.Background(), client, store, change)}
	}
}

// saveProfile sends change to the backend and refreshes the session.
func saveProfile(ctx context.Context, client *api.Client, store *session.Store, change model.ProfileChange) error {
	token, ok := store.Credential()
	if !ok {
		return session.ErrAnonymous
	}
	_, err := client.UpdateProfile(ctx, token, api.ProfileUpdate{
		Name:     change.Name,
		Password: change.NewPassword,
	})
	if err != nil {
		return err
	}
	return store.Refresh(ctx)
}

// selectAvatar reads the image at path and hands it to the upload flow.
func (m *Model) selectAvatar(path string) tea.Cmd {
	flow := m.flow
	return func() tea.Msg {
		file, err := upload.LoadFile(expandHome(path))
		if err != nil {
			return avatarSelectedMsg{err: err}
		}
		return avatarSelectedMsg{err: flow.SelectFile(file)}
	}
}

// uploadAvatar confirms the pending upload.
func (m *Model) uploadAvatar() tea.Cmd {
	flow := m.flow
	return func() tea.Msg {
		return avatarUploadedMsg{err: flow.Confirm(context.Background())}
	}
}
