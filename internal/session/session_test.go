package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/session"
)

type fakeFetcher struct {
	profile *api.ProfileDTO
	err     error
	calls   int
	tokens  []string

	// during runs inside FetchProfile, before it returns.
	during func()
}

func (f *fakeFetcher) FetchProfile(_ context.Context, token string) (*api.ProfileDTO, error) {
	f.calls++
	f.tokens = append(f.tokens, token)
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return nil, f.err
	}
	p := *f.profile
	return &p, nil
}

var ada = model.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}

func TestInitializeEmptyStorageIsAnonymous(t *testing.T) {
	s := session.New(session.NewMemoryStorage(), &fakeFetcher{}, "")
	assert.True(t, s.Loading())

	s.Initialize()

	assert.False(t, s.Loading())
	assert.Equal(t, session.StateAnonymous, s.State())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestLoginThenInitializeRestoresSession(t *testing.T) {
	storage := session.NewMemoryStorage()

	first := session.New(storage, &fakeFetcher{}, "")
	first.Initialize()
	require.NoError(t, first.Login(ada, "tok-1"))

	second := session.New(storage, &fakeFetcher{}, "")
	second.Initialize()

	require.Equal(t, session.StateAuthenticated, second.State())
	sess, ok := second.Current()
	require.True(t, ok)
	assert.Equal(t, ada, sess.User)
	assert.Equal(t, "tok-1", sess.Credential)
}

func TestInitializeErasesPartialRecord(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"token only", map[string]string{session.KeyToken: "tok"}},
		{"user only", map[string]string{session.KeyUser: `{"id":"u1"}`}},
		{"malformed user", map[string]string{session.KeyToken: "tok", session.KeyUser: "{not json"}},
		{"user without id", map[string]string{session.KeyToken: "tok", session.KeyUser: `{"name":"Ada"}`}},
		{"blank token", map[string]string{session.KeyToken: "  ", session.KeyUser: `{"id":"u1"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := session.NewMemoryStorage()
			for k, v := range tt.values {
				require.NoError(t, storage.Set(k, v))
			}

			s := session.New(storage, &fakeFetcher{}, "")
			s.Initialize()

			assert.Equal(t, session.StateAnonymous, s.State())
			_, err := storage.Get(session.KeyToken)
			assert.ErrorIs(t, err, session.ErrNotFound)
			_, err = storage.Get(session.KeyUser)
			assert.ErrorIs(t, err, session.ErrNotFound)
		})
	}
}

func TestLogoutErasesRecord(t *testing.T) {
	storage := session.NewMemoryStorage()
	s := session.New(storage, &fakeFetcher{}, "")
	s.Initialize()
	require.NoError(t, s.Login(ada, "tok"))

	s.Logout()

	assert.Equal(t, session.StateAnonymous, s.State())
	_, ok := s.Credential()
	assert.False(t, ok)

	again := session.New(storage, &fakeFetcher{}, "")
	again.Initialize()
	assert.Equal(t, session.StateAnonymous, again.State())
}

func TestLoginRejectsIncompleteIdentity(t *testing.T) {
	s := session.New(session.NewMemoryStorage(), &fakeFetcher{}, "")
	s.Initialize()

	assert.Error(t, s.Login(model.User{Name: "no id"}, "tok"))
	assert.Error(t, s.Login(ada, ""))
	assert.Equal(t, session.StateAnonymous, s.State())
}

func TestRefreshReplacesNameAndAvatarOnly(t *testing.T) {
	storage := session.NewMemoryStorage()
	fetcher := &fakeFetcher{profile: &api.ProfileDTO{
		ID:           "other",
		Name:         "Ada Lovelace",
		Email:        "changed@example.com",
		ProfileImage: "/uploads/ada.png",
	}}
	s := session.New(storage, fetcher, "https://todo.example.com/api")
	s.Initialize()
	require.NoError(t, s.Login(ada, "tok"))

	require.NoError(t, s.Refresh(context.Background()))

	sess, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, "ada@example.com", sess.User.Email)
	assert.Equal(t, "Ada Lovelace", sess.User.Name)
	assert.Equal(t, "https://todo.example.com/uploads/ada.png", sess.User.AvatarURL)
	assert.Equal(t, "tok", sess.Credential)
	assert.Equal(t, []string{"tok"}, fetcher.tokens)

	restored := session.New(storage, fetcher, "")
	restored.Initialize()
	got, _ := restored.Current()
	assert.Equal(t, "Ada Lovelace", got.User.Name)
}

func TestRefreshAuthErrorDoesNotLogOut(t *testing.T) {
	fetcher := &fakeFetcher{err: &errs.AuthError{StatusCode: 401}}
	s := session.New(session.NewMemoryStorage(), fetcher, "")
	s.Initialize()
	require.NoError(t, s.Login(ada, "tok"))

	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
	assert.Equal(t, session.StateAuthenticated, s.State())
}

func TestRefreshOtherErrorLeavesStateUnchanged(t *testing.T) {
	fetcher := &fakeFetcher{err: &errs.NetworkError{Op: "fetch profile", Err: errors.New("refused")}}
	s := session.New(session.NewMemoryStorage(), fetcher, "")
	s.Initialize()
	require.NoError(t, s.Login(ada, "tok"))

	require.Error(t, s.Refresh(context.Background()))
	sess, _ := s.Current()
	assert.Equal(t, ada, sess.User)
}

func TestRefreshWhileAnonymous(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := session.New(session.NewMemoryStorage(), fetcher, "")
	s.Initialize()

	assert.ErrorIs(t, s.Refresh(context.Background()), session.ErrAnonymous)
	assert.Zero(t, fetcher.calls)
}

func TestRefreshDiscardedAfterLogoutInFlight(t *testing.T) {
	storage := session.NewMemoryStorage()
	fetcher := &fakeFetcher{profile: &api.ProfileDTO{ID: "u1", Name: "Stale"}}
	s := session.New(storage, fetcher, "")
	s.Initialize()
	require.NoError(t, s.Login(ada, "tok"))

	fetcher.during = s.Logout

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, session.StateAnonymous, s.State())
	_, err := storage.Get(session.KeyUser)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestResolveAvatarURL(t *testing.T) {
	tests := []struct {
		name    string
		profile api.ProfileDTO
		base    string
		want    string
	}{
		{"absolute image url wins", api.ProfileDTO{ImageURL: "https://cdn/x.png", ProfileImage: "/p.png"}, "https://h/api", "https://cdn/x.png"},
		{"relative path strips /api", api.ProfileDTO{ProfileImage: "/uploads/p.png"}, "https://h/api", "https://h/uploads/p.png"},
		{"relative path strips /api/", api.ProfileDTO{ProfileImage: "/uploads/p.png"}, "https://h/api/", "https://h/uploads/p.png"},
		{"base without api", api.ProfileDTO{ProfileImage: "/uploads/p.png"}, "https://h", "https://h/uploads/p.png"},
		{"no avatar", api.ProfileDTO{}, "https://h/api", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.ResolveAvatarURL(tt.profile, tt.base))
		})
	}
}

func TestCredentialExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	got := session.CredentialExpiry(token)
	require.NotNil(t, got)
	assert.True(t, exp.Equal(*got))

	assert.Nil(t, session.CredentialExpiry("opaque-token"))
}

func TestLoginDecodesExpiry(t *testing.T) {
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	s := session.New(session.NewMemoryStorage(), &fakeFetcher{}, "")
	s.Initialize()
	require.NoError(t, s.Login(ada, token))

	sess, _ := s.Current()
	assert.NotNil(t, sess.ExpiresAt)
}

// flakyStorage fails every Get while failing is set.
type flakyStorage struct {
	*session.MemoryStorage
	failing bool
}

func (f *flakyStorage) Get(key string) (string, error) {
	if f.failing {
		return "", errors.New("keyring locked")
	}
	return f.MemoryStorage.Get(key)
}

func TestInitializeReadErrorKeepsStoredRecord(t *testing.T) {
	storage := &flakyStorage{MemoryStorage: session.NewMemoryStorage()}

	first := session.New(storage, &fakeFetcher{}, "")
	first.Initialize()
	require.NoError(t, first.Login(ada, "tok"))

	storage.failing = true
	locked := session.New(storage, &fakeFetcher{}, "")
	locked.Initialize()
	assert.Equal(t, session.StateAnonymous, locked.State())

	storage.failing = false
	again := session.New(storage, &fakeFetcher{}, "")
	again.Initialize()
	require.Equal(t, session.StateAuthenticated, again.State())
	sess, ok := again.Current()
	require.True(t, ok)
	assert.Equal(t, ada, sess.User)
	assert.Equal(t, "tok", sess.Credential)
}
