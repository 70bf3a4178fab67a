// Package session holds the signed-in identity and its bearer credential,
// persists it across restarts and keeps the profile fresh.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
)

// Storage keys of the persisted session record.
const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

// ErrNotFound is returned by Storage.Get for a missing key.
var ErrNotFound = errors.New("session: key not found")

// ErrAnonymous is returned by operations that need a signed-in user.
var ErrAnonymous = errors.New("not logged in")

// Storage persists small string values by key.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// ProfileFetcher reads the current user's profile from the backend.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (*api.ProfileDTO, error)
}

// State is the authentication state of a Store.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Store owns the session. Mutations (Login, Logout, Refresh) are
// serialized by writeMu; the network call inside Refresh runs without
// holding either lock.
type Store struct {
	storage   Storage
	fetcher   ProfileFetcher
	assetBase string

	writeMu sync.Mutex

	mu      sync.RWMutex
	state   State
	session model.Session

	// generation changes on every login and logout so an in-flight
	// refresh can tell that its result is stale.
	generation uint64
}

// New creates a Store in the Unknown state. Call Initialize before use.
func New(storage Storage, fetcher ProfileFetcher, assetBase string) *Store {
	return &Store{
		storage:   storage,
		fetcher:   fetcher,
		assetBase: assetBase,
		state:     StateUnknown,
	}
}

// Initialize restores a persisted session. A complete record yields
// Authenticated; anything else yields Anonymous and a partial or
// unreadable record is erased.
func (s *Store) Initialize() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sess, ok, err := s.restore()
	if err != nil {
		// The record may be intact behind a locked or busy backend; keep it.
		log.Warn().Err(err).Msg("reading stored session")
		s.set(StateAnonymous, model.Session{})
		return
	}
	if !ok {
		s.erase()
		s.set(StateAnonymous, model.Session{})
		return
	}
	s.set(StateAuthenticated, sess)
}

// restore reads the persisted record. ok is false for a missing, partial
// or malformed record; err is set only when the storage itself failed.
func (s *Store) restore() (model.Session, bool, error) {
	token, err := s.storage.Get(KeyToken)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return model.Session{}, false, fmt.Errorf("reading stored credential: %w", err)
	}
	tokenFound := err == nil

	raw, err := s.storage.Get(KeyUser)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return model.Session{}, false, fmt.Errorf("reading stored user: %w", err)
	}
	if !tokenFound || err != nil || strings.TrimSpace(token) == "" {
		return model.Session{}, false, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Warn().Err(err).Msg("stored user record is not valid JSON")
		return model.Session{}, false, nil
	}
	if strings.TrimSpace(user.ID) == "" {
		return model.Session{}, false, nil
	}

	return model.Session{
		User:       user,
		Credential: token,
		ExpiresAt:  CredentialExpiry(token),
	}, true, nil
}

// Login stores the user and credential, replacing any existing session.
// The record is persisted before the in-memory state changes; a storage
// failure leaves the previous state in place.
func (s *Store) Login(user model.User, credential string) error {
	if strings.TrimSpace(credential) == "" || strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("login requires a user id and a credential")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.persist(user, credential); err != nil {
		return err
	}

	s.mu.Lock()
	s.generation++
	s.mu.Unlock()

	s.set(StateAuthenticated, model.Session{
		User:       user,
		Credential: credential,
		ExpiresAt:  CredentialExpiry(credential),
	})
	log.Info().Str("user_id", user.ID).Msg("logged in")
	return nil
}

// Logout clears the session. It always succeeds; storage failures are
// logged.
func (s *Store) Logout() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.erase()

	s.mu.Lock()
	s.generation++
	s.mu.Unlock()

	s.set(StateAnonymous, model.Session{})
	log.Info().Msg("logged out")
}

// Refresh re-reads the profile and replaces the user's name and avatar.
// The id, email and credential are kept. An AuthError is returned as is;
// deciding to log out is up to the caller. If the session changed while
// the request was in flight the result is discarded.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	state, token, gen := s.state, s.session.Credential, s.generation
	s.mu.RUnlock()

	if state != StateAuthenticated {
		return ErrAnonymous
	}

	profile, err := s.fetcher.FetchProfile(ctx, token)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	stale := s.generation != gen || s.state != StateAuthenticated
	current := s.session
	s.mu.RUnlock()

	if stale {
		log.Debug().Msg("discarding profile refresh for a replaced session")
		return nil
	}

	fresh := NormalizeProfile(*profile, s.assetBase)
	user := current.User
	user.Name = fresh.Name
	user.AvatarURL = fresh.AvatarURL

	if err := s.persist(user, current.Credential); err != nil {
		return err
	}

	current.User = user
	s.set(StateAuthenticated, current)
	return nil
}

// Current returns a copy of the session and whether one exists.
func (s *Store) Current() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated {
		return model.Session{}, false
	}
	return s.session, true
}

// Credential returns the bearer token of the signed-in user.
func (s *Store) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated {
		return "", false
	}
	return s.session.Credential, true
}

// State returns the authentication state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading reports whether the persisted session has not been read yet.
func (s *Store) Loading() bool {
	return s.State() == StateUnknown
}

// AssetBase returns the origin relative avatar paths resolve against.
func (s *Store) AssetBase() string {
	return s.assetBase
}

func (s *Store) set(state State, sess model.Session) {
	s.mu.Lock()
	s.state = state
	s.session = sess
	s.mu.Unlock()
}

func (s *Store) persist(user model.User, credential string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.storage.Set(KeyToken, credential); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	if err := s.storage.Set(KeyUser, string(data)); err != nil {
		return fmt.Errorf("storing user: %w", err)
	}
	return nil
}

func (s *Store) erase() {
	for _, key := range []string{KeyToken, KeyUser} {
		if err := s.storage.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("erasing session record")
		}
	}
}

// UserFromAuth builds the session user from a login or register response.
func UserFromAuth(resp *api.AuthResponse, assetBase string) model.User {
	return NormalizeProfile(resp.User, assetBase)
}

// NormalizeProfile maps a wire profile onto the local user shape.
func NormalizeProfile(p api.ProfileDTO, assetBase string) model.User {
	return model.User{
		ID:        p.UserID(),
		Name:      p.Name,
		Email:     p.Email,
		AvatarURL: ResolveAvatarURL(p, assetBase),
	}
}

// ResolveAvatarURL picks the avatar: imageUrl as given, otherwise
// profile_image appended to the asset origin, otherwise none.
func ResolveAvatarURL(p api.ProfileDTO, assetBase string) string {
	if p.ImageURL != "" {
		return p.ImageURL
	}
	if p.ProfileImage == "" {
		return ""
	}
	return AssetOrigin(assetBase) + p.ProfileImage
}

// AssetOrigin strips a trailing /api or /api/ from base.
func AssetOrigin(base string) string {
	switch {
	case strings.HasSuffix(base, "/api/"):
		return strings.TrimSuffix(base, "/api/")
	case strings.HasSuffix(base, "/api"):
		return strings.TrimSuffix(base, "/api")
	}
	return base
}

// CredentialExpiry decodes the exp claim of a JWT credential without
// verifying it. Opaque or expiry-less tokens yield nil.
func CredentialExpiry(token string) *time.Time {
	exp, err := jwtExpiry(token)
	if err != nil {
		return nil
	}
	return exp
}
