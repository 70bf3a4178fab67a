package testutil

import (
	"testing"

	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/session"
	"github.com/Levi-Ojukwu/todo-ui/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewSignedInSession returns a session store persisted in storage and
// already logged in as user with the given credential.
func NewSignedInSession(
	t *testing.T,
	storage session.Storage,
	fetcher session.ProfileFetcher,
	user model.User,
	credential string,
) *session.Store {
	t.Helper()

	s := session.New(storage, fetcher, "")
	s.Initialize()
	if err := s.Login(user, credential); err != nil {
		t.Fatalf("logging in test session: %v", err)
	}
	return s
}
