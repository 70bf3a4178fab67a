package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	appsync "github.com/Levi-Ojukwu/todo-ui/internal/sync"
)

// displayName prefers the user's name and falls back to the email.
func displayName(u model.User) string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}

// accountLabel is the right-hand side of the header.
func (m Model) accountLabel() string {
	sess, ok := m.session.Current()
	if !ok {
		return "not signed in"
	}

	parts := []string{displayName(sess.User)}
	if sess.User.AvatarURL != "" {
		parts[0] = "◉ " + parts[0]
	}
	if m.poller != nil {
		if s := syncLabel(m.poller.Status()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " · ")
}

// syncLabel describes the last profile refresh.
func syncLabel(s appsync.SyncStatus) string {
	switch s.State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		return "profile sync failed"
	}
	if s.LastSync.IsZero() {
		return ""
	}
	return fmt.Sprintf("synced %s", humanize.Time(s.LastSync))
}

// expandHome resolves a leading ~ in a user-typed path.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
