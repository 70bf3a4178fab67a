package model

import (
	"strings"
	"time"

	"github.com/Levi-Ojukwu/todo-ui/internal/errs"
)

// User is the normalized identity of the signed-in account.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"imageUrl,omitempty"`
}

// Session pairs a user with the bearer credential that authenticates it.
// Both halves are set together or the session does not exist.
type Session struct {
	User       User
	Credential string

	// ExpiresAt is decoded from a JWT credential when possible.
	ExpiresAt *time.Time
}

// Registration is the input for creating an account.
type Registration struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate applies the sign-up form rules.
func (r Registration) Validate() error {
	if r.Password != r.ConfirmPassword {
		return errs.Validation("Passwords do not match")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errs.Validation("Name is required")
	}
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errs.Validation("Email and password are required")
	}
	return nil
}

// ProfileChange is the input of the profile settings form.
type ProfileChange struct {
	Name            string
	NewPassword     string
	ConfirmPassword string
}

// Validate checks that a new password, when given, was typed twice.
func (p ProfileChange) Validate() error {
	if p.NewPassword != "" && p.NewPassword != p.ConfirmPassword {
		return errs.Validation("New passwords do not match")
	}
	if strings.TrimSpace(p.Name) == "" && p.NewPassword == "" {
		return errs.Validation("Nothing to update")
	}
	return nil
}

// File is a local file selected for upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}
