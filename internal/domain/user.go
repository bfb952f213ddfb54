package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a registered account that can own photos.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string // never serialized
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterParams carries a registration payload.
type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// Validate checks the registration payload.
func (p RegisterParams) Validate(op string) error {
	var ve *ValidationError
	email := strings.TrimSpace(p.Email)
	if email == "" {
		ve = ve.AddField("email", "Email is required")
	} else if !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		ve = ve.AddField("email", "Email address is not valid")
	}
	if p.Name == "" {
		ve = ve.AddField("name", "Name is required")
	} else if len(p.Name) > MaxTitleLength {
		ve = ve.AddField("name", "Name must be at most 255 characters")
	}
	if len(p.Password) < MinPasswordLength {
		ve = ve.AddField("password", "Password must be at least 8 characters")
	}
	return ve.withOp(op).OrNil()
}
