package domain

import (
	"time"
)

// PendingSignup holds a signup waiting for email verification. It carries
// everything needed to create the account once the correct code is presented,
// so no user row exists until verification succeeds.
type PendingSignup struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Organization string    `json:"organization,omitempty"`
	OTP          string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the signup's verification window has closed.
func (p *PendingSignup) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
