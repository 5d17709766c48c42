package ridepool

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// Session holds attributes that are part of an authenticated session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetEmail() string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetExpiresAt() *time.Time
	GetData() map[string]any
}

type SessionObject struct {
	UserID    string         `json:"user_id,omitempty"`
	Email     string         `json:"email,omitempty"`
	Issuer    string         `json:"issuer,omitempty"`
	IssuedAt  *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetEmail() string {
	return s.Email
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiresAt() *time.Time {
	return s.ExpiresAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// HasEmail reports whether the session carries a usable email claim. The
// profile resource is keyed by email, so a session without one cannot reach
// an authenticated view state.
func (s *SessionObject) HasEmail() bool {
	return s != nil && strings.TrimSpace(s.Email) != ""
}

// Expired reports whether the session's expiration has passed.
func (s *SessionObject) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}
