package ridepool

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityClient abstracts the hosted identity provider. Implementations
// perform redirect based federated sign-in and expose the current session.
type IdentityClient interface {
	// BeginFederatedSignIn returns the hosted UI URL the caller must
	// navigate to. The redirect is one-way: the outcome is only observable
	// through CurrentSession after the application reloads.
	BeginFederatedSignIn(ctx context.Context, provider string) (string, error)

	// CurrentSession returns the active session or ErrNoSession when none
	// exists. An absent session is expected control flow, not a fault.
	CurrentSession(ctx context.Context) (*SessionObject, error)

	// SignOut terminates the remote session best-effort. Callers clear
	// local state regardless of the returned error.
	SignOut(ctx context.Context) error
}

// ProfileService is the remote profile resource. The service is the source
// of truth; any caching is the state machine's responsibility.
type ProfileService interface {
	Fetch(ctx context.Context, identifier string) (*Profile, error)
	Create(ctx context.Context, profile *Profile) (*Profile, error)
	Update(ctx context.Context, profile *Profile) (*Profile, error)
	Delete(ctx context.Context, identifier string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] RIDEPOOL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] RIDEPOOL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] RIDEPOOL "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
