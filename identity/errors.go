// Package identity holds the pieces shared by hosted identity providers:
// token storage, the signed state parameter carried through the redirect,
// and the provider error taxonomy.
package identity

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidState      = "identity_invalid_state"
	TextCodeStateExpired      = "identity_state_expired"
	TextCodeTokenExchangeFail = "identity_token_exchange_failed"
	TextCodeTokenInvalid      = "identity_token_invalid"
)

// ErrNoTokens is returned by token stores when nothing is stored. Expected
// during startup before the first sign-in.
var ErrNoTokens = errors.New("no stored tokens")

// ErrInvalidState is returned when the sign-in state parameter is invalid or
// tampered with.
var ErrInvalidState = goerrors.New("invalid sign in state", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(goerrors.CodeBadRequest)

// ErrStateExpired is returned when the sign-in state parameter has expired.
var ErrStateExpired = goerrors.New("sign in state expired", goerrors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExchangeFailed is returned when the authorization code exchange
// fails.
var ErrTokenExchangeFailed = goerrors.New("token exchange failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExchangeFail).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid is returned when a stored token fails validation.
var ErrTokenInvalid = goerrors.New("stored token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)
