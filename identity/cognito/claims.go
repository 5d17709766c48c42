package cognito

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/challengeschool/ridepool"
)

// idTokenClaims is the Cognito ID token payload the session is built from.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Username      string `json:"cognito:username,omitempty"`
	TokenUse      string `json:"token_use,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
}

// Session maps the claims into the application session. The subject claim is
// the stable user identifier; a missing subject falls back to a UUID derived
// from the email so the session always carries one.
func (c *idTokenClaims) Session() *ridepool.SessionObject {
	userID := c.Subject
	if userID == "" && c.Email != "" {
		if id, err := ridepool.FallbackUserID(c.Email); err == nil {
			userID = id.String()
		}
	}

	session := &ridepool.SessionObject{
		UserID: userID,
		Email:  c.Email,
		Issuer: c.Issuer,
		Data: map[string]any{
			"email_verified": c.EmailVerified,
			"token_use":      c.TokenUse,
		},
	}
	if c.Username != "" {
		session.Data["username"] = c.Username
	}
	if c.PhoneNumber != "" {
		session.Data["phone_number"] = c.PhoneNumber
	}
	if c.IssuedAt != nil {
		t := c.IssuedAt.Time
		session.IssuedAt = &t
	}
	if c.ExpiresAt != nil {
		t := c.ExpiresAt.Time
		session.ExpiresAt = &t
	}

	return session
}
