package identity

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// StateManager encodes and verifies the state parameter carried through the
// hosted UI redirect.
type StateManager interface {
	Encode(state *SignInState) (string, error)
	Decode(token string) (*SignInState, error)
}

// SignInState is the data round-tripped through the redirect.
type SignInState struct {
	Nonce       string `json:"n"`
	Provider    string `json:"p"`
	RedirectURL string `json:"r,omitempty"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

// SignedStateManager HMAC-signs the JSON-encoded state so the callback can
// detect tampering without any server side storage.
type SignedStateManager struct {
	key []byte
	ttl time.Duration
}

var _ StateManager = (*SignedStateManager)(nil)

// NewSignedStateManager creates a state manager with the given signing key.
func NewSignedStateManager(key []byte, ttl time.Duration) *SignedStateManager {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &SignedStateManager{key: key, ttl: ttl}
}

// Encode signs the state.
func (sm *SignedStateManager) Encode(state *SignInState) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	now := time.Now()
	if state.IssuedAt == 0 {
		state.IssuedAt = now.Unix()
	}
	if state.ExpiresAt == 0 {
		state.ExpiresAt = now.Add(sm.ttl).Unix()
	}
	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	mac := hmac.New(sha256.New, sm.key)
	mac.Write(payload)
	signature := mac.Sum(nil)

	return base64.RawURLEncoding.EncodeToString(append(signature, payload...)), nil
}

// Decode verifies the signature and expiration.
func (sm *SignedStateManager) Decode(token string) (*SignInState, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidState
	}

	if len(data) < sha256.Size {
		return nil, ErrInvalidState
	}

	signature, payload := data[:sha256.Size], data[sha256.Size:]

	mac := hmac.New(sha256.New, sm.key)
	mac.Write(payload)
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return nil, ErrInvalidState
	}

	var state SignInState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, ErrInvalidState
	}

	if time.Now().Unix() > state.ExpiresAt {
		return nil, ErrStateExpired
	}

	return &state, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// GenerateStateKey returns a random signing key for processes that do not
// configure one. State encoded with it cannot outlive the process.
func GenerateStateKey() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
