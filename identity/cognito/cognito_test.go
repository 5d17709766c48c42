package cognito_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challengeschool/ridepool"
	"github.com/challengeschool/ridepool/identity"
	"github.com/challengeschool/ridepool/identity/cognito"
)

var (
	testSigningKey = []byte("test-signing-key-bytes")
	testStateKey   = []byte("state-signing-key")
)

const (
	testIssuer   = "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_TESTPOOL"
	testClientID = "test-client-id"
	testKeyID    = "test-key-id"
)

func testConfig() cognito.Config {
	return cognito.Config{
		Region:          "us-east-1",
		UserPoolID:      "us-east-1_TESTPOOL",
		ClientID:        testClientID,
		Domain:          "auth.example.com",
		RedirectSignIn:  "http://localhost:5173/",
		RedirectSignOut: "http://localhost:5173/",
		StateKey:        testStateKey,
		KeyFunc: func(token *jwt.Token) (any, error) {
			return testSigningKey, nil
		},
	}
}

func signIDToken(t *testing.T, now time.Time, mutate func(jwt.MapClaims)) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":              "abc-123",
		"email":            "sam@example.com",
		"email_verified":   true,
		"cognito:username": "sam",
		"token_use":        "id",
		"iss":              testIssuer,
		"aud":              testClientID,
		"iat":              now.Unix(),
		"exp":              now.Add(time.Hour).Unix(),
	}
	if mutate != nil {
		mutate(claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = testKeyID

	signed, err := token.SignedString(testSigningKey)
	require.NoError(t, err)
	return signed
}

func TestBeginFederatedSignInURL(t *testing.T) {
	client := cognito.New(testConfig())

	raw, err := client.BeginFederatedSignIn(context.Background(), "Google")
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "auth.example.com", parsed.Host)
	assert.Equal(t, "/oauth2/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, testClientID, query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "email profile openid phone", query.Get("scope"))
	assert.Equal(t, "http://localhost:5173/", query.Get("redirect_uri"))
	assert.Equal(t, "Google", query.Get("identity_provider"))

	// the state parameter must verify against the configured key
	states := identity.NewSignedStateManager(testStateKey, 10*time.Minute)
	state, err := states.Decode(query.Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "Google", state.Provider)
	assert.Equal(t, "http://localhost:5173/", state.RedirectURL)
}

func TestCompleteSignInExchangesCode(t *testing.T) {
	now := time.Now()
	idToken := signIDToken(t, now, nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth2/token", r.URL.Path)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, testClientID, r.PostForm.Get("client_id"))
		assert.Equal(t, "auth-code-123", r.PostForm.Get("code"))
		assert.Equal(t, "http://localhost:5173/", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-token",
			"id_token":      idToken,
			"refresh_token": "refresh-token",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	store := identity.NewMemoryStore()

	cfg := testConfig()
	cfg.TokenURL = server.URL + "/oauth2/token"
	cfg.Store = store
	client := cognito.New(cfg)

	state, err := identity.NewSignedStateManager(testStateKey, 10*time.Minute).
		Encode(&identity.SignInState{Provider: "Google"})
	require.NoError(t, err)

	require.NoError(t, client.CompleteSignIn(context.Background(), "auth-code-123", state))

	tokens, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, idToken, tokens.IDToken)
	assert.Equal(t, "refresh-token", tokens.RefreshToken)
	assert.False(t, tokens.ExpiresAt.IsZero())

	session, err := client.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc-123", session.UserID)
	assert.Equal(t, "sam@example.com", session.Email)
	assert.Equal(t, testIssuer, session.Issuer)
	assert.Equal(t, "sam", session.Data["username"])
	assert.True(t, session.HasEmail())
}

func TestCompleteSignInRejectsBadState(t *testing.T) {
	client := cognito.New(testConfig())

	err := client.CompleteSignIn(context.Background(), "auth-code-123", "not-a-valid-state")
	assert.ErrorIs(t, err, identity.ErrInvalidState)
}

func TestCompleteSignInSurfacesExchangeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.TokenURL = server.URL + "/oauth2/token"
	client := cognito.New(cfg)

	state, err := identity.NewSignedStateManager(testStateKey, 10*time.Minute).
		Encode(&identity.SignInState{Provider: "Google"})
	require.NoError(t, err)

	err = client.CompleteSignIn(context.Background(), "stale-code", state)
	assert.ErrorIs(t, err, identity.ErrTokenExchangeFailed)
}

func TestCurrentSessionWithoutTokens(t *testing.T) {
	client := cognito.New(testConfig())

	_, err := client.CurrentSession(context.Background())
	assert.ErrorIs(t, err, ridepool.ErrNoSession)
}

func TestCurrentSessionExpiredTokenSet(t *testing.T) {
	store := identity.NewMemoryStore()
	require.NoError(t, store.Save(&identity.TokenSet{
		IDToken:   signIDToken(t, time.Now(), nil),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	cfg := testConfig()
	cfg.Store = store
	client := cognito.New(cfg)

	_, err := client.CurrentSession(context.Background())
	assert.ErrorIs(t, err, ridepool.ErrNoSession)
}

func TestCurrentSessionExpiredIDToken(t *testing.T) {
	now := time.Now()
	store := identity.NewMemoryStore()
	require.NoError(t, store.Save(&identity.TokenSet{
		IDToken: signIDToken(t, now.Add(-2*time.Hour), nil),
	}))

	cfg := testConfig()
	cfg.Store = store
	client := cognito.New(cfg)

	_, err := client.CurrentSession(context.Background())
	assert.ErrorIs(t, err, ridepool.ErrNoSession)
}

func TestCurrentSessionRejectsWrongIssuer(t *testing.T) {
	store := identity.NewMemoryStore()
	require.NoError(t, store.Save(&identity.TokenSet{
		IDToken: signIDToken(t, time.Now(), func(claims jwt.MapClaims) {
			claims["iss"] = "https://evil.example.com"
		}),
	}))

	cfg := testConfig()
	cfg.Store = store
	client := cognito.New(cfg)

	_, err := client.CurrentSession(context.Background())
	assert.ErrorIs(t, err, identity.ErrTokenInvalid)
}

func TestCurrentSessionRejectsTamperedToken(t *testing.T) {
	idToken := signIDToken(t, time.Now(), nil)

	store := identity.NewMemoryStore()
	require.NoError(t, store.Save(&identity.TokenSet{
		IDToken: idToken[:len(idToken)-4] + "AAAA",
	}))

	cfg := testConfig()
	cfg.Store = store
	client := cognito.New(cfg)

	_, err := client.CurrentSession(context.Background())
	assert.ErrorIs(t, err, identity.ErrTokenInvalid)
}

func TestCurrentSessionResolvesKeysFromJWKS(t *testing.T) {
	jwksJSON := fmt.Sprintf(`{"keys":[{"kty":"oct","kid":%q,"alg":"HS256","k":%q}]}`,
		testKeyID, base64.RawURLEncoding.EncodeToString(testSigningKey))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(jwksJSON))
	}))
	defer server.Close()

	store := identity.NewMemoryStore()
	require.NoError(t, store.Save(&identity.TokenSet{
		IDToken: signIDToken(t, time.Now(), nil),
	}))

	cfg := testConfig()
	cfg.KeyFunc = nil
	cfg.JWKSURL = server.URL
	cfg.Store = store
	client := cognito.New(cfg)

	session, err := client.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", session.Email)
}

func TestSignOutRevokesAndClears(t *testing.T) {
	var revoked string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		revoked = r.PostForm.Get("token")
		assert.Equal(t, testClientID, r.PostForm.Get("client_id"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := identity.NewMemoryStore()
	require.NoError(t, store.Save(&identity.TokenSet{
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
	}))

	cfg := testConfig()
	cfg.RevokeURL = server.URL + "/oauth2/revoke"
	cfg.Store = store
	client := cognito.New(cfg)

	require.NoError(t, client.SignOut(context.Background()))
	assert.Equal(t, "refresh-token", revoked)

	_, err := store.Load()
	assert.ErrorIs(t, err, identity.ErrNoTokens)
}

func TestSignOutClearsWhenRevokeFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := identity.NewMemoryStore()
	require.NoError(t, store.Save(&identity.TokenSet{
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
	}))

	cfg := testConfig()
	cfg.RevokeURL = server.URL + "/oauth2/revoke"
	cfg.Store = store
	client := cognito.New(cfg)

	err := client.SignOut(context.Background())
	require.Error(t, err)

	// local state is gone regardless of the remote outcome
	_, err = store.Load()
	assert.ErrorIs(t, err, identity.ErrNoTokens)
}

func TestSignOutWithoutSession(t *testing.T) {
	client := cognito.New(testConfig())
	assert.NoError(t, client.SignOut(context.Background()))
}

func TestSignOutURL(t *testing.T) {
	client := cognito.New(testConfig())

	parsed, err := url.Parse(client.SignOutURL())
	require.NoError(t, err)
	assert.Equal(t, "auth.example.com", parsed.Host)
	assert.Equal(t, "/logout", parsed.Path)
	assert.Equal(t, testClientID, parsed.Query().Get("client_id"))
	assert.Equal(t, "http://localhost:5173/", parsed.Query().Get("logout_uri"))
}
