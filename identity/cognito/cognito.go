// Package cognito implements the hosted UI identity client for an Amazon
// Cognito user pool. Sign-in is redirect based: BeginFederatedSignIn hands
// back the hosted UI URL, the process is suspended across the redirect, and
// CompleteSignIn finishes the code exchange on the next load.
package cognito

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"

	"github.com/challengeschool/ridepool"
	"github.com/challengeschool/ridepool/identity"
)

// Config holds Cognito hosted UI settings.
type Config struct {
	Region          string
	UserPoolID      string
	ClientID        string
	ClientSecret    string
	Domain          string
	Scopes          []string
	RedirectSignIn  string
	RedirectSignOut string
	ResponseType    string

	// StateKey signs the redirect state parameter. A random ephemeral key
	// is generated when empty, which limits verification to one process
	// lifetime.
	StateKey []byte

	AuthURL   string
	TokenURL  string
	RevokeURL string
	LogoutURL string
	JWKSURL   string
	Issuer    string

	// KeyFunc overrides JWKS based key resolution (useful for tests).
	KeyFunc jwt.Keyfunc

	Store        identity.TokenStore
	StateManager identity.StateManager
	HTTPClient   *http.Client
	Clock        func() time.Time
}

// Client implements ridepool.IdentityClient against a Cognito user pool.
type Client struct {
	config     Config
	store      identity.TokenStore
	states     identity.StateManager
	httpClient *http.Client
	now        func() time.Time

	keyFunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
}

var _ ridepool.IdentityClient = (*Client)(nil)

// New creates a Cognito hosted UI client.
func New(cfg Config) *Client {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = ridepool.DefaultScopes()
	}
	if cfg.ResponseType == "" {
		cfg.ResponseType = "code"
	}

	base := "https://" + strings.TrimPrefix(cfg.Domain, "https://")
	if cfg.AuthURL == "" {
		cfg.AuthURL = base + "/oauth2/authorize"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = base + "/oauth2/token"
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = base + "/oauth2/revoke"
	}
	if cfg.LogoutURL == "" {
		cfg.LogoutURL = base + "/logout"
	}

	pool := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", cfg.Region, cfg.UserPoolID)
	if cfg.Issuer == "" {
		cfg.Issuer = pool
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = pool + "/.well-known/jwks.json"
	}

	store := cfg.Store
	if store == nil {
		store = identity.NewMemoryStore()
	}

	states := cfg.StateManager
	if states == nil {
		key := cfg.StateKey
		if len(key) == 0 {
			key = []byte(identity.GenerateStateKey())
		}
		states = identity.NewSignedStateManager(key, 10*time.Minute)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Client{
		config:     cfg,
		store:      store,
		states:     states,
		httpClient: httpClient,
		now:        now,
		keyFunc:    cfg.KeyFunc,
	}
}

// BeginFederatedSignIn implements ridepool.IdentityClient. The returned URL
// points at the hosted UI; the caller navigates and control leaves the
// process until the provider redirects back.
func (c *Client) BeginFederatedSignIn(ctx context.Context, provider string) (string, error) {
	state, err := c.states.Encode(&identity.SignInState{
		Provider:    provider,
		RedirectURL: c.config.RedirectSignIn,
	})
	if err != nil {
		return "", err
	}

	params := url.Values{
		"client_id":     {c.config.ClientID},
		"response_type": {c.config.ResponseType},
		"scope":         {strings.Join(c.config.Scopes, " ")},
		"redirect_uri":  {c.config.RedirectSignIn},
		"state":         {state},
	}
	if provider != "" {
		params.Set("identity_provider", provider)
	}

	return c.config.AuthURL + "?" + params.Encode(), nil
}

// CompleteSignIn verifies the redirect state, exchanges the authorization
// code, and persists the resulting token set. It runs on the load that
// follows the redirect, before the session is evaluated.
func (c *Client) CompleteSignIn(ctx context.Context, code, state string) error {
	if _, err := c.states.Decode(state); err != nil {
		return err
	}

	tokens, err := c.exchange(ctx, code)
	if err != nil {
		return err
	}

	return c.store.Save(tokens)
}

// CurrentSession implements ridepool.IdentityClient. It validates the stored
// ID token against the pool JWKS and maps its claims into a session.
func (c *Client) CurrentSession(ctx context.Context) (*ridepool.SessionObject, error) {
	tokens, err := c.store.Load()
	if err != nil {
		if errors.Is(err, identity.ErrNoTokens) {
			return nil, ridepool.ErrNoSession
		}
		return nil, err
	}

	if tokens.IDToken == "" || tokens.Expired(c.now()) {
		return nil, ridepool.ErrNoSession
	}

	keyFunc, err := c.resolveKeyFunc()
	if err != nil {
		return nil, err
	}

	claims := &idTokenClaims{}
	_, err = jwt.ParseWithClaims(tokens.IDToken, claims, keyFunc,
		jwt.WithIssuer(c.config.Issuer),
		jwt.WithAudience(c.config.ClientID),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ridepool.ErrNoSession
		}
		return nil, identity.ErrTokenInvalid.WithMetadata(map[string]any{
			"error": err.Error(),
		})
	}

	return claims.Session(), nil
}

// SignOut implements ridepool.IdentityClient. The refresh token revocation
// is best-effort; the local store is cleared regardless so the caller can
// always land in an anonymous state.
func (c *Client) SignOut(ctx context.Context) error {
	tokens, err := c.store.Load()
	if err != nil && !errors.Is(err, identity.ErrNoTokens) {
		tokens = nil
	}

	var revokeErr error
	if tokens != nil && tokens.RefreshToken != "" {
		revokeErr = c.revoke(ctx, tokens.RefreshToken)
	}

	if err := c.store.Clear(); err != nil {
		return err
	}

	return revokeErr
}

// SignOutURL returns the hosted UI logout URL the caller navigates to after
// the local session is cleared.
func (c *Client) SignOutURL() string {
	params := url.Values{
		"client_id":  {c.config.ClientID},
		"logout_uri": {c.config.RedirectSignOut},
	}
	return c.config.LogoutURL + "?" + params.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error"`
}

func (c *Client) exchange(ctx context.Context, code string) (*identity.TokenSet, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {c.config.ClientID},
		"code":         {code},
		"redirect_uri": {c.config.RedirectSignIn},
	}
	if c.config.ClientSecret != "" {
		data.Set("client_secret", c.config.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "token exchange request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, identity.ErrTokenExchangeFailed.WithMetadata(map[string]any{
			"status": resp.StatusCode,
			"error":  "invalid_response",
		})
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != "" {
		return nil, identity.ErrTokenExchangeFailed.WithMetadata(map[string]any{
			"status": resp.StatusCode,
			"error":  parsed.Error,
		})
	}
	if parsed.IDToken == "" {
		return nil, identity.ErrTokenExchangeFailed.WithMetadata(map[string]any{
			"status": resp.StatusCode,
			"error":  "missing_id_token",
		})
	}

	tokens := &identity.TokenSet{
		AccessToken:  parsed.AccessToken,
		IDToken:      parsed.IDToken,
		RefreshToken: parsed.RefreshToken,
		TokenType:    parsed.TokenType,
		Scopes:       c.config.Scopes,
	}
	if parsed.ExpiresIn > 0 {
		tokens.ExpiresAt = c.now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	}

	return tokens, nil
}

func (c *Client) revoke(ctx context.Context, refreshToken string) error {
	data := url.Values{
		"token":     {refreshToken},
		"client_id": {c.config.ClientID},
	}
	if c.config.ClientSecret != "" {
		data.Set("client_secret", c.config.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.RevokeURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cognito: revoke returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) resolveKeyFunc() (jwt.Keyfunc, error) {
	if c.keyFunc != nil {
		return c.keyFunc, nil
	}

	if c.jwks == nil {
		jwks, err := keyfunc.Get(c.config.JWKSURL, keyfunc.Options{
			Client:            c.httpClient,
			RefreshInterval:   time.Hour,
			RefreshTimeout:    time.Second * 10,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "failed to load pool JWK set")
		}
		c.jwks = jwks
	}

	return c.jwks.Keyfunc, nil
}
