// Package profileapi is a thin HTTP client for the ride pool profile
// resource. It performs no retries and no caching; the state machine caches
// what it needs and the service stays the source of truth.
package profileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/challengeschool/ridepool"
)

// Config holds profile service client settings.
type Config struct {
	// BaseURL is the API endpoint, e.g. https://api.example.com
	BaseURL string

	HTTPClient *http.Client
}

// Client issues profile CRUD calls against the REST resource.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ridepool.ProfileService = (*Client)(nil)

// New creates a profile service client.
func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: client,
	}
}

// userEnvelope is the echo shape write operations return. The contract is
// strict: a 2xx response without a decodable user object fails the call.
type userEnvelope struct {
	User *ridepool.Profile `json:"user"`
}

// Fetch retrieves the profile stored for the identifier. A 404 maps to
// ridepool.ErrProfileNotFound, which session evaluation treats as a valid
// data outcome rather than a failure.
func (c *Client) Fetch(ctx context.Context, identifier string) (*ridepool.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+identifier, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ridepool.ErrProfileNotFound.WithMetadata(map[string]any{
			"identifier": identifier,
		})
	}

	if resp.StatusCode != http.StatusOK {
		code, description, raw := parseServiceError(body)
		return nil, apiError("fetch", resp.StatusCode, code, description, nil, raw)
	}

	var profile ridepool.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, apiError("fetch", resp.StatusCode, "invalid_response", "failed to decode profile", err, nil)
	}

	return &profile, nil
}

// Create stores a new profile and returns the server echo.
func (c *Client) Create(ctx context.Context, profile *ridepool.Profile) (*ridepool.Profile, error) {
	return c.write(ctx, "create", http.MethodPost, profile)
}

// Update replaces the stored profile and returns the server echo.
func (c *Client) Update(ctx context.Context, profile *ridepool.Profile) (*ridepool.Profile, error) {
	return c.write(ctx, "update", http.MethodPut, profile)
}

// Delete removes the stored profile.
func (c *Client) Delete(ctx context.Context, identifier string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/users/"+identifier, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		code, description, raw := parseServiceError(body)
		return apiError("delete", resp.StatusCode, code, description, nil, raw)
	}

	return nil
}

func (c *Client) write(ctx context.Context, operation, method string, profile *ridepool.Profile) (*ridepool.Profile, error) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return nil, apiError(operation, 0, "invalid_request", "failed to encode profile", err, nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/users", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		code, description, raw := parseServiceError(body)
		return nil, apiError(operation, resp.StatusCode, code, description, nil, raw)
	}

	var envelope userEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apiError(operation, resp.StatusCode, "invalid_response", "failed to decode user envelope", err, nil)
	}
	if envelope.User == nil {
		return nil, apiError(operation, resp.StatusCode, "missing_user", "response did not echo the stored profile", nil, nil)
	}

	return envelope.User, nil
}
