package ridepool

import (
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/joho/godotenv"
)

// Config carries the identity provider and API settings. It is constructed
// explicitly once at startup and passed to the identity client and profile
// service client; nothing reads ambient globals at runtime.
type Config struct {
	Region          string   `json:"region"`
	UserPoolID      string   `json:"user_pool_id"`
	ClientID        string   `json:"client_id"`
	OAuthDomain     string   `json:"oauth_domain"`
	Scopes          []string `json:"scopes"`
	RedirectSignIn  string   `json:"redirect_sign_in"`
	RedirectSignOut string   `json:"redirect_sign_out"`
	ResponseType    string   `json:"response_type"`
	APIEndpoint     string   `json:"api_endpoint"`
}

// DefaultScopes returns the scopes requested from the hosted UI.
func DefaultScopes() []string {
	return []string{"email", "profile", "openid", "phone"}
}

// Validate will validate the configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Region, validation.Required),
		validation.Field(&c.UserPoolID, validation.Required),
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.OAuthDomain, validation.Required),
		validation.Field(&c.RedirectSignIn, validation.Required, is.URL),
		validation.Field(&c.RedirectSignOut, validation.Required, is.URL),
		validation.Field(&c.ResponseType, validation.Required, validation.In("code", "token")),
		validation.Field(&c.APIEndpoint, validation.Required, is.URL),
	)
}

// ConfigFromEnv loads configuration from the environment, reading a .env
// file first when one is present.
func ConfigFromEnv() (Config, error) {
	// missing .env is fine, the environment may be set by the runtime
	_ = godotenv.Load()

	cfg := Config{
		Region:          os.Getenv("RIDEPOOL_REGION"),
		UserPoolID:      os.Getenv("RIDEPOOL_USER_POOL_ID"),
		ClientID:        os.Getenv("RIDEPOOL_CLIENT_ID"),
		OAuthDomain:     os.Getenv("RIDEPOOL_OAUTH_DOMAIN"),
		RedirectSignIn:  os.Getenv("RIDEPOOL_REDIRECT_SIGN_IN"),
		RedirectSignOut: os.Getenv("RIDEPOOL_REDIRECT_SIGN_OUT"),
		ResponseType:    os.Getenv("RIDEPOOL_RESPONSE_TYPE"),
		APIEndpoint:     os.Getenv("RIDEPOOL_API_ENDPOINT"),
	}

	if scopes := os.Getenv("RIDEPOOL_SCOPES"); scopes != "" {
		for _, s := range strings.Split(scopes, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Scopes = append(cfg.Scopes, s)
			}
		}
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.ResponseType == "" {
		cfg.ResponseType = "code"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
