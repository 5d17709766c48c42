package identity

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// TokenSet is the credential bundle returned by a hosted UI token exchange.
type TokenSet struct {
	AccessToken  string    `json:"access_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Expired reports whether the access token lifetime has passed.
func (t *TokenSet) Expired(now time.Time) bool {
	if t == nil {
		return true
	}
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// TokenStore persists the token set between loads. Persistence is the
// identity client's concern; the application core never touches tokens.
type TokenStore interface {
	Load() (*TokenSet, error)
	Save(*TokenSet) error
	Clear() error
}

// MemoryStore keeps the token set for the lifetime of the process.
type MemoryStore struct {
	tokens *TokenSet
}

var _ TokenStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*TokenSet, error) {
	if s.tokens == nil {
		return nil, ErrNoTokens
	}
	t := *s.tokens
	return &t, nil
}

func (s *MemoryStore) Save(tokens *TokenSet) error {
	if tokens == nil {
		return s.Clear()
	}
	t := *tokens
	s.tokens = &t
	return nil
}

func (s *MemoryStore) Clear() error {
	s.tokens = nil
	return nil
}

// FileStore keeps the token set in a JSON file so a session survives process
// restarts, which is what makes the redirect round-trip observable.
type FileStore struct {
	path string
}

var _ TokenStore = (*FileStore)(nil)

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*TokenSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoTokens
		}
		return nil, err
	}

	var tokens TokenSet
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, err
	}
	if tokens.IDToken == "" && tokens.AccessToken == "" && tokens.RefreshToken == "" {
		return nil, ErrNoTokens
	}

	return &tokens, nil
}

func (s *FileStore) Save(tokens *TokenSet) error {
	if tokens == nil {
		return s.Clear()
	}

	data, err := json.Marshal(tokens)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
