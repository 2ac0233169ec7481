package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// expiryDelta treats tokens as expired slightly early so requests made with
// them do not race the real expiry.
const expiryDelta = 30 * time.Second

// Tokens is the credential set issued by the user pool.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// Valid reports whether the access and ID tokens are present and unexpired at now.
func (t Tokens) Valid(now time.Time) bool {
	if t.AccessToken == "" || t.IDToken == "" {
		return false
	}
	return t.Expiry.IsZero() || now.Add(expiryDelta).Before(t.Expiry)
}

// TokenFile persists the session tokens between runs.
type TokenFile struct {
	path string
}

// NewTokenFile returns a TokenFile at <dataDir>/auth/session.json.
func NewTokenFile(dataDir string) *TokenFile {
	return &TokenFile{path: filepath.Join(dataDir, "auth", "session.json")}
}

// Path returns the location of the token file.
func (f *TokenFile) Path() string {
	return f.path
}

// Load loads previously saved tokens. It returns nil, nil when none exist.
func (f *TokenFile) Load() (*Tokens, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok Tokens
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to sign in again): %w", f.path, err)
	}
	return &tok, nil
}

// Save persists tokens to disk.
func (f *TokenFile) Save(tok Tokens) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling tokens: %w", err)
	}
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Clear removes the token file.
func (f *TokenFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}
