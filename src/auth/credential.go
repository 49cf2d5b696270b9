// Package auth handles the locally persisted credential and the lookup from
// bearer token to authenticated user.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SohailShaikh7860/ai-agent-cli/src/config"
)

// expirySkew treats a credential expiring within this window as already
// expired, so a token never dies mid-conversation.
const expirySkew = 5 * time.Minute

// Credential is the locally persisted record of a prior successful login.
type Credential struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type"`
	Scope        string     `json:"scope,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsExpired reports whether the credential can no longer be used. A missing
// expiry counts as expired, and so does the exact skew boundary.
func (c *Credential) IsExpired() bool {
	if c.ExpiresAt == nil {
		return true
	}
	return time.Until(*c.ExpiresAt) < expirySkew
}

// CredentialStore reads and writes the credential file.
type CredentialStore struct {
	path string
}

// NewCredentialStore creates a store over the given file path; empty path
// falls back to the default XDG state location.
func NewCredentialStore(path string) *CredentialStore {
	if path == "" {
		path = config.GetDefaultStoragePaths().CredentialPath
	}
	return &CredentialStore{path: path}
}

// Load returns the persisted credential, or nil when the file is missing or
// unreadable. Absence is the unauthenticated state, not an error.
func (s *CredentialStore) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, nil
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, nil
	}
	return &cred, nil
}

// Save persists the credential with owner-only permissions.
func (s *CredentialStore) Save(cred *Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}
	if cred.TokenType == "" {
		cred.TokenType = "Bearer"
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// Delete removes the credential file. Deleting an absent file succeeds.
func (s *CredentialStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credential file: %w", err)
	}
	return nil
}
