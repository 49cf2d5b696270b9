package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SohailShaikh7860/ai-agent-cli/src/storage"
)

var (
	// ErrNotAuthenticated indicates there is no usable credential.
	ErrNotAuthenticated = errors.New("not authenticated, please log in")

	// ErrSessionExpired indicates the credential or its server session expired.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrSessionInvalid indicates the token resolves to no active session.
	ErrSessionInvalid = errors.New("session is no longer valid, please log in again")
)

// Resolver maps an access token to its authenticated user through the
// session table. Read-only over server session state.
type Resolver struct {
	db     storage.ExecQuerier
	logger *slog.Logger
}

// NewResolver creates a resolver over the given database handle.
func NewResolver(db storage.ExecQuerier, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{db: db, logger: logger.With("component", "session_resolver")}
}

// ResolveUser finds the active session referencing accessToken and returns
// its user.
func (r *Resolver) ResolveUser(ctx context.Context, accessToken string) (*storage.User, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}

	session, err := storage.GetSessionByToken(ctx, r.db, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		r.logger.Debug("no session for token")
		return nil, ErrSessionInvalid
	}
	if session.Expired() {
		r.logger.Debug("session expired", "session_id", session.ID)
		return nil, ErrSessionExpired
	}

	user, err := storage.GetUserByID(ctx, r.db, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionInvalid
	}

	r.logger.Debug("resolved user", "user_id", user.ID)
	return user, nil
}

// CurrentUser loads the credential from store, rejects absent or expired
// ones, and resolves the user. This is the auth gate every privileged
// command goes through.
func (r *Resolver) CurrentUser(ctx context.Context, store *CredentialStore) (*storage.User, error) {
	cred, err := store.Load()
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNotAuthenticated
	}
	if cred.IsExpired() {
		return nil, ErrSessionExpired
	}
	return r.ResolveUser(ctx, cred.AccessToken)
}
