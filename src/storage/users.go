package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// GetUserByID retrieves a user by its ID
func GetUserByID(ctx context.Context, db sqlscan.Querier, userID string) (*User, error) {
	query := `SELECT id, name, email, created_at FROM users WHERE id = ?`
	var u User
	err := sqlscan.Get(ctx, db, &u, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email, nil when no user exists
func GetUserByEmail(ctx context.Context, db sqlscan.Querier, email string) (*User, error) {
	query := `SELECT id, name, email, created_at FROM users WHERE email = ?`
	var u User
	err := sqlscan.Get(ctx, db, &u, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser creates a new user record
func CreateUser(ctx context.Context, db Execer, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query := `INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.CreatedAt)
	return err
}

// GetSessionByToken retrieves the session referencing the given bearer token
func GetSessionByToken(ctx context.Context, db sqlscan.Querier, token string) (*Session, error) {
	query := `SELECT id, user_id, token, expires_at, created_at FROM sessions WHERE token = ?`
	var s Session
	err := sqlscan.Get(ctx, db, &s, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &s, nil
}

// CreateSession creates a new session binding a token to a user
func CreateSession(ctx context.Context, db Execer, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `INSERT INTO sessions (id, user_id, token, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, session.ID, session.UserID, session.Token, session.ExpiresAt, session.CreatedAt)
	return err
}

// DeleteSessionByToken removes the session referencing the given token
func DeleteSessionByToken(ctx context.Context, db Execer, token string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}
