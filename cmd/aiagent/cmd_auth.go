package main

import (
	"context"
	"fmt"
	"time"

	"github.com/SohailShaikh7860/ai-agent-cli/src/app"
	"github.com/SohailShaikh7860/ai-agent-cli/src/auth"
	"github.com/SohailShaikh7860/ai-agent-cli/src/storage"
	"github.com/google/uuid"
)

// sessionTTL is how long a freshly issued session stays valid.
const sessionTTL = 30 * 24 * time.Hour

// LoginCmd authenticates the user. With --token it adopts an existing
// session token; otherwise it registers the user locally and issues a
// new session.
type LoginCmd struct {
	Token string `help:"Adopt an existing session token instead of creating one"`
	Name  string `help:"Display name when registering" default:""`
	Email string `help:"Email when registering" default:""`
}

func (c *LoginCmd) Run(cli *CLI) error {
	logger := createCLILogger(cli.LogLevel)
	ctx := context.Background()

	a, err := app.New(ctx, app.Options{
		ConfigPath:   cli.Config,
		DatabasePath: cli.Database,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	db := a.Store.DB()

	var token string
	var expiresAt *time.Time

	if c.Token != "" {
		// The token must resolve to a live session before it is stored.
		session, err := storage.GetSessionByToken(ctx, db, c.Token)
		if err != nil {
			return fmt.Errorf("failed to look up session: %w", err)
		}
		if session == nil {
			return auth.ErrSessionInvalid
		}
		if session.Expired() {
			return auth.ErrSessionExpired
		}
		token = session.Token
		expiresAt = session.ExpiresAt
	} else {
		if c.Email == "" {
			return fmt.Errorf("either --token or --email is required")
		}

		user, err := storage.GetUserByEmail(ctx, db, c.Email)
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		if user == nil {
			name := c.Name
			if name == "" {
				name = c.Email
			}
			user = &storage.User{Name: name, Email: c.Email}
			if err := storage.CreateUser(ctx, db, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			logger.Info("registered user", "user_id", user.ID, "email", user.Email)
		}

		expiry := time.Now().Add(sessionTTL)
		session := &storage.Session{
			UserID:    user.ID,
			Token:     uuid.New().String(),
			ExpiresAt: &expiry,
		}
		if err := storage.CreateSession(ctx, db, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		token = session.Token
		expiresAt = session.ExpiresAt
	}

	cred := &auth.Credential{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}
	if err := a.Credentials.Save(cred); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	user, err := a.Resolver.ResolveUser(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

// LogoutCmd removes stored credentials and deletes the backing session.
type LogoutCmd struct{}

func (c *LogoutCmd) Run(cli *CLI) error {
	logger := createCLILogger(cli.LogLevel)
	ctx := context.Background()

	a, err := app.New(ctx, app.Options{
		ConfigPath:   cli.Config,
		DatabasePath: cli.Database,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	cred, err := a.Credentials.Load()
	if err != nil {
		return err
	}
	if cred != nil {
		if err := storage.DeleteSessionByToken(ctx, a.Store.DB(), cred.AccessToken); err != nil {
			logger.Warn("failed to delete session", "error", err)
		}
	}

	if err := a.Credentials.Delete(); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	fmt.Println("Logged out")
	return nil
}

// WhoamiCmd prints the authenticated user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(cli *CLI) error {
	logger := createCLILogger(cli.LogLevel)
	ctx := context.Background()

	a, err := app.New(ctx, app.Options{
		ConfigPath:   cli.Config,
		DatabasePath: cli.Database,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Resolver.CurrentUser(ctx, a.Credentials)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	return nil
}
