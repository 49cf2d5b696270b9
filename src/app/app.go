// Package app wires the services the CLI commands share: configuration,
// storage, the credential store, the model gateway, and the tool catalog.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/SohailShaikh7860/ai-agent-cli/src/auth"
	"github.com/SohailShaikh7860/ai-agent-cli/src/config"
	"github.com/SohailShaikh7860/ai-agent-cli/src/gateway"
	"github.com/SohailShaikh7860/ai-agent-cli/src/generator"
	"github.com/SohailShaikh7860/ai-agent-cli/src/modelapi"
	"github.com/SohailShaikh7860/ai-agent-cli/src/storage"
	"github.com/SohailShaikh7860/ai-agent-cli/src/toolkit"
	"github.com/SohailShaikh7860/ai-agent-cli/src/toolkit/tools"
)

// App holds every service a command needs, initialized once per invocation.
type App struct {
	Config      *config.Config
	Store       *storage.DB
	Credentials *auth.CredentialStore
	Resolver    *auth.Resolver
	Gateway     *gateway.Gateway
	Generator   *generator.Generator
	Catalog     *toolkit.Catalog
	WorkingDir  string
	Logger      *slog.Logger
}

// Options controls App construction. Zero values fall back to defaults
// from the config package.
type Options struct {
	ConfigPath     string
	DatabasePath   string
	CredentialPath string
	APIKey         string
	BaseURL        string
	WorkingDir     string
	Logger         *slog.Logger
}

// New builds the application container. The database is opened and migrated
// here so every command sees the same schema.
func New(ctx context.Context, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	paths := config.GetDefaultStoragePaths()
	dbPath := opts.DatabasePath
	if dbPath == "" {
		dbPath = paths.DatabasePath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	credentials := auth.NewCredentialStore(opts.CredentialPath)
	resolver := auth.NewResolver(store.DB(), logger)

	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("AI_AGENT_API_KEY")
	}
	if apiKey == "" {
		// The model call itself may still succeed against a local endpoint
		// that ignores credentials; commands that need the key fail there.
		if cred, _ := credentials.Load(); cred != nil {
			apiKey = cred.AccessToken
		}
	}

	client := modelapi.NewClient(modelapi.Config{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		Logger:  logger,
	})

	gw := gateway.New(client, cfg.Model, logger)
	gw.Temperature = cfg.Temperature
	gw.MaxTokens = cfg.MaxTokens
	if cfg.MaxToolSteps > 0 {
		gw.MaxToolSteps = cfg.MaxToolSteps
	}

	workingDir := opts.WorkingDir
	if workingDir == "" {
		workingDir, _ = os.Getwd()
	}

	catalog, err := tools.DefaultCatalog()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to build tool catalog: %w", err)
	}

	return &App{
		Config:      cfg,
		Store:       store,
		Credentials: credentials,
		Resolver:    resolver,
		Gateway:     gw,
		Generator:   generator.New(gw, nil, logger),
		Catalog:     catalog,
		WorkingDir:  workingDir,
		Logger:      logger,
	}, nil
}

// Close releases resources held by the app.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
