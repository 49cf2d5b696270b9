package main

import (
	"context"
	"errors"
	"os"

	"github.com/SohailShaikh7860/ai-agent-cli/src/app"
	"github.com/SohailShaikh7860/ai-agent-cli/src/chat"
	"github.com/SohailShaikh7860/ai-agent-cli/src/toolkit"
)

// ChatCmd starts an interactive session.
type ChatCmd struct {
	Resume   string `help:"Conversation ID to resume" short:"r"`
	Mode     string `help:"Conversation mode (chat, tool, agent); prompted when unset" enum:",chat,tool,agent" default:""`
	NoPrompt bool   `help:"Skip the mode prompt and use the configured default mode"`
}

func (c *ChatCmd) Run(cli *CLI) error {
	logger := createSessionLogger(cli.LogLevel)

	ctx := context.Background()
	a, err := app.New(ctx, app.Options{
		ConfigPath:   cli.Config,
		DatabasePath: cli.Database,
		APIKey:       cli.APIKey,
		BaseURL:      cli.BaseURL,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	loop := &chat.Loop{
		DB:          a.Store.DB(),
		Credentials: a.Credentials,
		Resolver:    a.Resolver,
		Gateway:     a.Gateway,
		Generator:   a.Generator,
		Selection:   toolkit.NewSelection(a.Catalog),
		Prompter:    chat.NewStdinPrompter(os.Stdin, os.Stdout),
		Renderer:    chat.NewGlamourRenderer(os.Stdout),
		Output:      os.Stdout,
		WorkingDir:  a.WorkingDir,
		Logger:      logger,
	}

	mode := c.Mode
	if mode == "" && c.NoPrompt {
		mode = a.Config.DefaultMode
	}

	err = loop.Run(ctx, chat.RunOptions{
		ConversationID: c.Resume,
		Mode:           mode,
	})
	if errors.Is(err, chat.ErrInterrupted) {
		// Ctrl-D ends the session cleanly.
		return nil
	}
	return err
}
