package main

import (
	"context"
	"fmt"

	"github.com/SohailShaikh7860/ai-agent-cli/src/app"
	"github.com/SohailShaikh7860/ai-agent-cli/src/storage"
	"github.com/charmbracelet/lipgloss"
)

var (
	convIDStyle    = lipgloss.NewStyle().Faint(true)
	convTitleStyle = lipgloss.NewStyle().Bold(true)
	convMetaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// ConversationsCmd lists the authenticated user's recent conversations.
type ConversationsCmd struct {
	Limit int `help:"Maximum conversations to show" default:"20"`
}

func (c *ConversationsCmd) Run(cli *CLI) error {
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

	conversations, err := storage.ListConversationsByUser(ctx, a.Store.DB(), user.ID, c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Println("No conversations yet. Start one with: aiagent chat")
		return nil
	}

	for _, conv := range conversations {
		fmt.Printf("%s  %s  %s\n",
			convIDStyle.Render(conv.ID),
			convTitleStyle.Render(conv.Title),
			convMetaStyle.Render(fmt.Sprintf("[%s] %s", conv.Mode, conv.UpdatedAt.Format("2006-01-02 15:04"))),
		)
	}
	return nil
}
