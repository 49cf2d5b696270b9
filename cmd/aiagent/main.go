package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI is the command tree.
type CLI struct {
	APIKey   string `env:"AI_AGENT_API_KEY" help:"Model API key"`
	BaseURL  string `help:"Custom model API base URL"`
	Config   string `help:"Path to config file" type:"path"`
	Database string `help:"Path to the conversation database" type:"path"`
	LogLevel string `default:"warn" help:"Log level (debug, info, warn, error)"`

	Chat          ChatCmd          `cmd:"" default:"1" help:"Start an interactive session (default)"`
	Login         LoginCmd         `cmd:"" help:"Authenticate and store credentials"`
	Logout        LogoutCmd        `cmd:"" help:"Remove stored credentials and end the session"`
	Whoami        WhoamiCmd        `cmd:"" help:"Show the authenticated user"`
	Conversations ConversationsCmd `cmd:"" help:"List recent conversations"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("aiagent"),
		kong.Description("Terminal AI assistant with chat, tool, and agent modes"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
