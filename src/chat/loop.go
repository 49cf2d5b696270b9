// Package chat runs the interactive session loop: authenticate, pick mode
// and tools, resume or create a conversation, then relay turns between the
// user and the model gateway, persisting every message.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SohailShaikh7860/ai-agent-cli/src/aisdk"
	"github.com/SohailShaikh7860/ai-agent-cli/src/auth"
	"github.com/SohailShaikh7860/ai-agent-cli/src/gateway"
	"github.com/SohailShaikh7860/ai-agent-cli/src/generator"
	"github.com/SohailShaikh7860/ai-agent-cli/src/storage"
	"github.com/SohailShaikh7860/ai-agent-cli/src/toolkit"
)

// exitSentinel ends the session when typed as input.
const exitSentinel = "exit"

// errorMarkerPrefix marks assistant messages that record a failed turn.
const errorMarkerPrefix = "[error] "

// Loop is the session orchestrator. All collaborators are injected; nothing
// is constructed lazily or held in package state.
type Loop struct {
	DB          storage.ExecQuerier
	Credentials *auth.CredentialStore
	Resolver    *auth.Resolver
	Gateway     *gateway.Gateway
	Generator   *generator.Generator
	Selection   *toolkit.Selection
	Prompter    Prompter
	Renderer    Renderer
	Output      io.Writer
	WorkingDir  string
	Logger      *slog.Logger
}

// RunOptions carries the per-invocation parameters.
type RunOptions struct {
	// ConversationID resumes an existing conversation when it resolves to
	// one owned by the authenticated user; otherwise a new one is created.
	ConversationID string

	// Mode skips the mode prompt when set. Must be one of the closed mode
	// set when non-empty.
	Mode string
}

// Run drives one session from authentication to termination. The tool
// selection is reset on every exit path so no enabled-tool state survives
// into the next invocation.
func (l *Loop) Run(ctx context.Context, opts RunOptions) error {
	defer l.Selection.Reset()

	if l.Logger == nil {
		l.Logger = slog.Default()
	}
	if l.Output == nil {
		l.Output = io.Discard
	}

	// Authenticate before touching any conversation state.
	user, err := l.Resolver.CurrentUser(ctx, l.Credentials)
	if err != nil {
		return err
	}
	l.Logger.Info("session authenticated", "user_id", user.ID)

	mode, err := l.selectMode(opts.Mode)
	if err != nil {
		return err
	}

	if mode == storage.ModeTool {
		if err := l.selectTools(); err != nil {
			return err
		}
	}

	conv, err := storage.GetOrCreateConversation(ctx, l.DB, user.ID, opts.ConversationID, mode)
	if err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}
	l.Logger.Info("conversation ready", "conversation_id", conv.ID, "mode", conv.Mode, "history", len(conv.Messages))

	history := storage.FormatMessages(conv.Messages)

	l.showInstructions(conv)

	for {
		input, err := l.Prompter.Input("you")
		if err != nil {
			if errors.Is(err, ErrInterrupted) {
				fmt.Fprintln(l.Output, "\nGoodbye!")
				return ErrInterrupted
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			// Validation failures never leave the prompt boundary.
			continue
		}
		if strings.EqualFold(input, exitSentinel) {
			fmt.Fprintln(l.Output, "Goodbye!")
			return nil
		}

		if err := l.processTurn(ctx, conv, &history, input); err != nil {
			return err
		}
	}
}

// processTurn persists the user message, invokes the gateway (or the
// generator in agent mode), persists the response, and sets the title on
// the first turn. Gateway and generation failures become a user decision:
// retry the same input or stop.
func (l *Loop) processTurn(ctx context.Context, conv *storage.Conversation, history *[]*aisdk.Message, input string) error {
	userMsg := &storage.Message{
		ConversationID: conv.ID,
		Role:           storage.RoleUser,
		Content:        input,
	}
	if err := storage.CreateMessage(ctx, l.DB, userMsg); err != nil {
		return fmt.Errorf("failed to save user message: %w", err)
	}
	*history = append(*history, &aisdk.Message{Role: storage.RoleUser, Content: input})

	// The title comes from the first user message and never changes after.
	// A count failure only skips the title; the turn still proceeds.
	count, err := storage.CountMessages(ctx, l.DB, conv.ID)
	if err != nil {
		l.Logger.Warn("failed to count messages", "conversation_id", conv.ID, "error", err)
	} else if count == 1 {
		title := storage.DeriveTitle(input)
		if err := storage.UpdateConversationTitle(ctx, l.DB, conv.ID, title); err != nil {
			l.Logger.Warn("failed to update conversation title", "error", err)
		} else {
			conv.Title = title
		}
	}

	for {
		var reply string
		var err error
		if conv.Mode == storage.ModeAgent {
			reply, err = l.generateTurn(ctx, input)
		} else {
			reply, err = l.modelTurn(ctx, conv, *history)
		}

		if err == nil {
			assistantMsg := &storage.Message{
				ConversationID: conv.ID,
				Role:           storage.RoleAssistant,
				Content:        reply,
			}
			if err := storage.CreateMessage(ctx, l.DB, assistantMsg); err != nil {
				return fmt.Errorf("failed to save assistant message: %w", err)
			}
			*history = append(*history, &aisdk.Message{Role: storage.RoleAssistant, Content: reply})

			if err := storage.TouchConversation(ctx, l.DB, conv.ID); err != nil {
				l.Logger.Warn("failed to touch conversation", "error", err)
			}
			return nil
		}

		l.Logger.Error("turn failed", "conversation_id", conv.ID, "error", err)

		marker := errorMarkerPrefix + err.Error()
		errMsg := &storage.Message{
			ConversationID: conv.ID,
			Role:           storage.RoleAssistant,
			Content:        marker,
		}
		if serr := storage.CreateMessage(ctx, l.DB, errMsg); serr != nil {
			l.Logger.Warn("failed to save error marker", "error", serr)
		} else {
			*history = append(*history, &aisdk.Message{Role: storage.RoleAssistant, Content: marker})
		}

		retry, perr := l.Prompter.Confirm("Something went wrong. Retry?")
		if perr != nil {
			return perr
		}
		if !retry {
			return err
		}
	}
}

// modelTurn sends the full history to the gateway, streaming text as it
// arrives and rendering the finished message once the stream ends. Tools go
// along only in tool mode.
func (l *Loop) modelTurn(ctx context.Context, conv *storage.Conversation, history []*aisdk.Message) (string, error) {
	var selection *toolkit.Selection
	if conv.Mode == storage.ModeTool {
		selection = l.Selection
	}

	onChunk := func(text string) {
		fmt.Fprint(l.Output, text)
	}
	onToolCall := func(call *aisdk.ToolCall) {
		fmt.Fprintf(l.Output, "\n%s\n", hintStyle.Render("running tool: "+call.Function.Name))
	}

	result, err := l.Gateway.SendMessage(ctx, history, onChunk, selection, onToolCall)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(l.Output)

	// The raw stream above is live feedback; the complete message gets a
	// formatted pass once it has fully arrived.
	if rerr := l.Renderer.Render(result.Content); rerr != nil {
		l.Logger.Warn("failed to render reply", "error", rerr)
	}

	l.Logger.Debug("model turn complete",
		"finish_reason", result.FinishReason,
		"tool_calls", len(result.ToolCalls),
		"tokens", result.Usage.TotalTokens)

	return result.Content, nil
}

// generateTurn scaffolds an application from the prompt and reports a
// structured summary as the assistant message.
func (l *Loop) generateTurn(ctx context.Context, input string) (string, error) {
	fmt.Fprintln(l.Output, hintStyle.Render("generating application..."))

	result, err := l.Generator.Generate(ctx, generator.Request{
		Prompt:     input,
		WorkingDir: l.WorkingDir,
	})
	if err != nil {
		return "", err
	}

	summary := formatGenerationSummary(result)
	if rerr := l.Renderer.Render(summary); rerr != nil {
		l.Logger.Warn("failed to render summary", "error", rerr)
	}
	return summary, nil
}

func formatGenerationSummary(result *generator.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generated **%d files** in `%s`\n", len(result.Files), result.OutputDir)
	for _, f := range result.Files {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}
	if len(result.SetupCommands) > 0 {
		b.WriteString("\nTo get started:\n```\n")
		for _, cmd := range result.SetupCommands {
			b.WriteString(cmd + "\n")
		}
		b.WriteString("```\n")
	}
	return b.String()
}

// selectMode resolves the conversation mode from the flag or the prompt.
func (l *Loop) selectMode(mode string) (string, error) {
	if mode != "" {
		if !storage.ValidMode(mode) {
			return "", fmt.Errorf("invalid mode: %q (must be chat, tool, or agent)", mode)
		}
		return mode, nil
	}

	options := []string{
		"chat  - plain conversation",
		"tool  - conversation with tools",
		"agent - generate an application",
	}
	idx, err := l.Prompter.Select("Choose a mode", options)
	if err != nil {
		return "", err
	}
	return []string{storage.ModeChat, storage.ModeTool, storage.ModeAgent}[idx], nil
}

// selectTools lets the user enable tools from the catalog. Empty selection
// is valid: the session proceeds without tools, with a warning.
func (l *Loop) selectTools() error {
	descriptors := l.Selection.Catalog().Descriptors()
	options := make([]string, len(descriptors))
	ids := make([]string, len(descriptors))
	for i, d := range descriptors {
		options[i] = fmt.Sprintf("%s - %s", d.ID, firstLine(d.Description))
		ids[i] = d.ID
	}

	picked, err := l.Prompter.MultiSelect("Select tools to enable", options)
	if err != nil {
		return err
	}

	if len(picked) == 0 {
		fmt.Fprintln(l.Output, hintStyle.Render("no tools selected, proceeding without tools"))
		return nil
	}

	enabled := make([]string, len(picked))
	for i, idx := range picked {
		enabled[i] = ids[idx]
	}
	if err := l.Selection.Enable(enabled...); err != nil {
		return err
	}

	fmt.Fprintln(l.Output, hintStyle.Render("enabled tools: "+strings.Join(l.Selection.EnabledNames(), ", ")))
	return nil
}

func (l *Loop) showInstructions(conv *storage.Conversation) {
	fmt.Fprintln(l.Output, labelStyle.Render(fmt.Sprintf("conversation: %s (%s mode)", conv.Title, conv.Mode)))
	fmt.Fprintln(l.Output, hintStyle.Render("type your message and press enter; type 'exit' to end the session"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
