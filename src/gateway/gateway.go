// Package gateway drives one model invocation: it streams text fragments to
// the caller, runs requested tool calls, and folds everything into a single
// result.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SohailShaikh7860/ai-agent-cli/src/aisdk"
	"github.com/SohailShaikh7860/ai-agent-cli/src/toolkit"
)

// DefaultMaxToolSteps bounds tool-use rounds inside one invocation. Without
// a ceiling the model could loop on tools indefinitely; bounded latency wins
// over completeness.
const DefaultMaxToolSteps = 5

var (
	// ErrNoChoices indicates the API returned a response with no choices.
	ErrNoChoices = errors.New("no choices in model response")
)

// ChunkHandler receives each streamed text fragment, in arrival order, on
// the calling goroutine.
type ChunkHandler func(text string)

// ToolCallHandler is notified of each tool call as the model produces it.
type ToolCallHandler func(call *aisdk.ToolCall)

// Result is the transient aggregate of one model invocation. It exists only
// until it is reduced to a persisted message.
type Result struct {
	Content      string
	FinishReason string
	Usage        aisdk.Usage
	ToolCalls    []aisdk.ToolCall
	ToolResults  []*aisdk.ToolResponse
}

// Gateway sends message histories to the hosted model.
type Gateway struct {
	Client       aisdk.Client
	Model        string
	Temperature  *float64
	MaxTokens    *int
	MaxToolSteps int
	Logger       *slog.Logger
}

// New creates a gateway bound to a model identifier.
func New(client aisdk.Client, model string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		Client:       client,
		Model:        model,
		MaxToolSteps: DefaultMaxToolSteps,
		Logger:       logger.With("component", "gateway"),
	}
}

// SendMessage sends the full ordered history to the model and streams the
// response. When selection has enabled tools the model may interleave tool
// invocations with generation, capped at MaxToolSteps rounds; the final
// round omits the tool declarations so a text answer is forced. Transport
// and API failures abort the call and propagate; retry policy belongs to
// the caller.
func (g *Gateway) SendMessage(ctx context.Context, messages []*aisdk.Message, onChunk ChunkHandler, selection *toolkit.Selection, onToolCall ToolCallHandler) (*Result, error) {
	if onChunk == nil {
		onChunk = func(string) {}
	}

	maxToolSteps := g.MaxToolSteps
	if maxToolSteps <= 0 {
		maxToolSteps = DefaultMaxToolSteps
	}

	working := make([]*aisdk.Message, len(messages))
	copy(working, messages)

	result := &Result{}
	var content strings.Builder
	toolSteps := 0

	for {
		req := &aisdk.ChatCompletionRequest{
			Model:       g.Model,
			Messages:    working,
			Temperature: g.Temperature,
			MaxTokens:   g.MaxTokens,
		}
		includeTools := selection != nil && toolSteps < maxToolSteps
		if includeTools {
			req.Tools = selection.ChatTools()
		}

		response, err := g.streamCompletion(ctx, req, onChunk)
		if err != nil {
			g.Logger.Error("model call failed", "error", err)
			return nil, err
		}

		if len(response.Choices) == 0 {
			return nil, ErrNoChoices
		}
		choice := response.Choices[0]
		result.Usage.Add(response.Usage)
		result.FinishReason = choice.FinishReason

		if choice.Message.Content != "" {
			if content.Len() > 0 {
				content.WriteString("\n\n")
			}
			content.WriteString(choice.Message.Content)
		}

		toolCalls := choice.Message.ToolCalls
		if len(toolCalls) == 0 || !includeTools {
			// The forced final round ignores any stray tool calls.
			break
		}

		// One tool-use step: run every call the model requested this round.
		toolSteps++
		g.Logger.Debug("executing tool calls", "count", len(toolCalls), "step", toolSteps)

		assistantMsg := &aisdk.Message{
			Role:      "assistant",
			Content:   choice.Message.Content,
			ToolCalls: toolCalls,
		}
		working = append(working, assistantMsg)

		for i := range toolCalls {
			call := &toolCalls[i]
			if onToolCall != nil {
				onToolCall(call)
			}
			result.ToolCalls = append(result.ToolCalls, *call)

			toolResp := g.executeToolCall(ctx, selection, call)
			result.ToolResults = append(result.ToolResults, toolResp)

			working = append(working, &aisdk.Message{
				Role:       "tool",
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    string(toolResp.Content),
			})
		}
	}

	result.Content = content.String()
	return result, nil
}

// GetMessage discards incremental chunks and returns only the final
// aggregated text.
func (g *Gateway) GetMessage(ctx context.Context, messages []*aisdk.Message) (string, error) {
	result, err := g.SendMessage(ctx, messages, nil, nil, nil)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// streamCompletion opens the stream and folds chunks into a response,
// forwarding text deltas as they arrive.
func (g *Gateway) streamCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest, onChunk ChunkHandler) (*aisdk.ChatCompletionResponse, error) {
	stream, err := g.Client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}

	aggregator := aisdk.NewStreamAggregator()
	err = aisdk.StreamToCallback(stream, func(chunk *aisdk.StreamChunk) error {
		aggregator.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta != nil && chunk.Choices[0].Delta.Content != "" {
			onChunk(chunk.Choices[0].Delta.Content)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stream failed: %w", err)
	}

	return aggregator.ToResponse(), nil
}

// executeToolCall runs one tool call; failures become error responses so the
// model can see what went wrong and continue.
func (g *Gateway) executeToolCall(ctx context.Context, selection *toolkit.Selection, call *aisdk.ToolCall) *aisdk.ToolResponse {
	if selection == nil {
		return &aisdk.ToolResponse{
			Type:    "error",
			Content: []byte(fmt.Sprintf("tool %s is not available", call.Function.Name)),
			IsError: true,
		}
	}

	resp, err := selection.Execute(ctx, call)
	if err != nil {
		g.Logger.Warn("tool execution failed", "tool", call.Function.Name, "error", err)
		return &aisdk.ToolResponse{
			Type:    "error",
			Content: []byte(err.Error()),
			IsError: true,
		}
	}
	return resp
}
