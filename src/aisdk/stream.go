package aisdk

import (
	"errors"
	"io"
	"sort"
	"strings"
)

// StreamCallback is a function called for each chunk in a stream.
type StreamCallback func(chunk *StreamChunk) error

// StreamToCallback reads a stream and calls the callback for each chunk.
func StreamToCallback(stream StreamInterface, callback StreamCallback) error {
	defer stream.Close()

	for {
		chunk, err := stream.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil // End of stream
			}
			return err
		}

		if chunk == nil {
			return nil // End of stream
		}

		if err := callback(chunk); err != nil {
			return err
		}
	}
}

// CollectStreamContent reads a stream and collects all content into a single string.
func CollectStreamContent(stream StreamInterface) (string, error) {
	var content strings.Builder

	err := StreamToCallback(stream, func(chunk *StreamChunk) error {
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta != nil {
			content.WriteString(chunk.Choices[0].Delta.Content)
		}
		return nil
	})

	return content.String(), err
}

// StreamAggregator folds streamed chunks into a final response. Deltas arrive
// in order from a single producer, so no synchronization is needed.
type StreamAggregator struct {
	ID      string
	Object  string
	Created int64
	Model   string
	Content strings.Builder

	// Tracking state
	FinishReason string
	Usage        *Usage

	// Partial tool calls keyed by stream index; arguments arrive in fragments.
	toolCalls map[int]*ToolCall
}

// NewStreamAggregator creates a new stream aggregator.
func NewStreamAggregator() *StreamAggregator {
	return &StreamAggregator{
		Object:    "chat.completion",
		toolCalls: make(map[int]*ToolCall),
	}
}

// AddChunk processes a stream chunk and updates the aggregated state.
func (a *StreamAggregator) AddChunk(chunk *StreamChunk) {
	if a.ID == "" {
		a.ID = chunk.ID
	}
	if a.Created == 0 {
		a.Created = chunk.Created
	}
	if a.Model == "" {
		a.Model = chunk.Model
	}
	if chunk.Usage != nil {
		a.Usage = chunk.Usage
	}

	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]

	if choice.Delta != nil {
		if choice.Delta.Content != "" {
			a.Content.WriteString(choice.Delta.Content)
		}
		for _, tc := range choice.Delta.ToolCalls {
			a.addToolCallDelta(tc)
		}
	}

	if choice.FinishReason != "" {
		a.FinishReason = choice.FinishReason
	}
}

func (a *StreamAggregator) addToolCallDelta(tc ToolCall) {
	existing, ok := a.toolCalls[tc.Index]
	if !ok {
		copied := tc
		a.toolCalls[tc.Index] = &copied
		return
	}
	if tc.ID != "" {
		existing.ID = tc.ID
	}
	if tc.Type != "" {
		existing.Type = tc.Type
	}
	if tc.Function.Name != "" {
		existing.Function.Name = tc.Function.Name
	}
	if len(tc.Function.Arguments) > 0 {
		existing.Function.Arguments = append(existing.Function.Arguments, tc.Function.Arguments...)
	}
}

// ToolCalls returns the accumulated tool calls in stream index order.
func (a *StreamAggregator) ToolCalls() []ToolCall {
	if len(a.toolCalls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(a.toolCalls))
	for i := range a.toolCalls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	calls := make([]ToolCall, 0, len(indexes))
	for _, i := range indexes {
		tc := *a.toolCalls[i]
		if tc.Type == "" {
			tc.Type = "function"
		}
		calls = append(calls, tc)
	}
	return calls
}

// ToResponse converts the aggregated stream into a ChatCompletionResponse.
func (a *StreamAggregator) ToResponse() *ChatCompletionResponse {
	response := &ChatCompletionResponse{
		ID:      a.ID,
		Object:  a.Object,
		Created: a.Created,
		Model:   a.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: Message{
					Role:      "assistant",
					Content:   a.Content.String(),
					ToolCalls: a.ToolCalls(),
				},
				FinishReason: a.FinishReason,
			},
		},
	}

	if a.Usage != nil {
		response.Usage = *a.Usage
	}

	return response
}

// AggregateStream reads a stream and returns the aggregated response.
func AggregateStream(stream StreamInterface) (*ChatCompletionResponse, error) {
	aggregator := NewStreamAggregator()

	err := StreamToCallback(stream, func(chunk *StreamChunk) error {
		aggregator.AddChunk(chunk)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return aggregator.ToResponse(), nil
}
