package modelapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/SohailShaikh7860/ai-agent-cli/src/aisdk"
)

// sseStream reads chat completion chunks from a server-sent events body.
// Lines arrive as `data: {json}` with a final `data: [DONE]` terminator.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

var _ aisdk.StreamInterface = (*sseStream)(nil)

func newSSEStream(body io.ReadCloser) *sseStream {
	scanner := bufio.NewScanner(body)
	// Single chunks can exceed the default 64KB token limit on long tool
	// call arguments.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseStream{
		body:    body,
		scanner: scanner,
	}
}

// Read returns the next chunk, or io.EOF when the stream terminates.
func (s *sseStream) Read() (*aisdk.StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			s.done = true
			return nil, io.EOF
		}

		var chunk aisdk.StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		return &chunk, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("stream read failed: %w", err)
	}

	s.done = true
	return nil, io.EOF
}

// Close closes the underlying response body.
func (s *sseStream) Close() error {
	return s.body.Close()
}
