package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/SohailShaikh7860/ai-agent-cli/src/toolkit"
)

// Tool name constant
const RunCodeName = "run_code"

const runCodePrompt = `Executes a short code snippet and returns its output.

WHEN TO USE THIS TOOL:
- Use for calculations, data transformations, or quick verification of logic
- Supported languages: python, bash

HOW TO USE:
- Provide the language and the code to run
- Optionally set a timeout in seconds (max 120, default 30)

LIMITATIONS:
- The snippet runs in a fresh process with no persistent state between calls
- Output is truncated beyond 30000 characters
- Long-running or interactive programs will be killed at the timeout`

const maxOutputLen = 30000

// RunCodeInput represents the parameters for run_code
type RunCodeInput struct {
	Language string `json:"language" required:"true" description:"The language to run the code in (python or bash)"`
	Code     string `json:"code" required:"true" description:"The code to execute"`
	Timeout  int    `json:"timeout,omitempty" description:"Optional timeout in seconds (max 120, default 30)"`
}

// RunCodeOutput represents the response from run_code
type RunCodeOutput struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

// RunCodeTool returns the run_code tool definition
func RunCodeTool() (toolkit.Tool, error) {
	return toolkit.NewGenericTool(RunCodeName, runCodePrompt, runCodeHandler)
}

func runCodeHandler(ctx context.Context, input RunCodeInput) (RunCodeOutput, error) {
	if input.Code == "" {
		return RunCodeOutput{}, fmt.Errorf("code parameter is required")
	}

	var interpreter string
	var ext string
	switch input.Language {
	case "python":
		interpreter = "python3"
		ext = ".py"
	case "bash":
		interpreter = "bash"
		ext = ".sh"
	default:
		return RunCodeOutput{}, fmt.Errorf("language must be one of: python, bash")
	}

	timeout := input.Timeout
	if timeout <= 0 {
		timeout = 30
	} else if timeout > 120 {
		timeout = 120
	}

	dir, err := os.MkdirTemp("", "aiagent-runcode-")
	if err != nil {
		return RunCodeOutput{}, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(dir)

	scriptPath := filepath.Join(dir, "snippet"+ext)
	if err := os.WriteFile(scriptPath, []byte(input.Code), 0o600); err != nil {
		return RunCodeOutput{}, fmt.Errorf("failed to write snippet: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, interpreter, scriptPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	output := RunCodeOutput{
		Stdout:   truncateOutput(stdout.String()),
		Stderr:   truncateOutput(stderr.String()),
		TimedOut: runCtx.Err() == context.DeadlineExceeded,
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			output.ExitCode = exitErr.ExitCode()
		} else if !output.TimedOut {
			return RunCodeOutput{}, fmt.Errorf("failed to run snippet: %w", err)
		}
	}

	return output, nil
}

// truncateOutput cuts on a rune boundary so the tail stays valid UTF-8.
func truncateOutput(s string) string {
	if len(s) <= maxOutputLen {
		return s
	}
	cut := maxOutputLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (output truncated)"
}
