package main

import (
	"errors"

	"github.com/SohailShaikh7860/ai-agent-cli/src/auth"
	"github.com/SohailShaikh7860/ai-agent-cli/src/chat"
	"github.com/SohailShaikh7860/ai-agent-cli/src/modelapi"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAuth        = 4 // Authentication error
	ExitPermission  = 5 // Permission error
	ExitNetwork     = 6 // Network error
	ExitTimeout     = 7 // Timeout error
	ExitInterrupted = 8 // Interrupted by user
	ExitInternal    = 9 // Internal error
)

// exitCode maps an error to a process exit code by type, falling back to
// the general error code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, auth.ErrNotAuthenticated),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrSessionInvalid):
		return ExitAuth
	case errors.Is(err, chat.ErrInterrupted):
		return ExitInterrupted
	case errors.Is(err, modelapi.ErrTimeout):
		return ExitTimeout
	case errors.Is(err, modelapi.ErrNoAPIKey):
		return ExitConfig
	default:
		var apiErr *modelapi.APIError
		if errors.As(err, &apiErr) {
			if apiErr.IsAuthError() {
				return ExitAuth
			}
			return ExitNetwork
		}
		return ExitError
	}
}
