// Package config loads and validates the CLI configuration file.
package config

// Config is the persisted configuration, loaded from the XDG config path
// with environment overrides on top.
type Config struct {
	// Model is the hosted model identifier sent with every completion.
	Model string `json:"model" validate:"required"`

	// BaseURL overrides the model API endpoint.
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`

	// DefaultMode is used when the chat command gets no --mode flag and the
	// user skips the mode prompt.
	DefaultMode string `json:"default_mode" validate:"required,oneof=chat tool agent"`

	// Temperature passed to the model; nil leaves the API default.
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`

	// MaxTokens caps a single completion; nil leaves the API default.
	MaxTokens *int `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`

	// MaxToolSteps bounds tool-use rounds inside one model invocation.
	MaxToolSteps int `json:"max_tool_steps" validate:"gt=0,lte=10"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Model:        "gpt-4o-mini",
		DefaultMode:  "chat",
		MaxToolSteps: 5,
	}
}
