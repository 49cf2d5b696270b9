package modelapi

import (
	"log/slog"
	"time"
)

// Config holds configuration for the model API client
type Config struct {
	APIKey     string        // Bearer token for the hosted model API
	BaseURL    string        // Base URL for the API
	Logger     *slog.Logger  // Logger for debugging
	Timeout    time.Duration // HTTP timeout
	RetryCount int           // Number of retries for failed requests
	RetryDelay time.Duration // Delay between retries
}
