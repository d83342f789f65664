package config

import (
	"fmt"
	"net/url"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Backend base URL must be absolute http(s)
	if c.APIBaseURL == "" {
		return fmt.Errorf("%w: api_base_url cannot be empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidBaseURL, c.APIBaseURL)
	}

	if c.RequestTimeoutSec < 1 || c.RequestTimeoutSec > 600 {
		return fmt.Errorf("%w: must be between 1 and 600 seconds, got %d", ErrInvalidTimeout, c.RequestTimeoutSec)
	}

	// Zero is allowed: tests and scripted use disable the reveal pacing
	if c.TypingDelayMS < 0 || c.TypingDelayMS > MaxTypingDelayMS {
		return fmt.Errorf("%w: must be between 0 and %d ms, got %d", ErrInvalidTypingDelay, MaxTypingDelayMS, c.TypingDelayMS)
	}

	if c.RequestsPerMinute < 1 || c.RequestsPerMinute > 600 {
		return fmt.Errorf("%w: must be between 1 and 600, got %d", ErrInvalidRequestRate, c.RequestsPerMinute)
	}

	if c.Speech.Rate < 0 || c.Speech.Rate > 600 {
		return fmt.Errorf("%w: must be between 0 and 600 wpm, got %d", ErrInvalidSpeechRate, c.Speech.Rate)
	}

	return nil
}
