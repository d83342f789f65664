package config

import (
	"errors"
	"testing"
)

// validConfig returns a config that passes validation; tests mutate
// single fields from here.
func validConfig() *Config {
	return &Config{
		APIBaseURL:        "http://localhost:5000/api",
		RequestTimeoutSec: 90,
		RequestsPerMinute: 30,
		TypingDelayMS:     12,
		DataDir:           "/tmp/wofa-test",
		Language:          "en-US",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var c *Config
	if err := c.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("expected ErrConfigNil, got %v", err)
	}
}

func TestValidate_BaseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{"production default", DefaultBaseURL, true},
		{"local dev", "http://localhost:5000/api", true},
		{"empty", "", false},
		{"no scheme", "localhost:5000/api", false},
		{"bad scheme", "ftp://example.com/api", false},
		{"no host", "http://", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.APIBaseURL = tt.url
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidBaseURL) {
				t.Errorf("expected ErrInvalidBaseURL, got %v", err)
			}
		})
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"timeout too small", func(c *Config) { c.RequestTimeoutSec = 0 }, ErrInvalidTimeout},
		{"timeout too large", func(c *Config) { c.RequestTimeoutSec = 601 }, ErrInvalidTimeout},
		{"typing delay zero is allowed", func(c *Config) { c.TypingDelayMS = 0 }, nil},
		{"typing delay negative", func(c *Config) { c.TypingDelayMS = -1 }, ErrInvalidTypingDelay},
		{"typing delay too large", func(c *Config) { c.TypingDelayMS = MaxTypingDelayMS + 1 }, ErrInvalidTypingDelay},
		{"request rate zero", func(c *Config) { c.RequestsPerMinute = 0 }, ErrInvalidRequestRate},
		{"speech rate negative", func(c *Config) { c.Speech.Rate = -10 }, ErrInvalidSpeechRate},
		{"speech rate absurd", func(c *Config) { c.Speech.Rate = 10000 }, ErrInvalidSpeechRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
