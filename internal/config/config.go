// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (WOFA_* overrides)
//  2. Config file (~/.wofa/config.yaml)
//  3. Default values
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidBaseURL indicates the backend base URL is missing or malformed.
	ErrInvalidBaseURL = errors.New("invalid api base url")

	// ErrInvalidTimeout indicates the request timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid request timeout")

	// ErrInvalidTypingDelay indicates the reveal step delay is out of range.
	ErrInvalidTypingDelay = errors.New("invalid typing delay")

	// ErrInvalidRequestRate indicates the request rate limit is out of range.
	ErrInvalidRequestRate = errors.New("invalid request rate")

	// ErrInvalidSpeechRate indicates the speech rate is out of range.
	ErrInvalidSpeechRate = errors.New("invalid speech rate")
)

// Reveal pacing defaults. 12ms per rune matches the pacing of the web
// client's typing animation; it is a product decision, not a tuning knob.
const (
	DefaultTypingDelayMS = 12
	MaxTypingDelayMS     = 500
)

const (
	// DefaultBaseURL is the production WOFA backend.
	DefaultBaseURL = "https://wofa-ai-backend.onrender.com/api"

	// DefaultRequestTimeoutSec bounds a single chat round-trip. Lesson
	// generation can take a while on cold backends.
	DefaultRequestTimeoutSec = 90

	// DefaultRequestsPerMinute is the client-side politeness limit
	// applied to all backend calls.
	DefaultRequestsPerMinute = 30
)

// SpeechConfig configures the voice bridge. Empty commands mean
// "autodetect": the voice package probes PATH for a known engine.
type SpeechConfig struct {
	SpeakCommand  string `mapstructure:"speak_command" json:"speak_command"`   // e.g. "say", "espeak"
	ListenCommand string `mapstructure:"listen_command" json:"listen_command"` // transcript printed on stdout
	Rate          int    `mapstructure:"rate" json:"rate"`                     // words per minute, 0 = engine default
	Voice         string `mapstructure:"voice" json:"voice"`                   // engine voice name, optional
}

// Config stores application configuration.
type Config struct {
	// Backend connection
	APIBaseURL        string `mapstructure:"api_base_url" json:"api_base_url"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec" json:"request_timeout_sec"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" json:"requests_per_minute"`

	// Reveal pacing (milliseconds per rune)
	TypingDelayMS int `mapstructure:"typing_delay_ms" json:"typing_delay_ms"`

	// Local data directory (key/value store, saved images, lock file)
	DataDir string `mapstructure:"data_dir" json:"data_dir"`

	// Language tag used for speech synthesis and recognition
	Language string `mapstructure:"language" json:"language"`

	// Speech engine configuration (see voice package)
	Speech SpeechConfig `mapstructure:"speech" json:"speech"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".wofa")

	// Ensure directory exists (0750: config may hold a session token)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("api_base_url", DefaultBaseURL)
	v.SetDefault("request_timeout_sec", DefaultRequestTimeoutSec)
	v.SetDefault("requests_per_minute", DefaultRequestsPerMinute)
	v.SetDefault("typing_delay_ms", DefaultTypingDelayMS)
	v.SetDefault("data_dir", configDir)
	v.SetDefault("language", "en-US")

	// Speech defaults: autodetect engine, slightly slower than default
	// rate for readability (matches the web client's 0.95 rate)
	v.SetDefault("speech.speak_command", "")
	v.SetDefault("speech.listen_command", "")
	v.SetDefault("speech.rate", 0)
	v.SetDefault("speech.voice", "")
}

// bindEnvVariables binds environment variable overrides explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("api_base_url", "WOFA_API_BASE_URL")
	mustBind("request_timeout_sec", "WOFA_REQUEST_TIMEOUT_SEC")
	mustBind("typing_delay_ms", "WOFA_TYPING_DELAY_MS")
	mustBind("data_dir", "WOFA_DATA_DIR")
	mustBind("language", "WOFA_LANGUAGE")
	mustBind("speech.speak_command", "WOFA_SPEAK_COMMAND")
	mustBind("speech.listen_command", "WOFA_LISTEN_COMMAND")
}
