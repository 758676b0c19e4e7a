// Package config loads roomwise settings using Viper.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for roomwise.
type Config struct {
	Port           string        `mapstructure:"port" yaml:"port"`
	UploadsDir     string        `mapstructure:"uploads_dir" yaml:"uploads_dir"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	Provider       string        `mapstructure:"provider" yaml:"provider"`
	Model          string        `mapstructure:"model" yaml:"model"`
	Temperature    float64       `mapstructure:"temperature" yaml:"temperature"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MockDelay      time.Duration `mapstructure:"mock_delay" yaml:"mock_delay"`
	SessionSecret  string        `mapstructure:"session_secret" yaml:"session_secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	GeminiAPIKey   string        `mapstructure:"gemini_api_key" yaml:"-"`
	OpenAIAPIKey   string        `mapstructure:"openai_api_key" yaml:"-"`
	OpenAIBaseURL  string        `mapstructure:"openai_base_url" yaml:"openai_base_url"`
	OllamaURL      string        `mapstructure:"ollama_url" yaml:"ollama_url"`
}

// envBindings maps keys to the environment variables read for them, in
// priority order.
var envBindings = map[string][]string{
	"port":             {"ROOMWISE_PORT"},
	"uploads_dir":      {"ROOMWISE_UPLOADS_DIR"},
	"max_upload_bytes": {"ROOMWISE_MAX_UPLOAD_BYTES"},
	"provider":         {"ROOMWISE_PROVIDER"},
	"model":            {"ROOMWISE_MODEL"},
	"temperature":      {"ROOMWISE_TEMPERATURE"},
	"request_timeout":  {"ROOMWISE_REQUEST_TIMEOUT"},
	"mock_delay":       {"ROOMWISE_MOCK_DELAY"},
	"session_secret":   {"ROOMWISE_SESSION_SECRET"},
	"session_ttl":      {"ROOMWISE_SESSION_TTL"},
	"log_level":        {"ROOMWISE_LOG_LEVEL"},
	"gemini_api_key":   {"ROOMWISE_GEMINI_API_KEY", "GEMINI_API_KEY"},
	"openai_api_key":   {"ROOMWISE_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"openai_base_url":  {"ROOMWISE_OPENAI_BASE_URL", "OPENAI_BASE_URL"},
	"ollama_url":       {"ROOMWISE_OLLAMA_URL", "OLLAMA_URL", "OLLAMA_HOST"},
}

// DefaultPath is the project-local config file read when no path is given.
const DefaultPath = "roomwise.yml"

// Load reads configuration with precedence ENV vars > config file > defaults.
// An empty path reads DefaultPath if it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("port", "8888")
	v.SetDefault("uploads_dir", "uploads")
	v.SetDefault("max_upload_bytes", 10*1024*1024)
	v.SetDefault("provider", "mock")
	v.SetDefault("model", "")
	v.SetDefault("temperature", 0.4)
	v.SetDefault("request_timeout", 2*time.Minute)
	v.SetDefault("mock_delay", 3*time.Second)
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("log_level", "info")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("ollama_url", "")

	v.SetEnvPrefix("ROOMWISE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	if path == "" && fileExists(DefaultPath) {
		path = DefaultPath
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Provider {
	case "mock", "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("unsupported provider %q (supported: mock, gemini, openai, ollama)", c.Provider)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// EnsureSessionSecret fills in a random secret when none is configured and
// reports whether it did. Sessions then do not survive a restart.
func (c *Config) EnsureSessionSecret() (bool, error) {
	if c.SessionSecret != "" {
		return false, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("generating session secret: %w", err)
	}
	c.SessionSecret = hex.EncodeToString(buf)
	return true, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
