// Package config provides the configuration schema and loader for the
// runcoach service.
package config

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader]. String fields support
// ${ENV_VAR} expansion so credentials can stay out of the file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Store     StoreConfig     `yaml:"store"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// AuthConfig holds the bearer-token settings.
type AuthConfig struct {
	// JWTSecret is the HS256 shared secret used to verify bearer tokens.
	JWTSecret string `yaml:"jwt_secret"`
}

// StoreConfig selects the activity store backend.
type StoreConfig struct {
	// DSN is the PostgreSQL connection string. Empty selects the in-memory
	// store (development only; nothing survives a restart).
	DSN string `yaml:"dsn"`
}

// ProvidersConfig declares the remote backends per pipeline stage. Fallback
// entries are optional; when present they are tried after the primary.
type ProvidersConfig struct {
	STT  StageConfig   `yaml:"stt"`
	Chat StageConfig   `yaml:"chat"`
	TTS  ProviderEntry `yaml:"tts"`
}

// StageConfig is a primary provider plus an optional fallback.
type StageConfig struct {
	Primary  ProviderEntry  `yaml:"primary"`
	Fallback *ProviderEntry `yaml:"fallback"`
}

// ProviderEntry is the common configuration block shared by all provider
// types.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "elevenlabs",
	// "whisper", "openai", "mistral").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API, if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Leave empty to
	// use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g.,
	// "meta-llama/Llama-3.1-8B-Instruct", "scribe_v1").
	Model string `yaml:"model"`

	// Voice selects a TTS voice ID. Only meaningful for TTS providers.
	Voice string `yaml:"voice"`
}
