package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per pipeline stage.
var ValidProviderNames = map[string][]string{
	"stt":  {"elevenlabs", "whisper"},
	"chat": {"openai", "mistral", "groq", "ollama"},
	"tts":  {"elevenlabs"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, expands ${ENV_VAR} references,
// and validates the result. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	raw = []byte(os.ExpandEnv(string(raw)))

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}

	if cfg.Providers.STT.Primary.Name == "" {
		errs = append(errs, errors.New("providers.stt.primary.name is required"))
	}
	errs = append(errs, validateStage("stt", cfg.Providers.STT)...)
	errs = append(errs, validateStage("chat", cfg.Providers.Chat)...)
	if cfg.Providers.TTS.Name != "" {
		errs = append(errs, validateEntry("tts", "providers.tts", cfg.Providers.TTS)...)
	}

	return errors.Join(errs...)
}

// validateStage checks the primary and optional fallback entries of a stage.
func validateStage(kind string, stage StageConfig) []error {
	var errs []error
	if stage.Primary.Name != "" {
		errs = append(errs, validateEntry(kind, "providers."+kind+".primary", stage.Primary)...)
	}
	if stage.Fallback != nil {
		if stage.Fallback.Name == "" {
			errs = append(errs, fmt.Errorf("providers.%s.fallback.name is required when a fallback block is present", kind))
		} else {
			errs = append(errs, validateEntry(kind, "providers."+kind+".fallback", *stage.Fallback)...)
		}
	}
	return errs
}

// validateEntry checks a single provider entry against the known names.
func validateEntry(kind, path string, e ProviderEntry) []error {
	var errs []error
	if known, ok := ValidProviderNames[kind]; ok && !slices.Contains(known, e.Name) {
		errs = append(errs, fmt.Errorf("%s.name %q is not a known %s provider (known: %v)", path, e.Name, kind, known))
	}
	if kind == "tts" && e.Voice == "" {
		errs = append(errs, fmt.Errorf("%s.voice is required for tts", path))
	}
	return errs
}
