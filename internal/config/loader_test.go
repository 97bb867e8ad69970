package config

import (
	"strings"
	"testing"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
auth:
  jwt_secret: test-secret
store:
  dsn: ""
providers:
  stt:
    primary:
      name: elevenlabs
      api_key: el-key
      model: scribe_v1
    fallback:
      name: whisper
      base_url: http://localhost:9000
  chat:
    primary:
      name: openai
      api_key: hf-key
      base_url: https://router.huggingface.co/v1
      model: meta-llama/Llama-3.1-8B-Instruct
    fallback:
      name: mistral
      api_key: mi-key
      model: mistral-small
  tts:
    name: elevenlabs
    api_key: el-key
    voice: 21m00Tcm4TlvDq8ikWAM
`

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Providers.STT.Fallback == nil || cfg.Providers.STT.Fallback.Name != "whisper" {
		t.Errorf("STT fallback = %+v", cfg.Providers.STT.Fallback)
	}
	if cfg.Providers.Chat.Primary.Model != "meta-llama/Llama-3.1-8B-Instruct" {
		t.Errorf("chat model = %q", cfg.Providers.Chat.Primary.Model)
	}
	if cfg.Providers.TTS.Voice == "" {
		t.Error("tts voice empty")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	yaml := strings.Replace(validYAML, "log_level: info", "log_level: info\n  extra_field: 1", 1)
	if _, err := LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_EL_KEY", "expanded-key")
	yaml := strings.Replace(validYAML, "api_key: el-key", "api_key: ${TEST_EL_KEY}", 1)

	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Providers.STT.Primary.APIKey != "expanded-key" {
		t.Errorf("APIKey = %q, want expanded-key", cfg.Providers.STT.Primary.APIKey)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing listen addr",
			mutate:  func(c *Config) { c.Server.ListenAddr = "" },
			wantErr: "listen_addr",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "loud" },
			wantErr: "log_level",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "" },
			wantErr: "jwt_secret",
		},
		{
			name:    "missing stt primary",
			mutate:  func(c *Config) { c.Providers.STT.Primary.Name = "" },
			wantErr: "stt.primary.name",
		},
		{
			name:    "unknown chat provider",
			mutate:  func(c *Config) { c.Providers.Chat.Primary.Name = "skynet" },
			wantErr: "skynet",
		},
		{
			name:    "tts without voice",
			mutate:  func(c *Config) { c.Providers.TTS.Voice = "" },
			wantErr: "voice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromReader(strings.NewReader(validYAML))
			if err != nil {
				t.Fatalf("base config invalid: %v", err)
			}
			tt.mutate(cfg)
			err = Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
