package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/talkify-cu/talkify/internal/config"
)

func TestLoad_DefaultsApplied(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.PrimaryURL != config.DefaultPrimaryURL {
		t.Errorf("primary url %q", cfg.Backend.PrimaryURL)
	}
	if cfg.Backend.FallbackURL != config.DefaultFallbackURL {
		t.Errorf("fallback url %q", cfg.Backend.FallbackURL)
	}
	if cfg.Backend.RequestTimeout.Std() != config.DefaultRequestTimeout {
		t.Errorf("timeout %s", cfg.Backend.RequestTimeout.Std())
	}
	if cfg.Backend.TotalSteps != config.DefaultTotalSteps {
		t.Errorf("total steps %d", cfg.Backend.TotalSteps)
	}
	if cfg.Voice.Model != "playai-tts" || cfg.Voice.Voice != "Ruby-PlayAI" {
		t.Errorf("voice defaults %q/%q", cfg.Voice.Model, cfg.Voice.Voice)
	}
	if cfg.Storage.Driver != config.StorageMemory {
		t.Errorf("storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log level %q", cfg.Server.LogLevel)
	}
}

func TestLoad_CustomPrimaryDisablesDefaultFallback(t *testing.T) {
	t.Parallel()
	yaml := `
backend:
  primary_url: "https://backend.example.com"
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.FallbackURL != "" {
		t.Errorf("fallback %q, want empty for custom primary", cfg.Backend.FallbackURL)
	}
}

func TestLoad_DurationParsing(t *testing.T) {
	t.Parallel()
	yaml := `
backend:
  request_timeout: 30s
storage:
  driver: redis
  redis:
    addr: "localhost:6379"
    ttl: 24h
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.RequestTimeout.Std() != 30*time.Second {
		t.Errorf("timeout %s, want 30s", cfg.Backend.RequestTimeout.Std())
	}
	if cfg.Storage.Redis.TTL.Std() != 24*time.Hour {
		t.Errorf("ttl %s, want 24h", cfg.Storage.Redis.TTL.Std())
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_InvalidStorageDriver(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  driver: sqlite
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid storage driver, got nil")
	}
}

func TestValidate_FileDriverRequiresPath(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  driver: file
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for file driver without path, got nil")
	}
	if !strings.Contains(err.Error(), "storage.path") {
		t.Errorf("error should mention storage.path, got: %v", err)
	}
}

func TestValidate_RedisDriverRequiresAddr(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  driver: redis
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for redis driver without addr, got nil")
	}
}

func TestValidate_VoiceMustBelongToModel(t *testing.T) {
	t.Parallel()
	yaml := `
voice:
  model: playai-tts-arabic
  voice: Ruby-PlayAI
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for English voice on Arabic model, got nil")
	}
	if !strings.Contains(err.Error(), "voice.voice") {
		t.Errorf("error should mention voice.voice, got: %v", err)
	}
}

func TestValidate_InvalidVoiceModel(t *testing.T) {
	t.Parallel()
	yaml := `
voice:
  model: elevenlabs-turbo
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown voice model, got nil")
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
storage:
  driver: file
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") || !strings.Contains(errStr, "storage.path") {
		t.Errorf("error should join both failures, got: %v", err)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
backend:
  primary_uri: "https://typo.example.com"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	llmNames := config.ValidProviderNames["llm"]
	if len(llmNames) == 0 {
		t.Fatal("ValidProviderNames[\"llm\"] should not be empty")
	}
	found := false
	for _, n := range llmNames {
		if n == "groq" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"llm\"] should contain \"groq\"")
	}
}
