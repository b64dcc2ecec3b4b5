// Package config provides the configuration schema, loader, and provider
// registry for the Talkify client.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the Talkify client.
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

// StorageDriver selects the settings persistence backend.
type StorageDriver string

const (
	// StorageMemory keeps settings in process memory only.
	StorageMemory StorageDriver = "memory"

	// StorageFile persists settings to a local JSON file.
	StorageFile StorageDriver = "file"

	// StorageRedis persists settings in Redis.
	StorageRedis StorageDriver = "redis"
)

// IsValid reports whether d is a recognised storage driver.
func (d StorageDriver) IsValid() bool {
	switch d {
	case StorageMemory, StorageFile, StorageRedis:
		return true
	}
	return false
}

// Duration is a [time.Duration] that unmarshals from YAML strings like "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure for the Talkify client.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Voice     VoiceConfig     `yaml:"voice"`
	Providers ProvidersConfig `yaml:"providers"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig holds the local observability listener and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address serving /metrics and the health probes
	// (e.g., ":8090"). Empty disables the listener.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// BackendConfig locates the career counseling backend.
type BackendConfig struct {
	// PrimaryURL is the preferred backend base URL.
	PrimaryURL string `yaml:"primary_url"`

	// FallbackURL is tried when the primary is unreachable. Empty disables
	// failover.
	FallbackURL string `yaml:"fallback_url"`

	// RequestTimeout bounds each individual request attempt.
	RequestTimeout Duration `yaml:"request_timeout"`

	// TotalSteps is the planned quiz length used for progress estimates
	// before the backend reports its own total.
	TotalSteps int `yaml:"total_steps"`
}

// VoiceConfig holds the speech defaults applied when no persisted settings
// exist yet.
type VoiceConfig struct {
	// Enabled turns speech synthesis on.
	Enabled bool `yaml:"enabled"`

	// AutoSpeak narrates assistant messages as they arrive.
	AutoSpeak bool `yaml:"auto_speak"`

	// Model is the TTS model identifier (e.g., "playai-tts").
	Model string `yaml:"model"`

	// Voice is the voice identifier; must belong to Model.
	Voice string `yaml:"voice"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	TTS ProviderEntry `yaml:"tts"`
	LLM ProviderEntry `yaml:"llm"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "groq").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any. The
	// TTS provider ignores this; its keys come from the backend.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g.,
	// "llama-3.3-70b-versatile").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// StorageConfig selects and configures the settings persistence backend.
type StorageConfig struct {
	// Driver selects the backend.
	Driver StorageDriver `yaml:"driver"`

	// Path is the settings file location. Required for the file driver.
	Path string `yaml:"path"`

	// Redis configures the redis driver. Required for the redis driver.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis storage driver.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string `yaml:"addr"`

	// Password authenticates against the server. Empty for no auth.
	Password string `yaml:"password"`

	// DB selects the logical database.
	DB int `yaml:"db"`

	// TTL expires persisted settings after this duration. Zero keeps them
	// forever.
	TTL Duration `yaml:"ttl"`
}
