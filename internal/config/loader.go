package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talkify-cu/talkify/pkg/provider/tts"
)

// Defaults applied by [applyDefaults] when the config leaves a field empty.
const (
	DefaultPrimaryURL     = "https://talkify-inproduction.up.railway.app"
	DefaultFallbackURL    = "http://localhost:8000"
	DefaultRequestTimeout = 10 * time.Second
	DefaultTotalSteps     = 15
	DefaultListenAddr     = ":8090"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"tts": {"groq"},
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and [Validate].
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

// LoadFromReader decodes a YAML config from r, fills in defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills empty fields with the package defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Backend.PrimaryURL == "" {
		cfg.Backend.PrimaryURL = DefaultPrimaryURL
	}
	if cfg.Backend.FallbackURL == "" && cfg.Backend.PrimaryURL == DefaultPrimaryURL {
		cfg.Backend.FallbackURL = DefaultFallbackURL
	}
	if cfg.Backend.RequestTimeout == 0 {
		cfg.Backend.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if cfg.Backend.TotalSteps == 0 {
		cfg.Backend.TotalSteps = DefaultTotalSteps
	}
	if cfg.Voice.Model == "" {
		cfg.Voice.Model = string(tts.ModelEnglish)
	}
	if cfg.Voice.Voice == "" {
		cfg.Voice.Voice = tts.DefaultVoice(tts.Model(cfg.Voice.Model))
	}
	if cfg.Providers.TTS.Name == "" {
		cfg.Providers.TTS.Name = "groq"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageMemory
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Backend.PrimaryURL == "" {
		errs = append(errs, errors.New("backend.primary_url is required"))
	}
	if cfg.Backend.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("backend.request_timeout %s must not be negative", cfg.Backend.RequestTimeout.Std()))
	}
	if cfg.Backend.TotalSteps < 0 {
		errs = append(errs, fmt.Errorf("backend.total_steps %d must not be negative", cfg.Backend.TotalSteps))
	}

	model := tts.Model(cfg.Voice.Model)
	if cfg.Voice.Model != "" && !model.IsValid() {
		errs = append(errs, fmt.Errorf("voice.model %q is invalid; valid values: %s, %s", cfg.Voice.Model, tts.ModelEnglish, tts.ModelArabic))
	} else if cfg.Voice.Voice != "" && model.IsValid() && !tts.ValidVoice(model, cfg.Voice.Voice) {
		errs = append(errs, fmt.Errorf("voice.voice %q is not a %s voice", cfg.Voice.Voice, model))
	}

	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; career exploration will use the scripted fallback")
	}

	if cfg.Storage.Driver != "" && !cfg.Storage.Driver.IsValid() {
		errs = append(errs, fmt.Errorf("storage.driver %q is invalid; valid values: memory, file, redis", cfg.Storage.Driver))
	}
	if cfg.Storage.Driver == StorageFile && cfg.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required when storage.driver is file"))
	}
	if cfg.Storage.Driver == StorageRedis && cfg.Storage.Redis.Addr == "" {
		errs = append(errs, errors.New("storage.redis.addr is required when storage.driver is redis"))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
